package consent

import (
	"context"
	"fmt"

	"github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/database/provider"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores/interfaces"
)

const consentColumns = "CONSENT_ID, RECEIPT, CREATED_TIME, UPDATED_TIME, CLIENT_ID, CONSENT_TYPE, CURRENT_STATUS, " +
	"CONSENT_FREQUENCY, VALIDITY_TIME, RECURRING_INDICATOR, VERSION"

// DBQuery objects for all consent operations
var (
	QueryCreateConsent = dbmodel.DBQuery{
		ID: "CREATE_CONSENT",
		Query: "INSERT INTO CONSENT (" + consentColumns + ") " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetConsentByID = dbmodel.DBQuery{
		ID:    "GET_CONSENT_BY_ID",
		Query: "SELECT " + consentColumns + " FROM CONSENT WHERE CONSENT_ID = ?",
	}

	QuerySearchRecurringConsents = dbmodel.DBQuery{
		ID: "SEARCH_RECURRING_CONSENTS",
		Query: "SELECT " + consentColumns + " FROM CONSENT " +
			"WHERE CLIENT_ID = ? AND CONSENT_TYPE = ? AND CURRENT_STATUS = ? AND RECURRING_INDICATOR = TRUE",
	}

	QueryUpdateConsentStatus = dbmodel.DBQuery{
		ID:    "UPDATE_CONSENT_STATUS",
		Query: "UPDATE CONSENT SET CURRENT_STATUS = ?, UPDATED_TIME = ?, VERSION = VERSION + 1 WHERE CONSENT_ID = ?",
	}

	QueryUpdateConsentStatusIfVersion = dbmodel.DBQuery{
		ID: "UPDATE_CONSENT_STATUS_IF_VERSION",
		Query: "UPDATE CONSENT SET CURRENT_STATUS = ?, UPDATED_TIME = ?, VERSION = VERSION + 1 " +
			"WHERE CONSENT_ID = ? AND VERSION = ?",
	}

	QueryBumpConsentVersion = dbmodel.DBQuery{
		ID:    "BUMP_CONSENT_VERSION",
		Query: "UPDATE CONSENT SET UPDATED_TIME = ?, VERSION = VERSION + 1 WHERE CONSENT_ID = ? AND VERSION = ?",
	}

	QueryCreateStatusAudit = dbmodel.DBQuery{
		ID: "CREATE_STATUS_AUDIT",
		Query: "INSERT INTO CONSENT_STATUS_AUDIT (STATUS_AUDIT_ID, CONSENT_ID, CURRENT_STATUS, ACTION_TIME, REASON, " +
			"ACTION_BY, PREVIOUS_STATUS) VALUES (?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetStatusAuditByConsentID = dbmodel.DBQuery{
		ID: "GET_STATUS_AUDIT_BY_CONSENT_ID",
		Query: "SELECT STATUS_AUDIT_ID, CONSENT_ID, CURRENT_STATUS, ACTION_TIME, REASON, ACTION_BY, PREVIOUS_STATUS " +
			"FROM CONSENT_STATUS_AUDIT WHERE CONSENT_ID = ? ORDER BY ACTION_TIME",
	}

	QueryCreateAccountMapping = dbmodel.DBQuery{
		ID: "CREATE_ACCOUNT_MAPPING",
		Query: "INSERT INTO CONSENT_MAPPING (MAPPING_ID, AUTH_ID, ACCOUNT_ID, PERMISSION, MAPPING_STATUS) " +
			"VALUES (?, ?, ?, ?, ?)",
	}

	QueryGetAccountMappingsByConsentID = dbmodel.DBQuery{
		ID: "GET_ACCOUNT_MAPPINGS_BY_CONSENT_ID",
		Query: "SELECT M.MAPPING_ID, M.AUTH_ID, M.ACCOUNT_ID, M.PERMISSION, M.MAPPING_STATUS " +
			"FROM CONSENT_MAPPING M INNER JOIN CONSENT_AUTH_RESOURCE A ON M.AUTH_ID = A.AUTH_ID " +
			"WHERE A.CONSENT_ID = ?",
	}

	QueryDeactivateAccountMappings = dbmodel.DBQuery{
		ID: "DEACTIVATE_ACCOUNT_MAPPINGS",
		Query: "UPDATE CONSENT_MAPPING SET MAPPING_STATUS = ? WHERE AUTH_ID IN " +
			"(SELECT AUTH_ID FROM CONSENT_AUTH_RESOURCE WHERE CONSENT_ID = ?)",
	}
)

// store implements interfaces.ConsentStore on top of a DBClient
type store struct {
	dbClient provider.DBClientInterface
}

var _ interfaces.ConsentStore = (*store)(nil)

// NewStore creates a new consent store
func NewStore(dbClient provider.DBClientInterface) interfaces.ConsentStore {
	return &store{dbClient: dbClient}
}

// Create inserts a consent
func (s *store) Create(tx dbmodel.TxInterface, consent *model.Consent) error {
	_, err := tx.Execute(QueryCreateConsent,
		consent.ConsentID,
		consent.Receipt,
		consent.CreatedTime,
		consent.UpdatedTime,
		consent.ClientID,
		string(consent.ConsentType),
		string(consent.CurrentStatus),
		consent.ConsentFrequency,
		consent.ValidityTime,
		consent.RecurringIndicator,
		consent.Version,
	)
	return err
}

// GetByID retrieves a consent by ID
func (s *store) GetByID(ctx context.Context, consentID string) (*model.Consent, error) {
	results, err := s.dbClient.Query(ctx, QueryGetConsentByID, consentID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrConsentNotFound, consentID)
	}
	return mapToConsent(results[0]), nil
}

// SearchRecurring lists the client's recurring consents of a type currently in status
func (s *store) SearchRecurring(
	ctx context.Context,
	clientID string,
	consentType model.ConsentType,
	status model.Status,
) ([]model.Consent, error) {
	results, err := s.dbClient.Query(ctx, QuerySearchRecurringConsents, clientID, string(consentType), string(status))
	if err != nil {
		return nil, err
	}
	consents := make([]model.Consent, 0, len(results))
	for _, row := range results {
		consents = append(consents, *mapToConsent(row))
	}
	return consents, nil
}

// UpdateStatus sets the consent status unconditionally
func (s *store) UpdateStatus(tx dbmodel.TxInterface, consentID string, status model.Status, updatedTime int64) error {
	affected, err := tx.Execute(QueryUpdateConsentStatus, string(status), updatedTime, consentID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", model.ErrConsentNotFound, consentID)
	}
	return nil
}

// UpdateStatusIfVersion sets the consent status only if the row is still at version.
// It reports false when another writer got there first.
func (s *store) UpdateStatusIfVersion(
	tx dbmodel.TxInterface,
	consentID string,
	status model.Status,
	version, updatedTime int64,
) (bool, error) {
	affected, err := tx.Execute(QueryUpdateConsentStatusIfVersion, string(status), updatedTime, consentID, version)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// BumpVersion advances the version without touching the status, guarded like UpdateStatusIfVersion
func (s *store) BumpVersion(tx dbmodel.TxInterface, consentID string, version, updatedTime int64) (bool, error) {
	affected, err := tx.Execute(QueryBumpConsentVersion, updatedTime, consentID, version)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateStatusAudit records a status change
func (s *store) CreateStatusAudit(tx dbmodel.TxInterface, audit *model.ConsentStatusAudit) error {
	_, err := tx.Execute(QueryCreateStatusAudit,
		audit.StatusAuditID,
		audit.ConsentID,
		string(audit.CurrentStatus),
		audit.ActionTime,
		audit.Reason,
		audit.ActionBy,
		audit.PreviousStatus,
	)
	return err
}

// GetStatusAuditByConsentID returns the status history of a consent, oldest first
func (s *store) GetStatusAuditByConsentID(ctx context.Context, consentID string) ([]model.ConsentStatusAudit, error) {
	results, err := s.dbClient.Query(ctx, QueryGetStatusAuditByConsentID, consentID)
	if err != nil {
		return nil, err
	}
	audits := make([]model.ConsentStatusAudit, 0, len(results))
	for _, row := range results {
		audits = append(audits, model.ConsentStatusAudit{
			StatusAuditID:  row.String("STATUS_AUDIT_ID"),
			ConsentID:      row.String("CONSENT_ID"),
			CurrentStatus:  model.Status(row.String("CURRENT_STATUS")),
			ActionTime:     row.Int64("ACTION_TIME"),
			Reason:         row.NullableString("REASON"),
			ActionBy:       row.NullableString("ACTION_BY"),
			PreviousStatus: row.NullableString("PREVIOUS_STATUS"),
		})
	}
	return audits, nil
}

// CreateAccountMappings inserts account permission mappings
func (s *store) CreateAccountMappings(tx dbmodel.TxInterface, mappings []model.AccountMapping) error {
	for _, m := range mappings {
		if _, err := tx.Execute(QueryCreateAccountMapping,
			m.MappingID,
			m.AuthID,
			m.AccountID,
			m.Permission,
			m.MappingStatus,
		); err != nil {
			return err
		}
	}
	return nil
}

// GetAccountMappingsByConsentID returns the mappings bound through any of the consent's auth resources
func (s *store) GetAccountMappingsByConsentID(ctx context.Context, consentID string) ([]model.AccountMapping, error) {
	results, err := s.dbClient.Query(ctx, QueryGetAccountMappingsByConsentID, consentID)
	if err != nil {
		return nil, err
	}
	mappings := make([]model.AccountMapping, 0, len(results))
	for _, row := range results {
		mappings = append(mappings, model.AccountMapping{
			MappingID:     row.String("MAPPING_ID"),
			AuthID:        row.String("AUTH_ID"),
			AccountID:     row.String("ACCOUNT_ID"),
			Permission:    row.String("PERMISSION"),
			MappingStatus: row.String("MAPPING_STATUS"),
		})
	}
	return mappings, nil
}

// DeactivateAccountMappings marks every mapping of the consent inactive
func (s *store) DeactivateAccountMappings(tx dbmodel.TxInterface, consentID string) error {
	_, err := tx.Execute(QueryDeactivateAccountMappings, model.MappingStatusInactive, consentID)
	return err
}

// mapToConsent converts a database row to Consent
func mapToConsent(row dbmodel.Row) *model.Consent {
	return &model.Consent{
		ConsentID:          row.String("CONSENT_ID"),
		Receipt:            row.String("RECEIPT"),
		CreatedTime:        row.Int64("CREATED_TIME"),
		UpdatedTime:        row.Int64("UPDATED_TIME"),
		ClientID:           row.String("CLIENT_ID"),
		ConsentType:        model.ConsentType(row.String("CONSENT_TYPE")),
		CurrentStatus:      model.Status(row.String("CURRENT_STATUS")),
		ConsentFrequency:   int(row.Int64("CONSENT_FREQUENCY")),
		ValidityTime:       row.Int64("VALIDITY_TIME"),
		RecurringIndicator: row.Bool("RECURRING_INDICATOR"),
		Version:            row.Int64("VERSION"),
	}
}
