package consent

import (
	"context"
	"maps"
	"slices"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	"github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

const expiredByRecurringReason = "Superseded by a newer recurring consent"

// CoreService is the consent store facade used by the authorisation flow.
type CoreService struct {
	stores *stores.StoreRegistry
	clock  utils.Clock
	logger *log.Logger
}

// NewCoreService creates a CoreService over the registry.
func NewCoreService(registry *stores.StoreRegistry, clock utils.Clock) *CoreService {
	if clock == nil {
		clock = utils.SystemClock
	}
	return &CoreService{
		stores: registry,
		clock:  clock,
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ConsentCoreService")),
	}
}

func (s *CoreService) GetConsent(ctx context.Context, consentID string) (*model.Consent, error) {
	return s.stores.Consent.GetByID(ctx, consentID)
}

func (s *CoreService) GetAuthorization(ctx context.Context, authID string) (*authmodel.AuthResource, error) {
	return s.stores.AuthResource.GetByID(ctx, authID)
}

func (s *CoreService) SearchAuthorizations(ctx context.Context, consentID string) ([]authmodel.AuthResource, error) {
	return s.stores.AuthResource.GetByConsentID(ctx, consentID)
}

func (s *CoreService) SearchRecurringConsents(
	ctx context.Context,
	clientID string,
	consentType model.ConsentType,
	status model.Status,
) ([]model.Consent, error) {
	return s.stores.Consent.SearchRecurring(ctx, clientID, consentType, status)
}

// UpdateAuthorizationStatus records status on a single auth resource without touching the consent.
func (s *CoreService) UpdateAuthorizationStatus(
	ctx context.Context,
	authID string,
	status authmodel.ScaStatus,
	userID *string,
) error {
	now := utils.TimeToMillis(s.clock())
	return s.stores.ExecuteTransaction(ctx, []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			if userID == nil {
				return s.stores.AuthResource.UpdateStatus(tx, authID, status, now)
			}
			return s.stores.AuthResource.UpdateStatusAndUser(tx, authID, status, userID, now)
		},
	})
}

// UpdateConsentStatus moves the consent to status and audits the change.
func (s *CoreService) UpdateConsentStatus(
	ctx context.Context,
	consent *model.Consent,
	status model.Status,
	reason string,
) error {
	now := utils.TimeToMillis(s.clock())
	err := s.stores.ExecuteTransaction(ctx, []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return s.stores.Consent.UpdateStatus(tx, consent.ConsentID, status, now)
		},
		func(tx dbmodel.TxInterface) error {
			return s.stores.Consent.CreateStatusAudit(tx, newStatusAudit(consent.ConsentID, status, consent.CurrentStatus, now, reason, ""))
		},
	})
	if err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("Consent status updated",
		log.String("consent_id", consent.ConsentID),
		log.String("previous_status", string(consent.CurrentStatus)),
		log.String("new_status", string(status)),
	)
	return nil
}

// UpdateConsentStatusIfVersion moves the consent to status only if nobody changed it since it
// was read. A lost race returns model.ErrConcurrentUpdate and writes nothing.
func (s *CoreService) UpdateConsentStatusIfVersion(
	ctx context.Context,
	consent *model.Consent,
	status model.Status,
	reason string,
) error {
	now := utils.TimeToMillis(s.clock())
	err := s.stores.ExecuteTransaction(ctx, []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			ok, err := s.stores.Consent.UpdateStatusIfVersion(tx, consent.ConsentID, status, consent.Version, now)
			if err != nil {
				return err
			}
			if !ok {
				return model.ErrConcurrentUpdate
			}
			return nil
		},
		func(tx dbmodel.TxInterface) error {
			return s.stores.Consent.CreateStatusAudit(tx, newStatusAudit(consent.ConsentID, status, consent.CurrentStatus, now, reason, ""))
		},
	})
	if err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("Consent status updated",
		log.String("consent_id", consent.ConsentID),
		log.String("previous_status", string(consent.CurrentStatus)),
		log.String("new_status", string(status)),
	)
	return nil
}

// BindAccountPermissions commits a completed authorisation in one transaction: the auth
// resource status and user, the account mappings (deactivated instead when the PSU denied),
// the consent status behind the version guard, and the expiry of any superseded consents.
func (s *CoreService) BindAccountPermissions(ctx context.Context, binding model.AccountBinding) error {
	consent := binding.Consent
	now := utils.TimeToMillis(s.clock())

	var userID *string
	if binding.UserID != "" {
		userID = &binding.UserID
	}

	queries := []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return s.stores.AuthResource.UpdateStatusAndUser(tx, binding.AuthID, binding.AuthStatus, userID, now)
		},
	}
	// A denied authorisation grants nothing and withdraws what the consent already holds.
	if binding.AuthStatus == authmodel.ScaStatusFailed {
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return s.stores.Consent.DeactivateAccountMappings(tx, consent.ConsentID)
		})
	} else {
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return s.stores.Consent.CreateAccountMappings(tx, accountMappings(binding.AuthID, binding.AccountPermissions))
		})
	}
	queries = append(queries, func(tx dbmodel.TxInterface) error {
		return s.guardedStatusUpdate(tx, consent, binding.NewConsentStatus, binding.UserID, now)
	})

	for _, expireID := range binding.ExpireConsentIDs {
		id := expireID
		queries = append(queries,
			func(tx dbmodel.TxInterface) error {
				return s.stores.Consent.UpdateStatus(tx, id, model.StatusExpired, now)
			},
			func(tx dbmodel.TxInterface) error {
				return s.stores.Consent.CreateStatusAudit(tx,
					newStatusAudit(id, model.StatusExpired, model.StatusValid, now, expiredByRecurringReason, binding.UserID))
			},
			func(tx dbmodel.TxInterface) error {
				return s.stores.Consent.DeactivateAccountMappings(tx, id)
			},
		)
	}

	if err := s.stores.ExecuteTransaction(ctx, queries); err != nil {
		return err
	}

	s.logger.WithContext(ctx).Debug("Account permissions bound",
		log.String("consent_id", consent.ConsentID),
		log.String("auth_id", binding.AuthID),
		log.String("consent_status", string(binding.NewConsentStatus)),
		log.Int("expired_consents", len(binding.ExpireConsentIDs)),
	)
	return nil
}

func (s *CoreService) guardedStatusUpdate(
	tx dbmodel.TxInterface,
	consent *model.Consent,
	status model.Status,
	actionBy string,
	now int64,
) error {
	if status == "" || status == consent.CurrentStatus {
		ok, err := s.stores.Consent.BumpVersion(tx, consent.ConsentID, consent.Version, now)
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrConcurrentUpdate
		}
		return nil
	}

	ok, err := s.stores.Consent.UpdateStatusIfVersion(tx, consent.ConsentID, status, consent.Version, now)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrConcurrentUpdate
	}
	return s.stores.Consent.CreateStatusAudit(tx, newStatusAudit(consent.ConsentID, status, consent.CurrentStatus, now, "", actionBy))
}

// accountMappings flattens account permissions in a stable order.
func accountMappings(authID string, permissions map[string][]string) []model.AccountMapping {
	mappings := make([]model.AccountMapping, 0, len(permissions))
	for _, accountID := range slices.Sorted(maps.Keys(permissions)) {
		for _, permission := range permissions[accountID] {
			mappings = append(mappings, model.AccountMapping{
				MappingID:     utils.GenerateUUID(),
				AuthID:        authID,
				AccountID:     accountID,
				Permission:    permission,
				MappingStatus: model.MappingStatusActive,
			})
		}
	}
	return mappings
}

func newStatusAudit(consentID string, status, previous model.Status, now int64, reason, actionBy string) *model.ConsentStatusAudit {
	audit := &model.ConsentStatusAudit{
		StatusAuditID: utils.GenerateUUID(),
		ConsentID:     consentID,
		CurrentStatus: status,
		ActionTime:    now,
	}
	if previous != "" {
		prev := string(previous)
		audit.PreviousStatus = &prev
	}
	if reason != "" {
		audit.Reason = &reason
	}
	if actionBy != "" {
		audit.ActionBy = &actionBy
	}
	return audit
}
