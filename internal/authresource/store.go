package authresource

import (
	"context"
	"fmt"

	"github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/database/provider"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores/interfaces"
)

// DBQuery objects for all auth resource operations
var (
	QueryCreateAuthResource = dbmodel.DBQuery{
		ID:    "CREATE_AUTH_RESOURCE",
		Query: "INSERT INTO CONSENT_AUTH_RESOURCE (AUTH_ID, CONSENT_ID, AUTH_TYPE, USER_ID, AUTH_STATUS, UPDATED_TIME) VALUES (?, ?, ?, ?, ?, ?)",
	}

	QueryGetAuthResourceByID = dbmodel.DBQuery{
		ID:    "GET_AUTH_RESOURCE_BY_ID",
		Query: "SELECT AUTH_ID, CONSENT_ID, AUTH_TYPE, USER_ID, AUTH_STATUS, UPDATED_TIME FROM CONSENT_AUTH_RESOURCE WHERE AUTH_ID = ?",
	}

	QueryGetAuthResourcesByConsentID = dbmodel.DBQuery{
		ID:    "GET_AUTH_RESOURCES_BY_CONSENT_ID",
		Query: "SELECT AUTH_ID, CONSENT_ID, AUTH_TYPE, USER_ID, AUTH_STATUS, UPDATED_TIME FROM CONSENT_AUTH_RESOURCE WHERE CONSENT_ID = ? ORDER BY UPDATED_TIME",
	}

	QueryUpdateAuthResourceStatus = dbmodel.DBQuery{
		ID:    "UPDATE_AUTH_RESOURCE_STATUS",
		Query: "UPDATE CONSENT_AUTH_RESOURCE SET AUTH_STATUS = ?, UPDATED_TIME = ? WHERE AUTH_ID = ?",
	}

	QueryUpdateAuthResourceStatusAndUser = dbmodel.DBQuery{
		ID:    "UPDATE_AUTH_RESOURCE_STATUS_AND_USER",
		Query: "UPDATE CONSENT_AUTH_RESOURCE SET AUTH_STATUS = ?, USER_ID = ?, UPDATED_TIME = ? WHERE AUTH_ID = ?",
	}
)

// store implements interfaces.AuthResourceStore on top of a DBClient
type store struct {
	dbClient provider.DBClientInterface
}

var _ interfaces.AuthResourceStore = (*store)(nil)

// NewStore creates a new auth resource store
func NewStore(dbClient provider.DBClientInterface) interfaces.AuthResourceStore {
	return &store{
		dbClient: dbClient,
	}
}

// Create creates a new auth resource
func (s *store) Create(tx dbmodel.TxInterface, authResource *model.AuthResource) error {
	_, err := tx.Execute(QueryCreateAuthResource,
		authResource.AuthID,
		authResource.ConsentID,
		string(authResource.AuthType),
		authResource.UserID,
		string(authResource.AuthStatus),
		authResource.UpdatedTime,
	)
	return err
}

// GetByID retrieves an auth resource by ID
func (s *store) GetByID(ctx context.Context, authID string) (*model.AuthResource, error) {
	results, err := s.dbClient.Query(ctx, QueryGetAuthResourceByID, authID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrAuthResourceNotFound, authID)
	}
	return mapToAuthResource(results[0]), nil
}

// GetByConsentID retrieves all auth resources for a consent
func (s *store) GetByConsentID(ctx context.Context, consentID string) ([]model.AuthResource, error) {
	results, err := s.dbClient.Query(ctx, QueryGetAuthResourcesByConsentID, consentID)
	if err != nil {
		return nil, err
	}

	authResources := make([]model.AuthResource, 0, len(results))
	for _, row := range results {
		authResources = append(authResources, *mapToAuthResource(row))
	}
	return authResources, nil
}

// UpdateStatus updates only the status of an auth resource
func (s *store) UpdateStatus(tx dbmodel.TxInterface, authID string, status model.ScaStatus, updatedTime int64) error {
	return expectOneRow(tx.Execute(QueryUpdateAuthResourceStatus, string(status), updatedTime, authID))
}

// UpdateStatusAndUser records the PSU that acted on the auth resource along with the new status
func (s *store) UpdateStatusAndUser(tx dbmodel.TxInterface, authID string, status model.ScaStatus, userID *string, updatedTime int64) error {
	return expectOneRow(tx.Execute(QueryUpdateAuthResourceStatusAndUser, string(status), userID, updatedTime, authID))
}

func expectOneRow(affected int64, err error) error {
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrAuthResourceNotFound
	}
	return nil
}

// mapToAuthResource converts a database row to AuthResource
func mapToAuthResource(row dbmodel.Row) *model.AuthResource {
	return &model.AuthResource{
		AuthID:      row.String("AUTH_ID"),
		ConsentID:   row.String("CONSENT_ID"),
		AuthType:    model.AuthType(row.String("AUTH_TYPE")),
		UserID:      row.NullableString("USER_ID"),
		AuthStatus:  model.ScaStatus(row.String("AUTH_STATUS")),
		UpdatedTime: row.Int64("UPDATED_TIME"),
	}
}
