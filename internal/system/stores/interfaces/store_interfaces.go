package interfaces

import (
	"context"

	authResourceModel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentModel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
)

// ConsentStore defines the interface for consent data operations
type ConsentStore interface {
	GetByID(ctx context.Context, consentID string) (*consentModel.Consent, error)
	SearchRecurring(ctx context.Context, clientID string, consentType consentModel.ConsentType, status consentModel.Status) ([]consentModel.Consent, error)
	GetAccountMappingsByConsentID(ctx context.Context, consentID string) ([]consentModel.AccountMapping, error)
	GetStatusAuditByConsentID(ctx context.Context, consentID string) ([]consentModel.ConsentStatusAudit, error)
	Create(tx dbmodel.TxInterface, consent *consentModel.Consent) error
	UpdateStatus(tx dbmodel.TxInterface, consentID string, status consentModel.Status, updatedTime int64) error
	UpdateStatusIfVersion(tx dbmodel.TxInterface, consentID string, status consentModel.Status, version, updatedTime int64) (bool, error)
	BumpVersion(tx dbmodel.TxInterface, consentID string, version, updatedTime int64) (bool, error)
	CreateStatusAudit(tx dbmodel.TxInterface, audit *consentModel.ConsentStatusAudit) error
	CreateAccountMappings(tx dbmodel.TxInterface, mappings []consentModel.AccountMapping) error
	DeactivateAccountMappings(tx dbmodel.TxInterface, consentID string) error
}

// AuthResourceStore defines the interface for authorization resource data operations
type AuthResourceStore interface {
	GetByID(ctx context.Context, authID string) (*authResourceModel.AuthResource, error)
	GetByConsentID(ctx context.Context, consentID string) ([]authResourceModel.AuthResource, error)
	Create(tx dbmodel.TxInterface, authResource *authResourceModel.AuthResource) error
	UpdateStatus(tx dbmodel.TxInterface, authID string, status authResourceModel.ScaStatus, updatedTime int64) error
	UpdateStatusAndUser(tx dbmodel.TxInterface, authID string, status authResourceModel.ScaStatus, userID *string, updatedTime int64) error
}
