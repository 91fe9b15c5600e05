package authorisation

import (
	"context"

	"github.com/stretchr/testify/mock"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
)

type mockConsentCore struct {
	mock.Mock
}

var _ ConsentCore = (*mockConsentCore)(nil)

func (m *mockConsentCore) GetConsent(ctx context.Context, consentID string) (*consentmodel.Consent, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consentmodel.Consent), args.Error(1)
}

func (m *mockConsentCore) GetAuthorization(ctx context.Context, authID string) (*authmodel.AuthResource, error) {
	args := m.Called(ctx, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authmodel.AuthResource), args.Error(1)
}

func (m *mockConsentCore) SearchAuthorizations(ctx context.Context, consentID string) ([]authmodel.AuthResource, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]authmodel.AuthResource), args.Error(1)
}

func (m *mockConsentCore) SearchRecurringConsents(
	ctx context.Context,
	clientID string,
	consentType consentmodel.ConsentType,
	status consentmodel.Status,
) ([]consentmodel.Consent, error) {
	args := m.Called(ctx, clientID, consentType, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]consentmodel.Consent), args.Error(1)
}

func (m *mockConsentCore) UpdateAuthorizationStatus(
	ctx context.Context,
	authID string,
	status authmodel.ScaStatus,
	userID *string,
) error {
	return m.Called(ctx, authID, status, userID).Error(0)
}

func (m *mockConsentCore) UpdateConsentStatus(
	ctx context.Context,
	consent *consentmodel.Consent,
	status consentmodel.Status,
	reason string,
) error {
	return m.Called(ctx, consent, status, reason).Error(0)
}

func (m *mockConsentCore) BindAccountPermissions(ctx context.Context, binding consentmodel.AccountBinding) error {
	return m.Called(ctx, binding).Error(0)
}
