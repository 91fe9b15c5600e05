// Package mocks provides testify mocks of the store interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores/interfaces"
)

// MockConsentStore is a mock implementation of interfaces.ConsentStore
type MockConsentStore struct {
	mock.Mock
}

var _ interfaces.ConsentStore = (*MockConsentStore)(nil)

func (m *MockConsentStore) GetByID(ctx context.Context, consentID string) (*consentmodel.Consent, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consentmodel.Consent), args.Error(1)
}

func (m *MockConsentStore) SearchRecurring(
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

func (m *MockConsentStore) GetAccountMappingsByConsentID(ctx context.Context, consentID string) ([]consentmodel.AccountMapping, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]consentmodel.AccountMapping), args.Error(1)
}

func (m *MockConsentStore) GetStatusAuditByConsentID(ctx context.Context, consentID string) ([]consentmodel.ConsentStatusAudit, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]consentmodel.ConsentStatusAudit), args.Error(1)
}

func (m *MockConsentStore) Create(tx dbmodel.TxInterface, consent *consentmodel.Consent) error {
	return m.Called(tx, consent).Error(0)
}

func (m *MockConsentStore) UpdateStatus(tx dbmodel.TxInterface, consentID string, status consentmodel.Status, updatedTime int64) error {
	return m.Called(tx, consentID, status, updatedTime).Error(0)
}

func (m *MockConsentStore) UpdateStatusIfVersion(
	tx dbmodel.TxInterface,
	consentID string,
	status consentmodel.Status,
	version, updatedTime int64,
) (bool, error) {
	args := m.Called(tx, consentID, status, version, updatedTime)
	return args.Bool(0), args.Error(1)
}

func (m *MockConsentStore) BumpVersion(tx dbmodel.TxInterface, consentID string, version, updatedTime int64) (bool, error) {
	args := m.Called(tx, consentID, version, updatedTime)
	return args.Bool(0), args.Error(1)
}

func (m *MockConsentStore) CreateStatusAudit(tx dbmodel.TxInterface, audit *consentmodel.ConsentStatusAudit) error {
	return m.Called(tx, audit).Error(0)
}

func (m *MockConsentStore) CreateAccountMappings(tx dbmodel.TxInterface, mappings []consentmodel.AccountMapping) error {
	return m.Called(tx, mappings).Error(0)
}

func (m *MockConsentStore) DeactivateAccountMappings(tx dbmodel.TxInterface, consentID string) error {
	return m.Called(tx, consentID).Error(0)
}

// MockAuthResourceStore is a mock implementation of interfaces.AuthResourceStore
type MockAuthResourceStore struct {
	mock.Mock
}

var _ interfaces.AuthResourceStore = (*MockAuthResourceStore)(nil)

func (m *MockAuthResourceStore) GetByID(ctx context.Context, authID string) (*authmodel.AuthResource, error) {
	args := m.Called(ctx, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authmodel.AuthResource), args.Error(1)
}

func (m *MockAuthResourceStore) GetByConsentID(ctx context.Context, consentID string) ([]authmodel.AuthResource, error) {
	args := m.Called(ctx, consentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]authmodel.AuthResource), args.Error(1)
}

func (m *MockAuthResourceStore) Create(tx dbmodel.TxInterface, authResource *authmodel.AuthResource) error {
	return m.Called(tx, authResource).Error(0)
}

func (m *MockAuthResourceStore) UpdateStatus(tx dbmodel.TxInterface, authID string, status authmodel.ScaStatus, updatedTime int64) error {
	return m.Called(tx, authID, status, updatedTime).Error(0)
}

func (m *MockAuthResourceStore) UpdateStatusAndUser(
	tx dbmodel.TxInterface,
	authID string,
	status authmodel.ScaStatus,
	userID *string,
	updatedTime int64,
) error {
	return m.Called(tx, authID, status, userID, updatedTime).Error(0)
}
