package consent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	"github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/sca"
	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/metrics"
)

const validConsentID = "6f1c7e2a-1d3b-4c5e-9f80-2a4b6c8d0e1f"

var testSCAConfig = config.SCAConfig{
	Required: true,
	SupportedApproaches: []config.ScaApproachConfig{
		{Name: config.ScaApproachRedirect, Default: true},
		{Name: config.ScaApproachDecoupled},
	},
	SupportedMethods: []config.ScaMethodConfig{
		{Type: "SMS_OTP", Identifier: "sms-otp", Name: "SMS", MappedApproach: config.ScaApproachRedirect},
		{Type: "PUSH_OTP", Identifier: "push-otp", Name: "Push", MappedApproach: config.ScaApproachDecoupled},
	},
	OAuthMetadataEndpoint: "https://bank.example/.well-known/openid-configuration",
}

func newTestService(t *testing.T, scaCfg config.SCAConfig) (ConsentService, *mockRegistry) {
	t.Helper()
	m := newMockRegistry(t)
	core := NewCoreService(m.registry, fixedClock)
	svc := newConsentService(m.registry, core, sca.NewResolver(scaCfg), scaCfg.OAuthMetadataEndpoint, metrics.NewNoop(), fixedClock)
	return svc, m
}

func boolPtr(v bool) *bool { return &v }

func TestInitiateAccountsConsentImplicit(t *testing.T) {
	svc, m := newTestService(t, testSCAConfig)

	m.expectCommit()
	m.consents.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Consent) bool {
		return c.ClientID == "tpp-1" &&
			c.ConsentType == model.ConsentTypeAccounts &&
			c.CurrentStatus == model.StatusReceived &&
			c.RecurringIndicator &&
			c.ConsentFrequency == 4 &&
			c.ValidityTime > testNow.UnixMilli() &&
			c.CreatedTime == testNow.UnixMilli()
	})).Return(nil)
	m.consents.On("CreateStatusAudit", mock.Anything, mock.MatchedBy(func(a *model.ConsentStatusAudit) bool {
		return a.CurrentStatus == model.StatusReceived && a.PreviousStatus == nil
	})).Return(nil)
	m.auths.On("Create", mock.Anything, mock.MatchedBy(func(a *authmodel.AuthResource) bool {
		return a.AuthType == authmodel.AuthTypeAuthorisation &&
			a.AuthStatus == authmodel.ScaStatusReceived &&
			a.UserID != nil && *a.UserID == "psu-1"
	})).Return(nil)

	resp, svcErr := svc.InitiateConsent(context.Background(), &model.InitiationRequest{
		ConsentType:       model.ConsentTypeAccounts,
		ClientID:          "tpp-1",
		PSUID:             "psu-1",
		Payload:           []byte(`{"access":{"balances":[]},"recurringIndicator":true,"validUntil":"2026-12-31","frequencyPerDay":4}`),
		RedirectPreferred: boolPtr(true),
		BasePath:          "/v1/consents",
	})
	require.Nil(t, svcErr)

	assert.NotEmpty(t, resp.ConsentID)
	assert.Empty(t, resp.PaymentID)
	assert.Equal(t, model.StatusReceived, resp.ConsentStatus)
	assert.Equal(t, "REDIRECT", resp.ScaApproach)
	require.NotNil(t, resp.ChosenScaMethod)
	assert.Equal(t, "sms-otp", resp.ChosenScaMethod.Identifier)
	assert.NotEmpty(t, resp.AuthorisationID)
	assert.Equal(t, "/v1/consents/"+resp.ConsentID, resp.Links[model.LinkSelf].Href)
	assert.Equal(t, "/v1/consents/"+resp.ConsentID+"/authorisations/"+resp.AuthorisationID, resp.Links[model.LinkScaStatus].Href)
	assert.Equal(t, testSCAConfig.OAuthMetadataEndpoint, resp.Links[model.LinkScaOAuth].Href)
	m.assertExpectations(t)
}

func TestInitiatePeriodicPaymentExplicit(t *testing.T) {
	svc, m := newTestService(t, testSCAConfig)

	m.expectCommit()
	m.consents.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Consent) bool {
		return c.CurrentStatus == model.TransactionStatusRCVD && c.RecurringIndicator && c.ValidityTime == 0
	})).Return(nil)
	m.consents.On("CreateStatusAudit", mock.Anything, mock.Anything).Return(nil)

	resp, svcErr := svc.InitiateConsent(context.Background(), &model.InitiationRequest{
		ConsentType:           model.ConsentTypePeriodicPayments,
		PaymentProduct:        "sepa-credit-transfers",
		ClientID:              "tpp-1",
		Payload:               []byte(`{"instructedAmount":{"currency":"EUR","amount":"12.00"}}`),
		ExplicitAuthorisation: true,
		BasePath:              "/v1/periodic-payments/sepa-credit-transfers",
	})
	require.Nil(t, svcErr)

	assert.NotEmpty(t, resp.PaymentID)
	assert.Equal(t, model.TransactionStatusRCVD, resp.TransactionStatus)
	assert.Empty(t, resp.AuthorisationID)
	assert.Empty(t, resp.ScaApproach)
	assert.Len(t, resp.ScaMethods, 2)
	assert.Equal(t, "/v1/periodic-payments/sepa-credit-transfers/"+resp.PaymentID+"/authorisations",
		resp.Links[model.LinkStartAuthWithMethodSelection].Href)
	m.auths.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestInitiateRejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `{"access":`},
		{name: "array", payload: `[1,2]`},
		{name: "bad validUntil", payload: `{"validUntil":"31.12.2026"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t, testSCAConfig)

			_, svcErr := svc.InitiateConsent(context.Background(), &model.InitiationRequest{
				ConsentType: model.ConsentTypeAccounts,
				ClientID:    "tpp-1",
				Payload:     []byte(tt.payload),
			})
			require.NotNil(t, svcErr)
			assert.True(t, svcErr.Matches(serviceerror.FormatError))
			m.assertExpectations(t)
		})
	}
}

func TestInitiateScaMisconfigured(t *testing.T) {
	cfg := config.SCAConfig{
		Required:            true,
		SupportedApproaches: []config.ScaApproachConfig{{Name: config.ScaApproachDecoupled, Default: true}},
		SupportedMethods:    []config.ScaMethodConfig{{Identifier: "push-otp", MappedApproach: config.ScaApproachDecoupled}},
	}
	svc, m := newTestService(t, cfg)

	_, svcErr := svc.InitiateConsent(context.Background(), &model.InitiationRequest{
		ConsentType:       model.ConsentTypePayments,
		ClientID:          "tpp-1",
		Payload:           []byte(`{}`),
		RedirectPreferred: boolPtr(true),
	})
	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Matches(serviceerror.ScaMisconfiguredError))
	m.assertExpectations(t)
}

func TestGetConsentStatusExpiresOnRead(t *testing.T) {
	svc, m := newTestService(t, testSCAConfig)
	stored := &model.Consent{
		ConsentID:     validConsentID,
		ClientID:      "tpp-1",
		ConsentType:   model.ConsentTypeAccounts,
		CurrentStatus: model.StatusValid,
		ValidityTime:  testNow.Add(-1).UnixMilli(),
	}

	m.consents.On("GetByID", mock.Anything, validConsentID).Return(stored, nil)
	m.expectCommit()
	m.consents.On("UpdateStatus", mock.Anything, validConsentID, model.StatusExpired, testNow.UnixMilli()).Return(nil)
	m.consents.On("CreateStatusAudit", mock.Anything, mock.Anything).Return(nil)

	resp, svcErr := svc.GetConsentStatus(context.Background(), model.ConsentTypeAccounts, validConsentID, "tpp-1")
	require.Nil(t, svcErr)
	assert.Equal(t, model.StatusExpired, resp.ConsentStatus)
	m.assertExpectations(t)
}

func TestGetConsentStatusLeavesPaymentsAlone(t *testing.T) {
	svc, m := newTestService(t, testSCAConfig)
	m.consents.On("GetByID", mock.Anything, validConsentID).Return(&model.Consent{
		ConsentID:     validConsentID,
		ClientID:      "tpp-1",
		ConsentType:   model.ConsentTypePayments,
		CurrentStatus: model.TransactionStatusACCP,
		ValidityTime:  1,
	}, nil)

	resp, svcErr := svc.GetConsentStatus(context.Background(), model.ConsentTypePayments, validConsentID, "tpp-1")
	require.Nil(t, svcErr)
	assert.Equal(t, model.TransactionStatusACCP, resp.TransactionStatus)
	assert.Empty(t, resp.ConsentStatus)
	m.assertExpectations(t)
}

func TestGetConsentOwnership(t *testing.T) {
	stored := &model.Consent{
		ConsentID:     validConsentID,
		ClientID:      "tpp-1",
		ConsentType:   model.ConsentTypeAccounts,
		CurrentStatus: model.StatusReceived,
		Receipt:       `{"access":{"allPsd2":"allAccounts"}}`,
	}

	tests := []struct {
		name        string
		consentType model.ConsentType
		clientID    string
		want        serviceerror.ServiceError
	}{
		{name: "other client", consentType: model.ConsentTypeAccounts, clientID: "tpp-2", want: serviceerror.UnauthorizedClientError},
		{name: "other type", consentType: model.ConsentTypeFundsConfirmation, clientID: "tpp-1", want: serviceerror.ResourceNotFoundError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t, testSCAConfig)
			m.consents.On("GetByID", mock.Anything, validConsentID).Return(stored, nil)

			_, svcErr := svc.GetConsent(context.Background(), tt.consentType, validConsentID, tt.clientID)
			require.NotNil(t, svcErr)
			assert.True(t, svcErr.Matches(tt.want))
		})
	}

	t.Run("owner reads receipt with status", func(t *testing.T) {
		svc, m := newTestService(t, testSCAConfig)
		m.consents.On("GetByID", mock.Anything, validConsentID).Return(stored, nil)

		body, svcErr := svc.GetConsent(context.Background(), model.ConsentTypeAccounts, validConsentID, "tpp-1")
		require.Nil(t, svcErr)
		assert.Equal(t, model.StatusReceived, body["consentStatus"])
		assert.Equal(t, map[string]interface{}{"allPsd2": "allAccounts"}, body["access"])
	})

	t.Run("unknown consent", func(t *testing.T) {
		svc, m := newTestService(t, testSCAConfig)
		m.consents.On("GetByID", mock.Anything, validConsentID).Return(nil, model.ErrConsentNotFound)

		_, svcErr := svc.GetConsent(context.Background(), model.ConsentTypeAccounts, validConsentID, "tpp-1")
		require.NotNil(t, svcErr)
		assert.True(t, svcErr.Matches(serviceerror.ResourceNotFoundError))
	})
}

func TestValidateConsent(t *testing.T) {
	tests := []struct {
		name       string
		consent    model.Consent
		clientID   string
		expectUse  bool
		wantErr    *serviceerror.ServiceError
		wantStatus model.Status
	}{
		{
			name:       "valid recurring stays valid",
			consent:    model.Consent{ConsentType: model.ConsentTypeAccounts, CurrentStatus: model.StatusValid, RecurringIndicator: true},
			clientID:   "tpp-1",
			wantStatus: model.StatusValid,
		},
		{
			name:       "valid one-off is used up",
			consent:    model.Consent{ConsentType: model.ConsentTypeAccounts, CurrentStatus: model.StatusValid},
			clientID:   "tpp-1",
			expectUse:  true,
			wantStatus: model.StatusValid,
		},
		{
			name:     "already expired",
			consent:  model.Consent{ConsentType: model.ConsentTypeAccounts, CurrentStatus: model.StatusExpired},
			clientID: "tpp-1",
			wantErr:  &serviceerror.ConsentExpiredError,
		},
		{
			name:     "not yet authorised",
			consent:  model.Consent{ConsentType: model.ConsentTypeFundsConfirmation, CurrentStatus: model.StatusPartiallyAuthorised, RecurringIndicator: true},
			clientID: "tpp-1",
			wantErr:  &serviceerror.ConsentInvalidError,
		},
		{
			name:     "payment consent",
			consent:  model.Consent{ConsentType: model.ConsentTypePayments, CurrentStatus: model.TransactionStatusACCP},
			clientID: "tpp-1",
			wantErr:  &serviceerror.InvalidRequestError,
		},
		{
			name:     "other client",
			consent:  model.Consent{ConsentType: model.ConsentTypeAccounts, CurrentStatus: model.StatusValid},
			clientID: "tpp-2",
			wantErr:  &serviceerror.UnauthorizedClientError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t, testSCAConfig)
			stored := tt.consent
			stored.ConsentID = validConsentID
			stored.ClientID = "tpp-1"
			stored.Version = 4
			m.consents.On("GetByID", mock.Anything, validConsentID).Return(&stored, nil)
			if tt.expectUse {
				m.expectCommit()
				m.consents.On("UpdateStatusIfVersion", mock.Anything, validConsentID, model.StatusExpired, int64(4), mock.Anything).
					Return(true, nil)
				m.consents.On("CreateStatusAudit", mock.Anything, mock.MatchedBy(func(a *model.ConsentStatusAudit) bool {
					return *a.Reason == reasonOneOffUsed
				})).Return(nil)
			}

			resp, svcErr := svc.ValidateConsent(context.Background(), validConsentID, tt.clientID)
			if tt.wantErr != nil {
				require.NotNil(t, svcErr)
				assert.True(t, svcErr.Matches(*tt.wantErr), "got %s", svcErr.Code)
				return
			}
			require.Nil(t, svcErr)
			assert.True(t, resp.IsValid)
			assert.Equal(t, tt.wantStatus, resp.ConsentStatus)
			m.assertExpectations(t)
		})
	}
}

func TestValidateConsentOneOffUsedConcurrently(t *testing.T) {
	svc, m := newTestService(t, testSCAConfig)
	m.consents.On("GetByID", mock.Anything, validConsentID).Return(&model.Consent{
		ConsentID:     validConsentID,
		ClientID:      "tpp-1",
		ConsentType:   model.ConsentTypeAccounts,
		CurrentStatus: model.StatusValid,
		Version:       4,
	}, nil)
	m.expectRollback()
	m.consents.On("UpdateStatusIfVersion", mock.Anything, validConsentID, model.StatusExpired, int64(4), mock.Anything).
		Return(false, nil)

	resp, svcErr := svc.ValidateConsent(context.Background(), validConsentID, "tpp-1")

	assert.Nil(t, resp)
	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Matches(serviceerror.ConsentInvalidError), "got %s", svcErr.Code)
	m.consents.AssertNotCalled(t, "CreateStatusAudit", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestValidateConsentExpiredByTime(t *testing.T) {
	svc, m := newTestService(t, testSCAConfig)
	m.consents.On("GetByID", mock.Anything, validConsentID).Return(&model.Consent{
		ConsentID:          validConsentID,
		ClientID:           "tpp-1",
		ConsentType:        model.ConsentTypeAccounts,
		CurrentStatus:      model.StatusValid,
		RecurringIndicator: true,
		ValidityTime:       testNow.Add(-1).UnixMilli(),
	}, nil)
	m.expectCommit()
	m.consents.On("UpdateStatus", mock.Anything, validConsentID, model.StatusExpired, mock.Anything).Return(nil)
	m.consents.On("CreateStatusAudit", mock.Anything, mock.Anything).Return(nil)

	_, svcErr := svc.ValidateConsent(context.Background(), validConsentID, "tpp-1")
	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Matches(serviceerror.ConsentExpiredError))
	m.assertExpectations(t)
}
