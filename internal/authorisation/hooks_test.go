package authorisation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
)

func TestDefaultHooks(t *testing.T) {
	type row struct {
		consentType consentmodel.ConsentType
		authType    authmodel.AuthType
		aggregate   AggregateStatus
		want        consentmodel.Status
	}

	var tests []row
	for _, ct := range []consentmodel.ConsentType{consentmodel.ConsentTypeAccounts, consentmodel.ConsentTypeFundsConfirmation} {
		tests = append(tests,
			row{ct, authmodel.AuthTypeAuthorisation, AggregateFullyAuthorised, consentmodel.StatusValid},
			row{ct, authmodel.AuthTypeAuthorisation, AggregatePartiallyAuthorised, consentmodel.StatusPartiallyAuthorised},
			row{ct, authmodel.AuthTypeAuthorisation, AggregateRejected, consentmodel.StatusRejected},
		)
	}
	for _, ct := range []consentmodel.ConsentType{
		consentmodel.ConsentTypePayments,
		consentmodel.ConsentTypeBulkPayments,
		consentmodel.ConsentTypePeriodicPayments,
	} {
		tests = append(tests,
			row{ct, authmodel.AuthTypeAuthorisation, AggregateFullyAuthorised, consentmodel.TransactionStatusACCP},
			row{ct, authmodel.AuthTypeAuthorisation, AggregatePartiallyAuthorised, consentmodel.TransactionStatusPATC},
			row{ct, authmodel.AuthTypeAuthorisation, AggregateRejected, consentmodel.TransactionStatusRJCT},
			row{ct, authmodel.AuthTypeCancellation, AggregateFullyAuthorised, consentmodel.TransactionStatusCANC},
			row{ct, authmodel.AuthTypeCancellation, AggregatePartiallyAuthorised, consentmodel.TransactionStatusACCP},
			row{ct, authmodel.AuthTypeCancellation, AggregateRejected, consentmodel.TransactionStatusACCP},
		)
	}

	registry := NewHookRegistry(DefaultHooks())
	for _, tt := range tests {
		t.Run(string(tt.consentType)+"/"+string(tt.authType)+"/"+string(tt.aggregate), func(t *testing.T) {
			consent := &consentmodel.Consent{ConsentID: "c-1", ConsentType: tt.consentType}
			got, err := registry.Resolve(consent, authmodel.AuthResource{AuthType: tt.authType}, tt.aggregate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnresolved(t *testing.T) {
	registry := NewHookRegistry(DefaultHooks())

	tests := []struct {
		name        string
		consentType consentmodel.ConsentType
		authType    authmodel.AuthType
		aggregate   AggregateStatus
	}{
		{"accounts cancellation", consentmodel.ConsentTypeAccounts, authmodel.AuthTypeCancellation, AggregateFullyAuthorised},
		{"funds cancellation", consentmodel.ConsentTypeFundsConfirmation, authmodel.AuthTypeCancellation, AggregateRejected},
		{"payments none", consentmodel.ConsentTypePayments, authmodel.AuthTypeAuthorisation, AggregateNone},
		{"unknown consent type", consentmodel.ConsentType("loans"), authmodel.AuthTypeAuthorisation, AggregateFullyAuthorised},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Resolve(&consentmodel.Consent{ConsentID: "c-1", ConsentType: tt.consentType},
				authmodel.AuthResource{AuthType: tt.authType}, tt.aggregate)
			assert.ErrorIs(t, err, ErrUnresolvedStatus)
		})
	}
}

func TestHookRegistryCopiesInput(t *testing.T) {
	hooks := map[consentmodel.ConsentType]StateChangeHook{consentmodel.ConsentTypeAccounts: accountsHook}
	registry := NewHookRegistry(hooks)
	delete(hooks, consentmodel.ConsentTypeAccounts)

	got, err := registry.Resolve(&consentmodel.Consent{ConsentType: consentmodel.ConsentTypeAccounts},
		authmodel.AuthResource{AuthType: authmodel.AuthTypeAuthorisation}, AggregateFullyAuthorised)
	require.NoError(t, err)
	assert.Equal(t, consentmodel.StatusValid, got)
}

type recordingHook struct {
	got authmodel.AuthResource
}

func (h *recordingHook) OnAuthorisationStateChange(
	_ string,
	_ authmodel.AuthType,
	_ AggregateStatus,
	current authmodel.AuthResource,
) (consentmodel.Status, error) {
	h.got = current
	return consentmodel.StatusValid, nil
}

func TestResolvePassesCurrentAuthResource(t *testing.T) {
	hook := &recordingHook{}
	registry := NewHookRegistry(map[consentmodel.ConsentType]StateChangeHook{consentmodel.ConsentTypeAccounts: hook})
	current := authmodel.AuthResource{
		AuthID:     "a-1",
		ConsentID:  "c-1",
		AuthType:   authmodel.AuthTypeAuthorisation,
		AuthStatus: authmodel.ScaStatusReceived,
	}

	_, err := registry.Resolve(&consentmodel.Consent{ConsentID: "c-1", ConsentType: consentmodel.ConsentTypeAccounts},
		current, AggregateFullyAuthorised)
	require.NoError(t, err)
	assert.Equal(t, current, hook.got)
}
