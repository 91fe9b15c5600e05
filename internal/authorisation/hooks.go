package authorisation

import (
	"errors"
	"fmt"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
)

// ErrUnresolvedStatus is returned when no consent status exists for an authorisation outcome.
var ErrUnresolvedStatus = errors.New("no consent status for authorisation outcome")

// StateChangeHook maps an authorisation outcome to the consent's next status. current is the
// auth resource being acted on, as stored before this update.
type StateChangeHook interface {
	OnAuthorisationStateChange(
		consentID string,
		authType authmodel.AuthType,
		aggregate AggregateStatus,
		current authmodel.AuthResource,
	) (consentmodel.Status, error)
}

// statusTable is a hook backed by a fixed (auth type, aggregate) lookup.
type statusTable map[authmodel.AuthType]map[AggregateStatus]consentmodel.Status

func (t statusTable) OnAuthorisationStateChange(
	consentID string,
	authType authmodel.AuthType,
	aggregate AggregateStatus,
	_ authmodel.AuthResource,
) (consentmodel.Status, error) {
	if status, ok := t[authType][aggregate]; ok {
		return status, nil
	}
	return "", fmt.Errorf("%w: consent %s, %s %s", ErrUnresolvedStatus, consentID, authType, aggregate)
}

var (
	accountsHook = statusTable{
		authmodel.AuthTypeAuthorisation: {
			AggregateFullyAuthorised:     consentmodel.StatusValid,
			AggregatePartiallyAuthorised: consentmodel.StatusPartiallyAuthorised,
			AggregateRejected:            consentmodel.StatusRejected,
		},
	}

	// A partially approved or rejected cancellation leaves the payment accepted.
	paymentsHook = statusTable{
		authmodel.AuthTypeAuthorisation: {
			AggregateFullyAuthorised:     consentmodel.TransactionStatusACCP,
			AggregatePartiallyAuthorised: consentmodel.TransactionStatusPATC,
			AggregateRejected:            consentmodel.TransactionStatusRJCT,
		},
		authmodel.AuthTypeCancellation: {
			AggregateFullyAuthorised:     consentmodel.TransactionStatusCANC,
			AggregatePartiallyAuthorised: consentmodel.TransactionStatusACCP,
			AggregateRejected:            consentmodel.TransactionStatusACCP,
		},
	}

	fundsConfirmationHook = statusTable{
		authmodel.AuthTypeAuthorisation: {
			AggregateFullyAuthorised:     consentmodel.StatusValid,
			AggregatePartiallyAuthorised: consentmodel.StatusPartiallyAuthorised,
			AggregateRejected:            consentmodel.StatusRejected,
		},
	}
)

// HookRegistry dispatches state changes by consent type. It is built once and read-only afterwards.
type HookRegistry struct {
	hooks map[consentmodel.ConsentType]StateChangeHook
}

// DefaultHooks returns the hook of every supported consent type.
func DefaultHooks() map[consentmodel.ConsentType]StateChangeHook {
	return map[consentmodel.ConsentType]StateChangeHook{
		consentmodel.ConsentTypeAccounts:          accountsHook,
		consentmodel.ConsentTypePayments:          paymentsHook,
		consentmodel.ConsentTypeBulkPayments:      paymentsHook,
		consentmodel.ConsentTypePeriodicPayments:  paymentsHook,
		consentmodel.ConsentTypeFundsConfirmation: fundsConfirmationHook,
	}
}

// NewHookRegistry copies hooks into a registry.
func NewHookRegistry(hooks map[consentmodel.ConsentType]StateChangeHook) *HookRegistry {
	r := &HookRegistry{hooks: make(map[consentmodel.ConsentType]StateChangeHook, len(hooks))}
	for t, h := range hooks {
		r.hooks[t] = h
	}
	return r
}

// Resolve finds the hook for the consent type and asks it for the next status of an
// aggregate over auth resources of current's type.
func (r *HookRegistry) Resolve(
	consent *consentmodel.Consent,
	current authmodel.AuthResource,
	aggregate AggregateStatus,
) (consentmodel.Status, error) {
	hook, ok := r.hooks[consent.ConsentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported consent type %q", ErrUnresolvedStatus, consent.ConsentType)
	}
	return hook.OnAuthorisationStateChange(consent.ConsentID, current.AuthType, aggregate, current)
}
