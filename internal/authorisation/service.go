package authorisation

import (
	"context"
	"errors"
	"fmt"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/metrics"
)

// ConsentCore is the consent store surface the authorisation flow needs.
type ConsentCore interface {
	GetConsent(ctx context.Context, consentID string) (*consentmodel.Consent, error)
	GetAuthorization(ctx context.Context, authID string) (*authmodel.AuthResource, error)
	SearchAuthorizations(ctx context.Context, consentID string) ([]authmodel.AuthResource, error)
	SearchRecurringConsents(
		ctx context.Context,
		clientID string,
		consentType consentmodel.ConsentType,
		status consentmodel.Status,
	) ([]consentmodel.Consent, error)
	UpdateAuthorizationStatus(ctx context.Context, authID string, status authmodel.ScaStatus, userID *string) error
	UpdateConsentStatus(ctx context.Context, consent *consentmodel.Consent, status consentmodel.Status, reason string) error
	BindAccountPermissions(ctx context.Context, binding consentmodel.AccountBinding) error
}

// Service persists PSU authorisation outcomes.
type Service struct {
	core                      ConsentCore
	hooks                     *HookRegistry
	multipleRecurringConsents bool
	metrics                   *metrics.Metrics
	logger                    *log.Logger
}

// NewService creates the authorisation service.
func NewService(core ConsentCore, hooks *HookRegistry, consentCfg config.ConsentConfig, m *metrics.Metrics) *Service {
	return &Service{
		core:                      core,
		hooks:                     hooks,
		multipleRecurringConsents: consentCfg.MultipleRecurringConsentEnabled,
		metrics:                   m,
		logger:                    log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthorisationService")),
	}
}

// PersistAuthorisation records authStatus on authID and, once the auth resource is
// finished, folds its group into a consent status change committed with the account
// permissions in a single transaction.
func (s *Service) PersistAuthorisation(
	ctx context.Context,
	consent *consentmodel.Consent,
	accountPermissions map[string][]string,
	authID, userID string,
	authStatus authmodel.ScaStatus,
) *serviceerror.ServiceError {
	logger := s.logger.WithContext(ctx).With(
		log.String("consent_id", consent.ConsentID),
		log.String("auth_id", authID),
	)

	if !authStatus.IsValid() {
		return serviceerror.CustomServiceError(serviceerror.ValidationError, fmt.Sprintf("unknown SCA status %q", authStatus))
	}

	authResource, err := s.core.GetAuthorization(ctx, authID)
	if err != nil {
		return s.storeError(logger, err, "failed to retrieve authorisation")
	}
	if authResource.ConsentID != consent.ConsentID {
		logger.Error("Authorisation does not belong to the consent", log.String("auth_consent_id", authResource.ConsentID))
		return serviceerror.CustomServiceError(serviceerror.InconsistentStateError,
			"authorisation does not belong to the consent")
	}
	if !authResource.AuthStatus.IsPending() {
		return serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("authorisation is already %s", authResource.AuthStatus))
	}
	if consent.CurrentStatus.IsTerminal() {
		return serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("consent is already %s", consent.CurrentStatus))
	}

	var userPtr *string
	if userID != "" {
		userPtr = &userID
	}

	siblings, err := s.core.SearchAuthorizations(ctx, consent.ConsentID)
	if err != nil {
		return s.storeError(logger, err, "failed to retrieve authorisations")
	}
	group := FilterByType(withStatus(siblings, authID, authStatus), authResource.AuthType)
	aggregate := Aggregate(group)
	s.metrics.IncrementAggregate(string(consent.ConsentType), string(authResource.AuthType), string(aggregate))

	if aggregate == AggregateNone {
		if err := s.core.UpdateAuthorizationStatus(ctx, authID, authStatus, userPtr); err != nil {
			return s.storeError(logger, err, "failed to update authorisation")
		}
		logger.Debug("Authorisation progressed", log.String("sca_status", string(authStatus)))
		return nil
	}

	newStatus, err := s.hooks.Resolve(consent, *authResource, aggregate)
	if err != nil {
		logger.Error("Unable to resolve consent status", log.Error(err))
		return serviceerror.CustomServiceError(serviceerror.InconsistentStateError, err.Error())
	}

	binding := consentmodel.AccountBinding{
		Consent:            consent,
		UserID:             userID,
		AuthID:             authID,
		AccountPermissions: accountPermissions,
		AuthStatus:         authStatus,
		NewConsentStatus:   newStatus,
	}
	if s.expiresOtherRecurringConsents(consent, newStatus) {
		expired, svcErr := s.supersededRecurringConsents(ctx, consent, userID)
		if svcErr != nil {
			return svcErr
		}
		binding.ExpireConsentIDs = expired
	}

	if err := s.core.BindAccountPermissions(ctx, binding); err != nil {
		if errors.Is(err, consentmodel.ErrConcurrentUpdate) {
			logger.Warn("Consent changed while persisting authorisation", log.Int64("version", consent.Version))
			return serviceerror.CustomServiceError(serviceerror.ConflictError, "consent was modified concurrently, retry")
		}
		return s.storeError(logger, err, "failed to persist authorisation")
	}

	if newStatus != consent.CurrentStatus {
		s.metrics.IncrementStatusTransition(string(consent.ConsentType), string(newStatus))
	}
	for range binding.ExpireConsentIDs {
		s.metrics.IncrementStatusTransition(string(consent.ConsentType), string(consentmodel.StatusExpired))
	}

	logger.Info("Authorisation persisted",
		log.String("auth_type", string(authResource.AuthType)),
		log.String("sca_status", string(authStatus)),
		log.String("aggregate", string(aggregate)),
		log.String("consent_status", string(newStatus)),
	)
	return nil
}

// AreAllOtherAuthResourcesValid reports whether every other auth resource of authType
// on the consent is already psuAuthenticated. It holds trivially when there are none.
func (s *Service) AreAllOtherAuthResourcesValid(
	ctx context.Context,
	consentID string,
	authType authmodel.AuthType,
	currentAuthID string,
) (bool, *serviceerror.ServiceError) {
	resources, err := s.core.SearchAuthorizations(ctx, consentID)
	if err != nil {
		return false, s.storeError(s.logger.WithContext(ctx), err, "failed to retrieve authorisations")
	}
	for _, r := range FilterByType(resources, authType) {
		if r.AuthID == currentAuthID {
			continue
		}
		if r.AuthStatus != authmodel.ScaStatusPsuAuthenticated {
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) storeError(logger *log.Logger, err error, description string) *serviceerror.ServiceError {
	if errors.Is(err, consentmodel.ErrConsentNotFound) || errors.Is(err, authmodel.ErrAuthResourceNotFound) {
		return serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, err.Error())
	}
	logger.Error("Consent store call failed", log.Error(err))
	return serviceerror.CustomServiceError(serviceerror.DatabaseError, description)
}

// GetConsent loads the consent an authorisation callback refers to.
func (s *Service) GetConsent(ctx context.Context, consentID string) (*consentmodel.Consent, *serviceerror.ServiceError) {
	consent, err := s.core.GetConsent(ctx, consentID)
	if err != nil {
		return nil, s.storeError(s.logger.WithContext(ctx), err, "failed to retrieve consent")
	}
	return consent, nil
}
