package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	"github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/sca"
	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/metrics"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

// Audit reasons
const (
	reasonInitiated       = "Consent initiated"
	reasonValidityElapsed = "Consent validity period elapsed"
	reasonOneOffUsed      = "One-off consent used"
)

// ConsentService defines the contract for consent lifecycle operations
type ConsentService interface {
	InitiateConsent(ctx context.Context, req *model.InitiationRequest) (*model.InitiationResponse, *serviceerror.ServiceError)
	GetConsent(ctx context.Context, consentType model.ConsentType, consentID, clientID string) (map[string]interface{}, *serviceerror.ServiceError)
	GetConsentStatus(ctx context.Context, consentType model.ConsentType, consentID, clientID string) (*model.StatusResponse, *serviceerror.ServiceError)
	ValidateConsent(ctx context.Context, consentID, clientID string) (*model.ValidationResponse, *serviceerror.ServiceError)
}

// consentService implements ConsentService
type consentService struct {
	stores        *stores.StoreRegistry
	core          *CoreService
	resolver      *sca.Resolver
	oauthMetadata string
	metrics       *metrics.Metrics
	clock         utils.Clock
	logger        *log.Logger
}

func newConsentService(
	registry *stores.StoreRegistry,
	core *CoreService,
	resolver *sca.Resolver,
	oauthMetadata string,
	m *metrics.Metrics,
	clock utils.Clock,
) ConsentService {
	if clock == nil {
		clock = utils.SystemClock
	}
	return &consentService{
		stores:        registry,
		core:          core,
		resolver:      resolver,
		oauthMetadata: oauthMetadata,
		metrics:       m,
		clock:         clock,
		logger:        log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ConsentService")),
	}
}

// accountsPayload holds the fields of an account access request the service stores in columns.
type accountsPayload struct {
	RecurringIndicator bool   `json:"recurringIndicator"`
	ValidUntil         string `json:"validUntil"`
	FrequencyPerDay    int    `json:"frequencyPerDay"`
}

// InitiateConsent stores a new consent and, unless the TPP asked for explicit
// authorisation, its first auth resource.
func (s *consentService) InitiateConsent(
	ctx context.Context,
	req *model.InitiationRequest,
) (*model.InitiationResponse, *serviceerror.ServiceError) {
	logger := s.logger.WithContext(ctx)

	if err := utils.ValidateClientID(req.ClientID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error())
	}

	now := s.clock()
	consent := &model.Consent{
		ConsentID:     utils.GenerateUUID(),
		Receipt:       string(req.Payload),
		CreatedTime:   utils.TimeToMillis(now),
		UpdatedTime:   utils.TimeToMillis(now),
		ClientID:      req.ClientID,
		ConsentType:   req.ConsentType,
		CurrentStatus: model.InitialStatus(req.ConsentType),
	}
	if err := applyPayload(consent, req.Payload); err != nil {
		return nil, err
	}

	res := s.resolver.Resolve(req.RedirectPreferred, s.resolver.ScaRequired())
	if res.Misconfigured() {
		logger.Error("SCA configuration cannot serve the request",
			log.String("consent_type", string(req.ConsentType)),
			log.Any("redirect_preferred", req.RedirectPreferred),
			log.Bool("sca_required", s.resolver.ScaRequired()),
		)
		return nil, &serviceerror.ScaMisconfiguredError
	}

	queries := []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return s.stores.Consent.Create(tx, consent)
		},
		func(tx dbmodel.TxInterface) error {
			return s.stores.Consent.CreateStatusAudit(tx,
				newStatusAudit(consent.ConsentID, consent.CurrentStatus, "", consent.CreatedTime, reasonInitiated, req.ClientID))
		},
	}

	var authResource *authmodel.AuthResource
	if !req.ExplicitAuthorisation {
		authResource = &authmodel.AuthResource{
			AuthID:      utils.GenerateUUID(),
			ConsentID:   consent.ConsentID,
			AuthType:    authmodel.AuthTypeAuthorisation,
			AuthStatus:  authmodel.ScaStatusReceived,
			UpdatedTime: consent.CreatedTime,
		}
		if req.PSUID != "" {
			psuID := req.PSUID
			authResource.UserID = &psuID
		}
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return s.stores.AuthResource.Create(tx, authResource)
		})
	}

	if err := s.stores.ExecuteTransaction(ctx, queries); err != nil {
		logger.Error("Failed to persist consent", log.Error(err), log.String("consent_type", string(req.ConsentType)))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to create consent")
	}
	s.metrics.IncrementConsentsInitiated(string(req.ConsentType))

	logger.Info("Consent initiated",
		log.String("consent_id", consent.ConsentID),
		log.String("consent_type", string(consent.ConsentType)),
		log.String("sca_approach", res.ApproachName()),
		log.Bool("explicit_authorisation", req.ExplicitAuthorisation),
	)

	return s.buildInitiationResponse(req, consent, authResource, res), nil
}

func (s *consentService) buildInitiationResponse(
	req *model.InitiationRequest,
	consent *model.Consent,
	authResource *authmodel.AuthResource,
	res sca.Result,
) *model.InitiationResponse {
	resp := &model.InitiationResponse{ScaApproach: res.ApproachName()}
	if consent.ConsentType.IsPayment() {
		resp.PaymentID = consent.ConsentID
		resp.TransactionStatus = consent.CurrentStatus
	} else {
		resp.ConsentID = consent.ConsentID
		resp.ConsentStatus = consent.CurrentStatus
	}

	if chosen := res.ChosenMethod(); chosen != nil {
		resp.ChosenScaMethod = chosen
	} else if len(res.Methods) > 0 {
		resp.ScaMethods = res.Methods
	}

	authID := ""
	if authResource != nil {
		authID = authResource.AuthID
		resp.AuthorisationID = authID
	}
	resp.Links = model.InitiationLinks(req.BasePath, consent.ConsentID, authID, req.ExplicitAuthorisation, res, s.oauthMetadata)
	return resp
}

// applyPayload checks the initiation payload and copies the stored columns out of it.
func applyPayload(consent *model.Consent, payload []byte) *serviceerror.ServiceError {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(payload, &object); err != nil {
		return serviceerror.CustomServiceError(serviceerror.FormatError, "request payload must be a JSON object")
	}

	switch consent.ConsentType {
	case model.ConsentTypeAccounts:
		var p accountsPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return serviceerror.CustomServiceError(serviceerror.FormatError, fmt.Sprintf("invalid account access payload: %v", err))
		}
		consent.RecurringIndicator = p.RecurringIndicator
		consent.ConsentFrequency = p.FrequencyPerDay
		if p.ValidUntil != "" {
			validity, err := utils.EndOfDayMillis(p.ValidUntil)
			if err != nil {
				return serviceerror.CustomServiceError(serviceerror.FormatError, "validUntil must be a date in YYYY-MM-DD format")
			}
			consent.ValidityTime = validity
		}
	case model.ConsentTypePeriodicPayments, model.ConsentTypeFundsConfirmation:
		consent.RecurringIndicator = true
	}
	return nil
}

// GetConsent returns the stored initiation payload with the current status.
func (s *consentService) GetConsent(
	ctx context.Context,
	consentType model.ConsentType,
	consentID, clientID string,
) (map[string]interface{}, *serviceerror.ServiceError) {
	consent, svcErr := s.loadForClient(ctx, consentType, consentID, clientID)
	if svcErr != nil {
		return nil, svcErr
	}

	body := map[string]interface{}{}
	if consent.Receipt != "" {
		if err := json.Unmarshal([]byte(consent.Receipt), &body); err != nil {
			s.logger.WithContext(ctx).Error("Stored consent receipt is not valid JSON",
				log.String("consent_id", consentID), log.Error(err))
			return nil, &serviceerror.InternalServerError
		}
	}
	if consentType.IsPayment() {
		body["transactionStatus"] = consent.CurrentStatus
	} else {
		body["consentStatus"] = consent.CurrentStatus
	}
	return body, nil
}

// GetConsentStatus returns the current status, expiring the consent first if its validity has elapsed.
func (s *consentService) GetConsentStatus(
	ctx context.Context,
	consentType model.ConsentType,
	consentID, clientID string,
) (*model.StatusResponse, *serviceerror.ServiceError) {
	consent, svcErr := s.loadForClient(ctx, consentType, consentID, clientID)
	if svcErr != nil {
		return nil, svcErr
	}
	return model.NewStatusResponse(consentType, consent.CurrentStatus), nil
}

// ValidateConsent checks that a consent may be used for a data request by clientID.
// A valid one-off consent is expired by this call.
func (s *consentService) ValidateConsent(
	ctx context.Context,
	consentID, clientID string,
) (*model.ValidationResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateResourceID("consentID", consentID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error())
	}

	consent, svcErr := s.load(ctx, consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	if consent.ClientID != clientID {
		return nil, &serviceerror.UnauthorizedClientError
	}
	if consent.ConsentType.IsPayment() {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError,
			fmt.Sprintf("%s consents are not validated for data access", consent.ConsentType))
	}
	if svcErr := s.expireIfElapsed(ctx, consent); svcErr != nil {
		return nil, svcErr
	}

	switch consent.CurrentStatus {
	case model.StatusValid:
	case model.StatusExpired:
		return nil, &serviceerror.ConsentExpiredError
	default:
		return nil, serviceerror.CustomServiceError(serviceerror.ConsentInvalidError,
			fmt.Sprintf("consent is in %s status", consent.CurrentStatus))
	}

	resp := &model.ValidationResponse{
		ConsentID:     consent.ConsentID,
		ConsentType:   string(consent.ConsentType),
		ConsentStatus: consent.CurrentStatus,
		IsValid:       true,
	}

	if !consent.RecurringIndicator {
		if err := s.core.UpdateConsentStatusIfVersion(ctx, consent, model.StatusExpired, reasonOneOffUsed); err != nil {
			if errors.Is(err, model.ErrConcurrentUpdate) {
				return nil, serviceerror.CustomServiceError(serviceerror.ConsentInvalidError, "consent has already been used")
			}
			s.logger.WithContext(ctx).Error("Failed to expire one-off consent", log.String("consent_id", consentID), log.Error(err))
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to update consent status")
		}
		s.metrics.IncrementStatusTransition(string(consent.ConsentType), string(model.StatusExpired))
	}
	return resp, nil
}

func (s *consentService) load(ctx context.Context, consentID string) (*model.Consent, *serviceerror.ServiceError) {
	consent, err := s.stores.Consent.GetByID(ctx, consentID)
	if err != nil {
		if errors.Is(err, model.ErrConsentNotFound) {
			return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
				fmt.Sprintf("consent not found: %s", consentID))
		}
		s.logger.WithContext(ctx).Error("Failed to load consent", log.String("consent_id", consentID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to retrieve consent")
	}
	return consent, nil
}

// loadForClient loads a consent of the given type owned by clientID and applies expiry-on-read.
func (s *consentService) loadForClient(
	ctx context.Context,
	consentType model.ConsentType,
	consentID, clientID string,
) (*model.Consent, *serviceerror.ServiceError) {
	if err := utils.ValidateResourceID("consentID", consentID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error())
	}
	consent, svcErr := s.load(ctx, consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	if consent.ConsentType != consentType {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("consent not found: %s", consentID))
	}
	if consent.ClientID != clientID {
		return nil, &serviceerror.UnauthorizedClientError
	}
	if svcErr := s.expireIfElapsed(ctx, consent); svcErr != nil {
		return nil, svcErr
	}
	return consent, nil
}

// expireIfElapsed moves a non-payment consent whose validity has passed to expired.
func (s *consentService) expireIfElapsed(ctx context.Context, consent *model.Consent) *serviceerror.ServiceError {
	if consent.ConsentType.IsPayment() || consent.CurrentStatus.IsTerminal() || !consent.IsExpired(s.clock()) {
		return nil
	}
	if err := s.core.UpdateConsentStatus(ctx, consent, model.StatusExpired, reasonValidityElapsed); err != nil {
		s.logger.WithContext(ctx).Error("Failed to expire consent", log.String("consent_id", consent.ConsentID), log.Error(err))
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to update consent status")
	}
	s.metrics.IncrementStatusTransition(string(consent.ConsentType), string(model.StatusExpired))
	consent.CurrentStatus = model.StatusExpired
	return nil
}
