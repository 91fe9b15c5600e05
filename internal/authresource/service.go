package authresource

import (
	"context"
	"errors"
	"fmt"

	"github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/sca"
	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

// StartAuthorisationRequest is an explicit authorisation or cancellation start.
type StartAuthorisationRequest struct {
	ConsentType       consentmodel.ConsentType
	ConsentID         string
	ClientID          string
	PSUID             string
	AuthType          model.AuthType
	RedirectPreferred *bool
	// CollectionPath is the authorisations collection the new resource is created in.
	CollectionPath string
}

// StartAuthorisationResponse is the Berlin Group start authorisation response body.
type StartAuthorisationResponse struct {
	ScaStatus       model.ScaStatus    `json:"scaStatus"`
	AuthorisationID string             `json:"authorisationId"`
	ScaMethods      []sca.Method       `json:"scaMethods,omitempty"`
	ChosenScaMethod *sca.Method        `json:"chosenScaMethod,omitempty"`
	Links           consentmodel.Links `json:"_links"`

	ScaApproach string `json:"-"`
}

// AuthResourceService defines the contract for auth resource business operations
type AuthResourceService interface {
	StartAuthorisation(ctx context.Context, req *StartAuthorisationRequest) (*StartAuthorisationResponse, *serviceerror.ServiceError)
	GetScaStatus(
		ctx context.Context,
		consentType consentmodel.ConsentType,
		consentID, authID, clientID string,
		authType model.AuthType,
	) (*model.ScaStatusResponse, *serviceerror.ServiceError)
	ListAuthorisations(
		ctx context.Context,
		consentType consentmodel.ConsentType,
		consentID, clientID string,
		authType model.AuthType,
	) (*model.AuthorisationListResponse, *serviceerror.ServiceError)
}

// authResourceService implements the AuthResourceService
type authResourceService struct {
	stores        *stores.StoreRegistry
	resolver      *sca.Resolver
	oauthMetadata string
	clock         utils.Clock
	logger        *log.Logger
}

// newAuthResourceService creates a new auth resource service
func newAuthResourceService(
	registry *stores.StoreRegistry,
	resolver *sca.Resolver,
	oauthMetadata string,
	clock utils.Clock,
) AuthResourceService {
	if clock == nil {
		clock = utils.SystemClock
	}
	return &authResourceService{
		stores:        registry,
		resolver:      resolver,
		oauthMetadata: oauthMetadata,
		clock:         clock,
		logger:        log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthResourceService")),
	}
}

// StartAuthorisation creates a received auth resource and resolves SCA for it
func (s *authResourceService) StartAuthorisation(
	ctx context.Context,
	req *StartAuthorisationRequest,
) (*StartAuthorisationResponse, *serviceerror.ServiceError) {
	logger := s.logger.WithContext(ctx)

	consent, svcErr := s.loadConsent(ctx, req.ConsentType, req.ConsentID, req.ClientID)
	if svcErr != nil {
		return nil, svcErr
	}
	if !acceptsAuthorisation(consent, req.AuthType) {
		return nil, serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("%s cannot be started while the consent is %s", req.AuthType, consent.CurrentStatus))
	}

	res := s.resolver.Resolve(req.RedirectPreferred, s.resolver.ScaRequired())
	if res.Misconfigured() {
		logger.Error("SCA configuration cannot serve the request",
			log.String("consent_id", consent.ConsentID),
			log.Any("redirect_preferred", req.RedirectPreferred),
		)
		return nil, &serviceerror.ScaMisconfiguredError
	}

	authResource := &model.AuthResource{
		AuthID:      utils.GenerateUUID(),
		ConsentID:   consent.ConsentID,
		AuthType:    req.AuthType,
		AuthStatus:  model.ScaStatusReceived,
		UpdatedTime: utils.TimeToMillis(s.clock()),
	}
	if req.PSUID != "" {
		psuID := req.PSUID
		authResource.UserID = &psuID
	}

	err := s.stores.ExecuteTransaction(ctx, []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return s.stores.AuthResource.Create(tx, authResource)
		},
	})
	if err != nil {
		logger.Error("Failed to create auth resource", log.String("consent_id", consent.ConsentID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to create authorisation")
	}

	logger.Info("Authorisation started",
		log.String("consent_id", consent.ConsentID),
		log.String("auth_id", authResource.AuthID),
		log.String("auth_type", string(req.AuthType)),
	)

	resp := &StartAuthorisationResponse{
		ScaStatus:       authResource.AuthStatus,
		AuthorisationID: authResource.AuthID,
		ScaApproach:     res.ApproachName(),
		Links:           consentmodel.StartAuthorisationLinks(req.CollectionPath+"/"+authResource.AuthID, res, s.oauthMetadata),
	}
	if chosen := res.ChosenMethod(); chosen != nil {
		resp.ChosenScaMethod = chosen
	} else if len(res.Methods) > 0 {
		resp.ScaMethods = res.Methods
	}
	return resp, nil
}

// acceptsAuthorisation reports whether a new auth resource of authType may be opened on consent.
func acceptsAuthorisation(consent *consentmodel.Consent, authType model.AuthType) bool {
	if authType == model.AuthTypeCancellation {
		return consent.ConsentType.IsPayment() && !consent.CurrentStatus.IsTerminal()
	}
	switch consent.CurrentStatus {
	case consentmodel.StatusReceived, consentmodel.StatusPartiallyAuthorised,
		consentmodel.TransactionStatusRCVD, consentmodel.TransactionStatusPATC:
		return true
	}
	return false
}

// GetScaStatus returns the status of one auth resource of a consent
func (s *authResourceService) GetScaStatus(
	ctx context.Context,
	consentType consentmodel.ConsentType,
	consentID, authID, clientID string,
	authType model.AuthType,
) (*model.ScaStatusResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateResourceID("authorisationId", authID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error())
	}
	if _, svcErr := s.loadConsent(ctx, consentType, consentID, clientID); svcErr != nil {
		return nil, svcErr
	}

	authResource, err := s.stores.AuthResource.GetByID(ctx, authID)
	if err != nil {
		if errors.Is(err, model.ErrAuthResourceNotFound) {
			return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
				fmt.Sprintf("authorisation not found: %s", authID))
		}
		s.logger.WithContext(ctx).Error("Failed to load auth resource", log.String("auth_id", authID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to retrieve authorisation")
	}
	if authResource.ConsentID != consentID || authResource.AuthType != authType {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("authorisation not found: %s", authID))
	}

	return &model.ScaStatusResponse{ScaStatus: authResource.AuthStatus}, nil
}

// ListAuthorisations returns the IDs of the consent's auth resources of authType
func (s *authResourceService) ListAuthorisations(
	ctx context.Context,
	consentType consentmodel.ConsentType,
	consentID, clientID string,
	authType model.AuthType,
) (*model.AuthorisationListResponse, *serviceerror.ServiceError) {
	if _, svcErr := s.loadConsent(ctx, consentType, consentID, clientID); svcErr != nil {
		return nil, svcErr
	}

	authResources, err := s.stores.AuthResource.GetByConsentID(ctx, consentID)
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to list auth resources", log.String("consent_id", consentID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to retrieve authorisations")
	}

	ids := make([]string, 0, len(authResources))
	for _, ar := range authResources {
		if ar.AuthType == authType {
			ids = append(ids, ar.AuthID)
		}
	}
	return &model.AuthorisationListResponse{AuthorisationIDs: ids}, nil
}

func (s *authResourceService) loadConsent(
	ctx context.Context,
	consentType consentmodel.ConsentType,
	consentID, clientID string,
) (*consentmodel.Consent, *serviceerror.ServiceError) {
	if err := utils.ValidateResourceID("consentId", consentID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error())
	}

	consent, err := s.stores.Consent.GetByID(ctx, consentID)
	if err != nil {
		if errors.Is(err, consentmodel.ErrConsentNotFound) {
			return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
				fmt.Sprintf("consent not found: %s", consentID))
		}
		s.logger.WithContext(ctx).Error("Failed to load consent", log.String("consent_id", consentID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to retrieve consent")
	}
	if consent.ConsentType != consentType {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("consent not found: %s", consentID))
	}
	if consent.ClientID != clientID {
		return nil, &serviceerror.UnauthorizedClientError
	}
	return consent, nil
}
