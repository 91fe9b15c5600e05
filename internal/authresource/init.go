package authresource

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/sca"
	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/constants"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

// Initialize sets up the auth resource module and registers routes
func Initialize(
	router gin.IRouter,
	registry *stores.StoreRegistry,
	resolver *sca.Resolver,
	scaCfg config.SCAConfig,
	clock utils.Clock,
) AuthResourceService {
	service := newAuthResourceService(registry, resolver, scaCfg.OAuthMetadataEndpoint, clock)
	handler := newAuthResourceHandler(service)

	registerRoutes(router, handler)

	return service
}

// registerRoutes registers the authorisation sub-resources of every consent resource
func registerRoutes(router gin.IRouter, handler *authResourceHandler) {
	register := func(resourcePath, segment string, consentType consentmodel.ConsentType, authType model.AuthType) {
		group := router.Group(resourcePath + segment)
		group.POST("", handler.start(consentType, authType))
		group.GET("", handler.list(consentType, authType))
		group.GET("/:authorisationId", handler.getStatus(consentType, authType))
	}

	register(constants.AccountsBasePath+"/:consentId", "/authorisations",
		consentmodel.ConsentTypeAccounts, model.AuthTypeAuthorisation)
	register(constants.FundsConfirmationBasePath+"/:consentId", "/authorisations",
		consentmodel.ConsentTypeFundsConfirmation, model.AuthTypeAuthorisation)

	for _, service := range constants.PaymentServices {
		consentType, _ := consentmodel.ConsentTypeForPaymentService(service)
		resourcePath := "/v1/" + service + "/:paymentProduct/:consentId"
		register(resourcePath, "/authorisations", consentType, model.AuthTypeAuthorisation)
		register(resourcePath, "/cancellation-authorisations", consentType, model.AuthTypeCancellation)
	}
}
