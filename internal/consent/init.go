package consent

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/sca"
	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/constants"
	"github.com/wso2/openbanking-berlin-consent/internal/system/metrics"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

// Initialize sets up the consent module and registers its routes
func Initialize(
	router gin.IRouter,
	registry *stores.StoreRegistry,
	core *CoreService,
	resolver *sca.Resolver,
	scaCfg config.SCAConfig,
	m *metrics.Metrics,
	clock utils.Clock,
) ConsentService {
	service := newConsentService(registry, core, resolver, scaCfg.OAuthMetadataEndpoint, m, clock)
	handler := newConsentHandler(service, clock)

	registerRoutes(router, handler)

	return service
}

// registerRoutes registers the initiation, read and validation routes. Each payment
// service gets its own static group so gin never sees a wildcard next to a static segment.
func registerRoutes(router gin.IRouter, handler *consentHandler) {
	groups := map[string]model.ConsentType{
		constants.AccountsBasePath:          model.ConsentTypeAccounts,
		constants.FundsConfirmationBasePath: model.ConsentTypeFundsConfirmation,
	}
	for _, service := range constants.PaymentServices {
		consentType, _ := model.ConsentTypeForPaymentService(service)
		groups["/v1/"+service+"/:paymentProduct"] = consentType
	}

	for path, consentType := range groups {
		group := router.Group(path)
		group.POST("", handler.initiate(consentType))
		group.GET("/:consentId", handler.get(consentType))
		group.GET("/:consentId/status", handler.getStatus(consentType))
	}

	router.POST(constants.InternalBasePath+"/consents/:consentId/validate", handler.validate)
}
