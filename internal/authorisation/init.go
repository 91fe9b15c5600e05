package authorisation

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/constants"
	"github.com/wso2/openbanking-berlin-consent/internal/system/metrics"
)

// Initialize sets up the authorisation callback module and registers its routes
func Initialize(router gin.IRouter, core ConsentCore, consentCfg config.ConsentConfig, m *metrics.Metrics) *Service {
	service := NewService(core, NewHookRegistry(DefaultHooks()), consentCfg, m)
	registerRoutes(router, newAuthorisationHandler(service))
	return service
}

func registerRoutes(router gin.IRouter, handler *authorisationHandler) {
	group := router.Group(constants.InternalBasePath + "/consents/:consentId/authorisations/:authorisationId")
	group.PUT("", handler.persist)
	group.GET("/siblings-valid", handler.siblingsValid)
}
