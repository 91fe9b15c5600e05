package authresource

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/constants"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

// authResourceHandler handles HTTP requests for auth resources
type authResourceHandler struct {
	service AuthResourceService
}

// newAuthResourceHandler creates a new auth resource handler
func newAuthResourceHandler(service AuthResourceService) *authResourceHandler {
	return &authResourceHandler{
		service: service,
	}
}

// start handles POST .../{consentId}/authorisations and .../cancellation-authorisations
func (h *authResourceHandler) start(consentType consentmodel.ConsentType, authType model.AuthType) gin.HandlerFunc {
	return func(c *gin.Context) {
		redirectPreferred, err := utils.ParseTriStateHeader(c, constants.TPPRedirectPreferredHeaderName)
		if err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error()))
			return
		}

		resp, svcErr := h.service.StartAuthorisation(c.Request.Context(), &StartAuthorisationRequest{
			ConsentType:       consentType,
			ConsentID:         c.Param("consentId"),
			ClientID:          c.GetHeader(constants.TPPClientIDHeaderName),
			PSUID:             c.GetHeader(constants.PSUIDHeaderName),
			AuthType:          authType,
			RedirectPreferred: redirectPreferred,
			CollectionPath:    strings.TrimSuffix(c.Request.URL.Path, "/"),
		})
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}

		if resp.ScaApproach != "" {
			c.Header(constants.ASPSPScaApproachHeaderName, resp.ScaApproach)
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// list handles GET .../{consentId}/authorisations
func (h *authResourceHandler) list(consentType consentmodel.ConsentType, authType model.AuthType) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, svcErr := h.service.ListAuthorisations(c.Request.Context(), consentType, c.Param("consentId"),
			c.GetHeader(constants.TPPClientIDHeaderName), authType)
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// getStatus handles GET .../{consentId}/authorisations/{authorisationId}
func (h *authResourceHandler) getStatus(consentType consentmodel.ConsentType, authType model.AuthType) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, svcErr := h.service.GetScaStatus(c.Request.Context(), consentType, c.Param("consentId"),
			c.Param("authorisationId"), c.GetHeader(constants.TPPClientIDHeaderName), authType)
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
