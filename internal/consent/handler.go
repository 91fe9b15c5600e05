package consent

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/constants"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

type consentHandler struct {
	service ConsentService
	clock   utils.Clock
}

func newConsentHandler(service ConsentService, clock utils.Clock) *consentHandler {
	if clock == nil {
		clock = utils.SystemClock
	}
	return &consentHandler{
		service: service,
		clock:   clock,
	}
}

// initiate handles POST on an initiation path for consentType
func (h *consentHandler) initiate(consentType model.ConsentType) gin.HandlerFunc {
	return func(c *gin.Context) {
		redirectPreferred, err := utils.ParseTriStateHeader(c, constants.TPPRedirectPreferredHeaderName)
		if err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error()))
			return
		}
		explicit, err := utils.ParseTriStateHeader(c, constants.TPPExplicitAuthorisationPreferredHeader)
		if err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error()))
			return
		}

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.FormatError, "unable to read request body"))
			return
		}

		req := &model.InitiationRequest{
			ConsentType:           consentType,
			PaymentProduct:        c.Param("paymentProduct"),
			ClientID:              c.GetHeader(constants.TPPClientIDHeaderName),
			PSUID:                 c.GetHeader(constants.PSUIDHeaderName),
			Payload:               payload,
			RedirectPreferred:     redirectPreferred,
			ExplicitAuthorisation: explicit != nil && *explicit,
			BasePath:              strings.TrimSuffix(c.Request.URL.Path, "/"),
		}

		resp, svcErr := h.service.InitiateConsent(c.Request.Context(), req)
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}

		if resp.ScaApproach != "" {
			c.Header(constants.ASPSPScaApproachHeaderName, resp.ScaApproach)
		}
		if self, ok := resp.Links[model.LinkSelf]; ok {
			c.Header(constants.LocationHeaderName, self.Href)
		}
		c.Header(constants.DateHeaderName, h.clock().UTC().Format(http.TimeFormat))
		c.JSON(http.StatusCreated, resp)
	}
}

// get handles GET {base}/{consentId}
func (h *consentHandler) get(consentType model.ConsentType) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, svcErr := h.service.GetConsent(c.Request.Context(), consentType, c.Param("consentId"),
			c.GetHeader(constants.TPPClientIDHeaderName))
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}

// getStatus handles GET {base}/{consentId}/status
func (h *consentHandler) getStatus(consentType model.ConsentType) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, svcErr := h.service.GetConsentStatus(c.Request.Context(), consentType, c.Param("consentId"),
			c.GetHeader(constants.TPPClientIDHeaderName))
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// validate handles POST /internal/consents/{consentId}/validate
func (h *consentHandler) validate(c *gin.Context) {
	var req model.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "clientId is required"))
		return
	}

	resp, svcErr := h.service.ValidateConsent(c.Request.Context(), c.Param("consentId"), req.ClientID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}
