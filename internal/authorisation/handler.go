package authorisation

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

// authorisationService is the part of Service the handler needs.
type authorisationService interface {
	GetConsent(ctx context.Context, consentID string) (*consentmodel.Consent, *serviceerror.ServiceError)
	PersistAuthorisation(
		ctx context.Context,
		consent *consentmodel.Consent,
		accountPermissions map[string][]string,
		authID, userID string,
		authStatus authmodel.ScaStatus,
	) *serviceerror.ServiceError
	AreAllOtherAuthResourcesValid(
		ctx context.Context,
		consentID string,
		authType authmodel.AuthType,
		currentAuthID string,
	) (bool, *serviceerror.ServiceError)
}

type authorisationHandler struct {
	service authorisationService
}

func newAuthorisationHandler(service authorisationService) *authorisationHandler {
	return &authorisationHandler{service: service}
}

// persist handles PUT /internal/consents/{consentId}/authorisations/{authorisationId}
func (h *authorisationHandler) persist(c *gin.Context) {
	var req PersistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "scaStatus is required"))
		return
	}

	consentID := c.Param("consentId")
	authID := c.Param("authorisationId")
	if err := utils.ValidateResourceID("consentId", consentID); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error()))
		return
	}
	if err := utils.ValidateResourceID("authorisationId", authID); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.FormatError, err.Error()))
		return
	}

	ctx := c.Request.Context()
	consent, svcErr := h.service.GetConsent(ctx, consentID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}

	if svcErr := h.service.PersistAuthorisation(ctx, consent, req.AccountPermissions, authID, req.UserID,
		req.ScaStatus); svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.Status(http.StatusNoContent)
}

// siblingsValid handles GET /internal/consents/{consentId}/authorisations/{authorisationId}/siblings-valid
func (h *authorisationHandler) siblingsValid(c *gin.Context) {
	authType := authmodel.AuthType(c.DefaultQuery("authorisationType", string(authmodel.AuthTypeAuthorisation)))
	if !authType.IsValid() {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.FormatError, "unknown authorisationType"))
		return
	}

	consentID := c.Param("consentId")
	authID := c.Param("authorisationId")
	valid, svcErr := h.service.AreAllOtherAuthResourcesValid(c.Request.Context(), consentID, authType, authID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, SiblingsValidResponse{
		ConsentID:       consentID,
		AuthorisationID: authID,
		AuthType:        authType,
		AllOtherValid:   valid,
	})
}
