package authorisation

import (
	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
)

// PersistRequest is the body of an authorisation callback from the PSU-facing flow.
type PersistRequest struct {
	UserID             string              `json:"userId"`
	ScaStatus          authmodel.ScaStatus `json:"scaStatus" binding:"required"`
	AccountPermissions map[string][]string `json:"accountPermissions"`
}

// SiblingsValidResponse answers whether the other PSUs have already authorised.
type SiblingsValidResponse struct {
	ConsentID       string             `json:"consentId"`
	AuthorisationID string             `json:"authorisationId"`
	AuthType        authmodel.AuthType `json:"authorisationType"`
	AllOtherValid   bool               `json:"allOtherValid"`
}
