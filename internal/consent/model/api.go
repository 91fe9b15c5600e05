package model

import (
	"github.com/wso2/openbanking-berlin-consent/internal/sca"
)

// InitiationRequest carries everything the handler extracted from an initiation call.
type InitiationRequest struct {
	ConsentType           ConsentType
	PaymentProduct        string
	ClientID              string
	PSUID                 string
	Payload               []byte
	RedirectPreferred     *bool
	ExplicitAuthorisation bool
	// BasePath is the request path the consent resource lives under, used for links.
	BasePath string
}

// InitiationResponse is the Berlin Group initiation response body.
type InitiationResponse struct {
	ConsentID         string       `json:"consentId,omitempty"`
	PaymentID         string       `json:"paymentId,omitempty"`
	ConsentStatus     Status       `json:"consentStatus,omitempty"`
	TransactionStatus Status       `json:"transactionStatus,omitempty"`
	ScaMethods        []sca.Method `json:"scaMethods,omitempty"`
	ChosenScaMethod   *sca.Method  `json:"chosenScaMethod,omitempty"`
	AuthorisationID   string       `json:"authorisationId,omitempty"`
	Links             Links        `json:"_links"`

	// ScaApproach is returned in the ASPSP-SCA-Approach header.
	ScaApproach string `json:"-"`
}

// StatusResponse is returned by the status endpoints.
type StatusResponse struct {
	ConsentStatus     Status `json:"consentStatus,omitempty"`
	TransactionStatus Status `json:"transactionStatus,omitempty"`
}

// NewStatusResponse places status in the field matching the consent type.
func NewStatusResponse(t ConsentType, status Status) *StatusResponse {
	if t.IsPayment() {
		return &StatusResponse{TransactionStatus: status}
	}
	return &StatusResponse{ConsentStatus: status}
}

// ValidateRequest is the body of the internal validation call.
type ValidateRequest struct {
	ClientID string `json:"clientId" binding:"required"`
}

// ValidationResponse reports the outcome of a consent validation.
type ValidationResponse struct {
	ConsentID     string `json:"consentId"`
	ConsentType   string `json:"consentType"`
	ConsentStatus Status `json:"consentStatus"`
	IsValid       bool   `json:"isValid"`
}
