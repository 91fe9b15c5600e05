package model

import "errors"

// AuthType distinguishes authorisation and cancellation approval groups.
type AuthType string

const (
	AuthTypeAuthorisation AuthType = "authorisation"
	AuthTypeCancellation  AuthType = "cancellation"
)

// IsValid reports whether t is a known authorisation type.
func (t AuthType) IsValid() bool {
	return t == AuthTypeAuthorisation || t == AuthTypeCancellation
}

// ScaStatus is the Berlin Group SCA status of a single authorisation resource.
type ScaStatus string

const (
	ScaStatusReceived          ScaStatus = "received"
	ScaStatusPsuIdentified     ScaStatus = "psuIdentified"
	ScaStatusPsuAuthenticated  ScaStatus = "psuAuthenticated"
	ScaStatusScaMethodSelected ScaStatus = "scaMethodSelected"
	ScaStatusStarted           ScaStatus = "started"
	ScaStatusUnconfirmed       ScaStatus = "unconfirmed"
	ScaStatusFinalised         ScaStatus = "finalised"
	ScaStatusFailed            ScaStatus = "failed"
	ScaStatusExempted          ScaStatus = "exempted"
)

var knownScaStatuses = map[ScaStatus]struct{}{
	ScaStatusReceived:          {},
	ScaStatusPsuIdentified:     {},
	ScaStatusPsuAuthenticated:  {},
	ScaStatusScaMethodSelected: {},
	ScaStatusStarted:           {},
	ScaStatusUnconfirmed:       {},
	ScaStatusFinalised:         {},
	ScaStatusFailed:            {},
	ScaStatusExempted:          {},
}

// IsValid reports whether s is a known SCA status.
func (s ScaStatus) IsValid() bool {
	_, ok := knownScaStatuses[s]
	return ok
}

// IsPending reports whether the resource is still waiting for the PSU.
func (s ScaStatus) IsPending() bool {
	switch s {
	case ScaStatusPsuAuthenticated, ScaStatusFailed, ScaStatusExempted, ScaStatusFinalised:
		return false
	}
	return true
}

// AuthResource represents the CONSENT_AUTH_RESOURCE table
type AuthResource struct {
	AuthID      string    `db:"AUTH_ID" json:"authorisationId"`
	ConsentID   string    `db:"CONSENT_ID" json:"consentId"`
	AuthType    AuthType  `db:"AUTH_TYPE" json:"authorisationType"`
	UserID      *string   `db:"USER_ID" json:"psuId,omitempty"`
	AuthStatus  ScaStatus `db:"AUTH_STATUS" json:"scaStatus"`
	UpdatedTime int64     `db:"UPDATED_TIME" json:"updatedTime"`
}

// ScaStatusResponse is returned when a TPP reads an authorisation.
type ScaStatusResponse struct {
	ScaStatus ScaStatus `json:"scaStatus"`
}

// AuthorisationListResponse lists the authorisation IDs of one type for a consent.
type AuthorisationListResponse struct {
	AuthorisationIDs []string `json:"authorisationIds"`
}

// ErrAuthResourceNotFound is returned when no auth resource matches the lookup.
var ErrAuthResourceNotFound = errors.New("auth resource not found")
