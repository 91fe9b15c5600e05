package model

import (
	"time"

	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
)

// ConsentType identifies the Berlin Group service a consent belongs to.
type ConsentType string

const (
	ConsentTypeAccounts          ConsentType = "accounts"
	ConsentTypePayments          ConsentType = "payments"
	ConsentTypeBulkPayments      ConsentType = "bulk-payments"
	ConsentTypePeriodicPayments  ConsentType = "periodic-payments"
	ConsentTypeFundsConfirmation ConsentType = "funds-confirmations"
)

// ConsentTypes lists every supported consent type.
var ConsentTypes = []ConsentType{
	ConsentTypeAccounts,
	ConsentTypePayments,
	ConsentTypeBulkPayments,
	ConsentTypePeriodicPayments,
	ConsentTypeFundsConfirmation,
}

// IsPayment reports whether t is one of the payment initiation types.
func (t ConsentType) IsPayment() bool {
	switch t {
	case ConsentTypePayments, ConsentTypeBulkPayments, ConsentTypePeriodicPayments:
		return true
	}
	return false
}

// ConsentTypeForPaymentService maps a payment-service path segment to its consent type.
func ConsentTypeForPaymentService(service string) (ConsentType, bool) {
	t := ConsentType(service)
	return t, t.IsPayment()
}

// Status is the stored consent status. Account and funds-confirmation consents use
// consent statuses; payment consents use ISO 20022 transaction statuses.
type Status string

// Consent statuses
const (
	StatusReceived            Status = "received"
	StatusRejected            Status = "rejected"
	StatusPartiallyAuthorised Status = "partiallyAuthorised"
	StatusValid               Status = "valid"
	StatusRevokedByPsu        Status = "revokedByPsu"
	StatusExpired             Status = "expired"
	StatusTerminatedByTpp     Status = "terminatedByTpp"
)

// Transaction statuses
const (
	TransactionStatusACCP Status = "ACCP"
	TransactionStatusACSC Status = "ACSC"
	TransactionStatusACSP Status = "ACSP"
	TransactionStatusACTC Status = "ACTC"
	TransactionStatusACWC Status = "ACWC"
	TransactionStatusACWP Status = "ACWP"
	TransactionStatusRCVD Status = "RCVD"
	TransactionStatusPDNG Status = "PDNG"
	TransactionStatusRJCT Status = "RJCT"
	TransactionStatusCANC Status = "CANC"
	TransactionStatusPATC Status = "PATC"
)

// InitialStatus returns the status a freshly initiated consent of type t starts in.
func InitialStatus(t ConsentType) Status {
	if t.IsPayment() {
		return TransactionStatusRCVD
	}
	return StatusReceived
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusRevokedByPsu, StatusExpired, StatusTerminatedByTpp,
		TransactionStatusRJCT, TransactionStatusCANC:
		return true
	}
	return false
}

// Consent represents the CONSENT table
type Consent struct {
	ConsentID          string      `db:"CONSENT_ID" json:"consentId"`
	Receipt            string      `db:"RECEIPT" json:"-"`
	CreatedTime        int64       `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime        int64       `db:"UPDATED_TIME" json:"updatedTime"`
	ClientID           string      `db:"CLIENT_ID" json:"clientId"`
	ConsentType        ConsentType `db:"CONSENT_TYPE" json:"consentType"`
	CurrentStatus      Status      `db:"CURRENT_STATUS" json:"currentStatus"`
	ConsentFrequency   int         `db:"CONSENT_FREQUENCY" json:"frequencyPerDay"`
	ValidityTime       int64       `db:"VALIDITY_TIME" json:"validityTime"`
	RecurringIndicator bool        `db:"RECURRING_INDICATOR" json:"recurringIndicator"`
	Version            int64       `db:"VERSION" json:"-"`
}

// IsExpired reports whether the validity window has elapsed at now.
// A zero ValidityTime means the consent does not expire by time.
func (c *Consent) IsExpired(now time.Time) bool {
	return c.ValidityTime > 0 && now.UnixMilli() > c.ValidityTime
}

// AccountMapping represents the CONSENT_MAPPING table
type AccountMapping struct {
	MappingID     string `db:"MAPPING_ID" json:"mappingId"`
	AuthID        string `db:"AUTH_ID" json:"authorisationId"`
	AccountID     string `db:"ACCOUNT_ID" json:"accountId"`
	Permission    string `db:"PERMISSION" json:"permission"`
	MappingStatus string `db:"MAPPING_STATUS" json:"mappingStatus"`
}

// Account mapping statuses
const (
	MappingStatusActive   = "active"
	MappingStatusInactive = "inactive"
)

// AccountBinding is everything committed atomically when an authorisation completes.
type AccountBinding struct {
	Consent            *Consent
	UserID             string
	AuthID             string
	AccountPermissions map[string][]string
	AuthStatus         authmodel.ScaStatus
	// NewConsentStatus is empty when the consent status must not change.
	NewConsentStatus Status
	// ExpireConsentIDs are other consents superseded by this one.
	ExpireConsentIDs []string
}

// ConsentStatusAudit represents the CONSENT_STATUS_AUDIT table
type ConsentStatusAudit struct {
	StatusAuditID  string  `db:"STATUS_AUDIT_ID" json:"statusAuditId"`
	ConsentID      string  `db:"CONSENT_ID" json:"consentId"`
	CurrentStatus  Status  `db:"CURRENT_STATUS" json:"currentStatus"`
	ActionTime     int64   `db:"ACTION_TIME" json:"actionTime"`
	Reason         *string `db:"REASON" json:"reason,omitempty"`
	ActionBy       *string `db:"ACTION_BY" json:"actionBy,omitempty"`
	PreviousStatus *string `db:"PREVIOUS_STATUS" json:"previousStatus,omitempty"`
}
