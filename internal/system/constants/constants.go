package constants

const (
	ContentTypeHeaderName   = "Content-Type"
	CorrelationIDHeaderName = "X-Correlation-ID"
	RequestIDHeaderName     = "X-Request-ID"
	TraceIDHeaderName       = "X-Trace-ID"
	DateHeaderName          = "Date"
	ContentTypeJSON         = "application/json"

	// Berlin Group request headers
	TPPClientIDHeaderName                   = "TPP-Client-ID"
	TPPRedirectPreferredHeaderName          = "TPP-Redirect-Preferred"
	TPPExplicitAuthorisationPreferredHeader = "TPP-Explicit-Authorisation-Preferred"
	PSUIDHeaderName                         = "PSU-ID"

	// Berlin Group response headers
	ASPSPScaApproachHeaderName = "ASPSP-SCA-Approach"
	LocationHeaderName         = "Location"

	// IdempotentReplayHeaderName marks a response served from the idempotency cache.
	IdempotentReplayHeaderName = "X-Idempotent-Replay"

	// Aliases for convenience
	HeaderContentType = ContentTypeHeaderName
)

// API path prefixes
const (
	AccountsBasePath          = "/v1/consents"
	FundsConfirmationBasePath = "/v2/consents/confirmation-of-funds"
	InternalBasePath          = "/internal"
)

// Payment service path segments
const (
	PaymentServicePayments         = "payments"
	PaymentServiceBulkPayments     = "bulk-payments"
	PaymentServicePeriodicPayments = "periodic-payments"
)

// PaymentServices lists the payment service path segments in routing order.
var PaymentServices = []string{
	PaymentServicePayments,
	PaymentServiceBulkPayments,
	PaymentServicePeriodicPayments,
}
