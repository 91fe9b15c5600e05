package serviceerror

type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

type ServiceError struct {
	Code             string           `json:"code"`
	Type             ServiceErrorType `json:"type"`
	Error            string           `json:"error"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5000",
		Error:            "internal_server_error",
		ErrorDescription: "An unexpected error occurred",
	}

	DatabaseError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5001",
		Error:            "database_error",
		ErrorDescription: "A database error occurred",
	}

	// InconsistentStateError marks an authorisation that does not belong to the consent it was submitted against,
	// or an aggregate that no consent status can represent.
	InconsistentStateError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5002",
		Error:            "inconsistent_state",
		ErrorDescription: "Consent and authorisation state are inconsistent",
	}

	ScaMisconfiguredError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5003",
		Error:            "sca_misconfigured",
		ErrorDescription: "No SCA approach or method is configured for the request",
	}

	InvalidRequestError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4000",
		Error:            "invalid_request",
		ErrorDescription: "The request is invalid",
	}

	ValidationError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4001",
		Error:            "validation_error",
		ErrorDescription: "Validation failed",
	}

	FormatError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4002",
		Error:            "format_error",
		ErrorDescription: "The request is not correctly formatted",
	}

	UnauthorizedClientError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4003",
		Error:            "consent_unknown",
		ErrorDescription: "The consent does not belong to the requesting client",
	}

	ResourceNotFoundError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4004",
		Error:            "resource_not_found",
		ErrorDescription: "Resource not found",
	}

	ConflictError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4009",
		Error:            "conflict",
		ErrorDescription: "Request conflicts with current state",
	}

	IdempotencyKeyReusedError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4010",
		Error:            "idempotency_key_reused",
		ErrorDescription: "Idempotency key reused with a different payload",
	}

	ConsentExpiredError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4011",
		Error:            "consent_expired",
		ErrorDescription: "The consent has expired",
	}

	ConsentInvalidError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4012",
		Error:            "consent_invalid",
		ErrorDescription: "The consent is not in a usable state",
	}
)

func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}

// Matches reports whether the error was built from base.
func (e *ServiceError) Matches(base ServiceError) bool {
	return e != nil && e.Code == base.Code
}
