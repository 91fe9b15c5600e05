package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/openbanking-berlin-consent/internal/system/error/apierror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
)

// StatusCodeFor maps a ServiceError to its HTTP status.
func StatusCodeFor(err *serviceerror.ServiceError) int {
	if err.Type != serviceerror.ClientErrorType {
		return http.StatusInternalServerError
	}
	switch err.Code {
	case serviceerror.ResourceNotFoundError.Code:
		return http.StatusNotFound
	case serviceerror.ConflictError.Code:
		return http.StatusConflict
	case serviceerror.ConsentExpiredError.Code:
		return http.StatusUnauthorized
	case serviceerror.UnauthorizedClientError.Code:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// SendError writes a ServiceError as an HTTP response with appropriate status code
func SendError(c *gin.Context, err *serviceerror.ServiceError) {
	c.AbortWithStatusJSON(StatusCodeFor(err), apierror.NewErrorResponse(err.Error, err.ErrorDescription))
}

// ParseTriStateHeader reads an optional boolean header. An absent or empty header yields nil.
func ParseTriStateHeader(c *gin.Context, name string) (*bool, error) {
	raw := c.GetHeader(name)
	if raw == "" {
		return nil, nil
	}
	switch raw {
	case "true", "TRUE", "True":
		v := true
		return &v, nil
	case "false", "FALSE", "False":
		v := false
		return &v, nil
	}
	return nil, &HeaderFormatError{Header: name, Value: raw}
}

// HeaderFormatError reports a header that is not a boolean.
type HeaderFormatError struct {
	Header string
	Value  string
}

func (e *HeaderFormatError) Error() string {
	return "header " + e.Header + " must be true or false, got " + e.Value
}
