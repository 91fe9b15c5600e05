package apierror

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func NewErrorResponse(code, description string) *ErrorResponse {
	return &ErrorResponse{
		Code:        code,
		Description: description,
	}
}
