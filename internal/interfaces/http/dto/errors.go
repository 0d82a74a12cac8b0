package dto

import "net/http"

// Stable error codes returned in the response envelope. Clients switch on
// these, so renaming one is a breaking change.

// General error codes
const (
	// ErrCodeUnknown covers errors the handler could not classify
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal marks a server-side failure
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest marks a request the server could not parse
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when request validation fails
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound marks a lookup that matched nothing
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists marks a create that hit a duplicate
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict marks other resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState marks an operation the resource state forbids
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule marks other domain rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeUnresolvable is used when marketplace data cannot be resolved
	// against local records (unknown country, unbound SKU, currency mismatch)
	ErrCodeUnresolvable = "ERR_UNRESOLVABLE"
)

// Upstream error codes
const (
	// ErrCodeMarketplace is used when a marketplace call failed
	ErrCodeMarketplace = "ERR_MARKETPLACE"
)

// ErrorCodeHTTPStatus resolves each code to the status the handler writes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,
	ErrCodeUnresolvable: http.StatusUnprocessableEntity,

	ErrCodeMarketplace: http.StatusBadGateway,
}

// GetHTTPStatus resolves code to an HTTP status, defaulting to 500 for
// codes missing from the table
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewErrorResponseWithRequestID creates an error response carrying the
// request ID for correlation
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}
