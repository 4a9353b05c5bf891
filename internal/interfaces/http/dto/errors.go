package dto

import "net/http"

// Error code constants, format: ERR_<CATEGORY>_<DESCRIPTION>.
const (
	// ErrCodeInternal is used for internal server errors.
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests.
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found.
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeRequestTooLarge is used when the request body exceeds the
	// configured limit.
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeUpstream is used when the remote order backend failed.
	ErrCodeUpstream = "ERR_UPSTREAM"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUpstream:        http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code,
// defaulting to 500 for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
