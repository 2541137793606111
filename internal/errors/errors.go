// Package errors provides a small typed error used by the HTTP receiver to
// produce the exact status/body pairs spec.md §4.5 names, mirroring the
// teacher's internal/errors APIError shape.
package errors

import "net/http"

// APIError pairs an HTTP status with a stable machine-readable code and a
// human message, the same three fields the teacher's APIError carries.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// Predefined errors covering every HTTP outcome spec.md §4.5 lists.
var (
	ErrBadRequest   = &APIError{HTTPStatus: http.StatusBadRequest, Code: "BAD_REQUEST", Message: "Bad Request"}
	ErrInvalidJSON  = &APIError{HTTPStatus: http.StatusBadRequest, Code: "INVALID_JSON", Message: "Invalid JSON"}
	ErrNotFound     = &APIError{HTTPStatus: http.StatusNotFound, Code: "NOT_FOUND", Message: "Not Found"}
	ErrStorageError = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "STORAGE_ERROR", Message: "Storage Error"}
)

// NewAPIError builds a copy of a predefined error with a custom message,
// matching the teacher's NewAPIError helper.
func NewAPIError(base *APIError, message string) *APIError {
	return &APIError{HTTPStatus: base.HTTPStatus, Code: base.Code, Message: message}
}
