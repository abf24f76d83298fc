// Package api exposes the authenticated status query surface: get-status,
// list-imports and delete-import over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an API error for the caller.
type Code string

const (
	CodeUnauthenticated  Code = "unauthenticated"
	CodeInvalidArgument  Code = "invalid-argument"
	CodeNotFound         Code = "not-found"
	CodePermissionDenied Code = "permission-denied"
	CodeInternal         Code = "internal"
)

// Error is a typed API error surfaced directly to the caller.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds a typed Error.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// httpStatus maps an error code to its HTTP status.
func httpStatus(code Code) int {
	switch code {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodePermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// asError coerces any error into a typed Error, defaulting to internal.
func asError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Code: CodeInternal, Message: "internal error"}
}
