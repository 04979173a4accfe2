/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and carries a business code, one of the two error kinds, a user-facing message and the
HTTP status code used when the error crosses the HTTP boundary.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"flockr/internal/pkg/logx"
)

// Kind classifies every error the engine raises.
type Kind string

const (
	// AccessError: the caller's identity does not resolve, or lacks permission
	// for the action on an otherwise valid resource.
	AccessError Kind = "AccessError"

	// InputError: the caller is authorized but another argument is invalid.
	InputError Kind = "InputError"
)

// CustomError is the custom error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Kind is AccessError or InputError.
	Kind Kind

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("%s %d (HTTP %d): %s", e.Kind, e.Code, e.Status, e.Message)
}

// NewError constructs a *CustomError from a predefined error code.
// The optional details are printf-style arguments for the message template.
// Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = statusFor(customErr.Kind)
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.")
		}
	}

	return &customErr
}

func statusFor(kind Kind) int {
	if kind == AccessError {
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

// KindOf reports the Kind of err, or "" when err is not a CustomError.
func KindOf(err error) Kind {
	var customErr *CustomError
	if errors.As(err, &customErr) && customErr != nil {
		return customErr.Kind
	}
	return ""
}

// IsAccess reports whether err is an AccessError.
func IsAccess(err error) bool { return KindOf(err) == AccessError }

// IsInput reports whether err is an InputError.
func IsInput(err error) bool { return KindOf(err) == InputError }
