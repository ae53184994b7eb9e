// Package apperr is the error taxonomy shared by services and handlers.
// Handlers derive the HTTP status from Kind; Code is the stable value
// clients switch on.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "VALIDATION"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindRateLimited  Kind = "RATE_LIMITED"
	KindInternal     Kind = "INTERNAL"
)

// Error codes
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidJSON           = "INVALID_JSON"
	CodeEmailExists           = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeTokenMissingUserID    = "TOKEN_MISSING_USER_ID"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeAlreadyHostOrPending  = "ALREADY_HOST_OR_PENDING"
	CodeHostProfileExists     = "HOST_PROFILE_EXISTS"
	CodeHostProfileNotFound   = "HOST_PROFILE_NOT_FOUND"
	CodeHostRequestNotPending = "HOST_REQUEST_NOT_PENDING"
	CodeInvalidFileType       = "INVALID_FILE_TYPE"
	CodeFileTooLarge          = "FILE_TOO_LARGE"
	CodeInvalidCategory       = "INVALID_CATEGORY"
	CodeInvalidStatus         = "INVALID_STATUS"
	CodeForbidden             = "FORBIDDEN"
	CodeRateLimit             = "RATE_LIMIT_EXCEEDED"
	CodeInternal              = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Code so callers can compare against a fresh constructor value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }

func Conflict(code, message string) *Error { return New(KindConflict, code, message) }

func Unauthorized(code, message string) *Error { return New(KindUnauthorized, code, message) }

func Forbidden(message string) *Error { return New(KindForbidden, CodeForbidden, message) }

func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

func BadRequest(code, message string) *Error { return New(KindBadRequest, code, message) }

func RateLimited() *Error {
	return New(KindRateLimited, CodeRateLimit, "Too many requests, please try again later")
}

// Internal hides cause from clients; it is kept for logging only.
func Internal(cause error) *Error {
	return New(KindInternal, CodeInternal, "Internal server error").WithCause(cause)
}

// From returns err as an *Error, wrapping anything foreign as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// HasCode reports whether err carries an *Error with the given code.
func HasCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
