// Package errors defines the typed error carried from services to the HTTP
// layer. The code decides the status, and whether the caller gets to see the
// message and details.
package errors

import (
	stdErrors "errors"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeAuthFailed   Code = "AUTH_FAILED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// policy is how a code is rendered to clients. Server-side codes hide the
// message behind fallback.
type policy struct {
	status      int
	fallback    string
	showMessage bool
	showDetails bool
}

var policies = map[Code]policy{
	CodeValidation:   {http.StatusBadRequest, "validation failed", true, true},
	CodeUnauthorized: {http.StatusUnauthorized, "authentication required", true, false},
	CodeAuthFailed:   {http.StatusUnauthorized, "authentication failed", true, true},
	CodeNotFound:     {http.StatusNotFound, "resource not found", true, false},
	CodeConflict:     {http.StatusConflict, "conflict detected", true, false},
	CodeRateLimit:    {http.StatusTooManyRequests, "rate limit exceeded", true, false},
	CodeInternal:     {http.StatusInternalServerError, "internal server error", false, false},
	CodeDependency:   {http.StatusServiceUnavailable, "dependency unavailable", false, true},
}

func (c Code) policy() policy {
	if p, ok := policies[c]; ok {
		return p
	}
	return policies[CodeInternal]
}

// Status is the HTTP status for the code. Unknown codes map to 500.
func (c Code) Status() int { return c.policy().status }

// Retryable reports whether repeating the request unchanged may succeed.
func (c Code) Retryable() bool { return c.policy().status >= http.StatusInternalServerError }

// Error is a coded error with an optional cause and client-facing details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap keeps err as the cause. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

// PublicMessage is the message a client may see.
func (e *Error) PublicMessage() string {
	p := e.Code().policy()
	if p.showMessage && e.Message() != "" {
		return e.message
	}
	return p.fallback
}

// PublicDetails is nil unless the code allows details through.
func (e *Error) PublicDetails() any {
	if !e.Code().policy().showDetails {
		return nil
	}
	return e.Details()
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.code) + ": " + e.message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether err carries a typed error with the given code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
