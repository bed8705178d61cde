// Package apperr defines the error taxonomy shared by the API layers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind represents a category of failure.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindBusy        Kind = "busy"
	KindUnavailable Kind = "unavailable"
	KindTimeout     Kind = "timeout"
	KindInternal    Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindValidation:  http.StatusBadRequest,
	KindBusy:        http.StatusConflict,
	KindUnavailable: http.StatusServiceUnavailable,
	KindTimeout:     http.StatusGatewayTimeout,
	KindInternal:    http.StatusInternalServerError,
}

// Error is a categorized application error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string, cause error) *Error  { return New(KindValidation, message, cause) }
func Busy(message string, cause error) *Error        { return New(KindBusy, message, cause) }
func Unavailable(message string, cause error) *Error { return New(KindUnavailable, message, cause) }

// KindOf reports the Kind of err. Context deadlines map to KindTimeout and
// anything unclassified to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// StatusCode extracts the HTTP status code for err.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return statusByKind[KindOf(err)]
}
