package gateway

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/iskr/internal/client/models"
)

// Error is the single failure shape of the gateway. Kind is
// machine-checkable; Message keeps the backend's text (or the transport
// error) for logs and error details.
type Error struct {
	Op      string
	Kind    models.ErrorKind
	Message string
	// Status is the HTTP status, 0 when no response arrived.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel *Errors by kind, so errors.Is(err, ErrUnavailable)
// holds for every transport failure regardless of operation.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Kind == e.Kind
}

var (
	ErrUnavailable         = &Error{Kind: models.KindTransport, Message: "server unavailable"}
	ErrInvalidCredentials  = &Error{Kind: models.KindInvalidCredentials, Message: "invalid credentials"}
	ErrAccountNotActivated = &Error{Kind: models.KindAccountNotActivated, Message: "account not activated"}
	ErrConflict            = &Error{Kind: models.KindConflict, Message: "already exists"}
	ErrTokenNotFound       = &Error{Kind: models.KindTokenNotFound, Message: "token not found"}
	ErrTokenExpired        = &Error{Kind: models.KindTokenExpired, Message: "token expired"}
	ErrSessionInvalid      = &Error{Kind: models.KindSessionInvalid, Message: "session invalid"}
)

// KindOf returns the kind of err: the gateway kind when err wraps an
// *Error, KindUnknown otherwise. A nil error has no kind.
func KindOf(err error) models.ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return models.KindUnknown
}

// MessageOf returns the backend message carried by err, if any.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
