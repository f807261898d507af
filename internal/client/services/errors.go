package services

import "errors"

var (
	// ErrBusy is returned when an operation of the same class is already
	// in flight. The store is left untouched.
	ErrBusy = errors.New("operation already in progress")

	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrNotAuthenticated     = errors.New("not authenticated")

	// ErrAccountBanned is returned by Login and SignUp when the backend
	// accepts the credentials of a banned account.
	ErrAccountBanned = errors.New("account banned")

	// ErrSessionEnded is returned by Login and SignUp when the user logged
	// out before the backend answered. The issued session is discarded.
	ErrSessionEnded = errors.New("session ended before sign-in completed")
)
