package models

// ErrorKind is the machine-checkable class of a lifecycle failure.
// AccountNotActivated covers both unverified and banned accounts.
type ErrorKind string

const (
	KindTransport           ErrorKind = "transport"
	KindInvalidCredentials  ErrorKind = "invalid_credentials"
	KindAccountNotActivated ErrorKind = "account_not_activated"
	KindConflict            ErrorKind = "conflict"
	KindTokenNotFound       ErrorKind = "token_not_found"
	KindTokenExpired        ErrorKind = "token_expired"
	KindSessionInvalid      ErrorKind = "session_invalid"
	KindValidation          ErrorKind = "validation"
	KindUnknown             ErrorKind = "unknown"
)

// ErrorMessage is the single user-visible error of a session.
// Text is localized; Detail keeps the backend's own message, if any.
type ErrorMessage struct {
	Kind   ErrorKind
	Text   string
	Detail string
}

func (m *ErrorMessage) String() string {
	if m == nil {
		return ""
	}
	return m.Text
}
