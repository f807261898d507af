// Package gateway is the HTTP client of the iskr identity API.
//
// # Overview
//
// The gateway turns lifecycle intents (login, register, password reset,
// e-mail verification, profile fetch, logout) into form-encoded requests
// and normalizes the backend's response envelopes. Depending on the backend
// version the payload is wrapped in "data" or sent bare; token and profile
// fields live at different depths. None of that escapes: callers receive
// typed results or an *Error.
//
// # Error Handling
//
// Every failure wraps *Error with a models.ErrorKind:
//
//   - KindTransport: no response, timeout, or a non-2xx answer without a
//     structured body.
//   - KindInvalidCredentials, KindAccountNotActivated: login refusals.
//   - KindConflict: duplicate username or e-mail at registration.
//   - KindTokenNotFound, KindTokenExpired: single-use token failures.
//   - KindSessionInvalid: a bearer call rejected with 401/404.
//   - KindUnknown: anything else.
//
// Match with errors.Is against the exported sentinels (ErrUnavailable,
// ErrSessionInvalid, ...) or read the kind with KindOf.
//
// # Registration
//
// Two backend contracts exist. RegistrationVerification (the default)
// leaves the account pending e-mail verification and issues no token.
// RegistrationAutoLogin logs the new account in within the same call.
// The mode is fixed at construction with WithRegistrationMode.
package gateway
