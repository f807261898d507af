package gateway

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dmitrijs2005/iskr/internal/client/models"
)

// operation labels a gateway call for error classification, logs and
// metrics.
type operation string

const (
	opLogin        operation = "login"
	opRegister     operation = "register"
	opLogout       operation = "logout"
	opFetchUser    operation = "fetch_user"
	opResetRequest operation = "reset_request"
	opResetConfirm operation = "reset_confirm"
	opRedeemToken  operation = "redeem_token"
	opNickname     operation = "change_nickname"
	opUsername     operation = "change_username"
)

// bearer reports whether the call runs on behalf of a session.
func (o operation) bearer() bool {
	switch o {
	case opFetchUser, opNickname, opUsername, opLogout:
		return true
	}
	return false
}

// consumesToken reports whether the call redeems a single-use token.
func (o operation) consumesToken() bool {
	return o == opResetConfirm || o == opRedeemToken
}

func (o operation) notFoundKind() models.ErrorKind {
	switch {
	case o == opLogin:
		return models.KindInvalidCredentials
	case o.bearer():
		return models.KindSessionInvalid
	case o.consumesToken():
		return models.KindTokenNotFound
	}
	return models.KindUnknown
}

func (o operation) expiredKind() models.ErrorKind {
	switch {
	case o.consumesToken():
		return models.KindTokenExpired
	case o.bearer():
		return models.KindSessionInvalid
	}
	return models.KindUnknown
}

func (o operation) unauthorizedKind() models.ErrorKind {
	switch {
	case o == opLogin:
		return models.KindInvalidCredentials
	case o.bearer():
		return models.KindSessionInvalid
	}
	return models.KindUnknown
}

// Backend state codes.
const (
	stateOK       = "OK"
	stateFail     = "Fail"
	stateNotFound = "Fail_NotFound"
	stateConflict = "Fail_Conflict"
	stateExpired  = "Fail_Expired"

	errorTypeAuthentication = "AuthenticationException"
)

// envelope is the normalized view of a response body. The payload is the
// "data" object when the backend wraps its answer, the root otherwise.
type envelope struct {
	payload    gjson.Result
	state      string
	message    string
	errorType  string
	structured bool
}

func parseEnvelope(body []byte) envelope {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return envelope{}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return envelope{}
	}

	payload := root
	if data := root.Get("data"); data.IsObject() {
		payload = data
	}

	env := envelope{
		payload:   payload,
		state:     firstString([]gjson.Result{payload, root}, "state"),
		message:   firstString([]gjson.Result{payload, root}, "message", "error_description", "error"),
		errorType: firstString([]gjson.Result{payload, root}, "errorType"),
	}
	env.structured = env.state != "" || env.message != "" || env.errorType != ""
	return env
}

// firstString returns the first non-empty string value found at any of
// paths, trying each object in order.
func firstString(objs []gjson.Result, paths ...string) string {
	for _, obj := range objs {
		for _, p := range paths {
			if r := obj.Get(p); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	}
	return ""
}

// firstResult returns the first existing value at any of paths.
func firstResult(obj gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := obj.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

// classify maps a response to nil (success) or an *Error.
func classify(op operation, status int, env envelope) *Error {
	if status >= 200 && status < 300 && (env.state == "" || env.state == stateOK) {
		return nil
	}

	msg := env.message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Op: string(op), Kind: kindFor(op, status, env), Message: msg, Status: status}
}

func kindFor(op operation, status int, env envelope) models.ErrorKind {
	switch env.state {
	case stateNotFound:
		return op.notFoundKind()
	case stateExpired:
		return op.expiredKind()
	case stateConflict:
		return models.KindConflict
	}

	if accountStateMessage(env.message) {
		return models.KindAccountNotActivated
	}

	switch status {
	case http.StatusUnauthorized:
		return op.unauthorizedKind()
	case http.StatusForbidden:
		return models.KindAccountNotActivated
	case http.StatusNotFound:
		return op.notFoundKind()
	case http.StatusConflict:
		return models.KindConflict
	case http.StatusGone:
		return op.expiredKind()
	}

	if env.errorType == errorTypeAuthentication {
		return op.unauthorizedKind()
	}
	if !env.structured && (status < 200 || status >= 300) {
		return models.KindTransport
	}
	if env.state == stateFail && op == opLogin {
		return models.KindInvalidCredentials
	}
	return models.KindUnknown
}

var accountStateHints = []string{
	"not fully set up",
	"not activated",
	"not verified",
	"disabled",
	"banned",
	"blocked",
}

// accountStateMessage recognizes identity-provider messages about an
// account that exists but may not log in.
func accountStateMessage(msg string) bool {
	m := strings.ToLower(msg)
	for _, hint := range accountStateHints {
		if strings.Contains(m, hint) {
			return true
		}
	}
	return false
}

// parseUser reads a profile from the payload. The account is either under
// "key" or, for older backends, the payload itself.
func parseUser(payload gjson.Result) (*models.User, bool) {
	key := payload.Get("key")
	if !key.IsObject() {
		key = payload
	}

	username := firstResult(key, "username", "profile.username").String()
	if username == "" {
		return nil, false
	}

	u := &models.User{
		ID:             firstResult(key, "user_id", "id").Int(),
		Username:       username,
		Nickname:       firstResult(key, "profile.nickname", "nickname").String(),
		Email:          firstResult(key, "profile.email", "email").String(),
		Role:           firstResult(key, "role", "profile.role").String(),
		EmailVerified:  firstResult(key, "profile.email_verified", "email_verified").Bool(),
		RegisteredDate: firstResult(key, "registered_date", "profile.registered_date").String(),
		Status:         models.AccountActive,
	}
	if u.Nickname == "" {
		u.Nickname = u.Username
	}
	if firstResult(key, "profile.status", "status").String() == "banned" {
		u.Status = models.AccountBanned
	}
	return u, true
}
