package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dmitrijs2005/iskr/internal/client/models"
)

func TestParseEnvelope_WrappedAndBare(t *testing.T) {
	wrapped := parseEnvelope([]byte(`{"data":{"state":"Fail_NotFound","message":"no such token"},"meta":{"processedBy":"bus"}}`))
	assert.Equal(t, "Fail_NotFound", wrapped.state)
	assert.Equal(t, "no such token", wrapped.message)
	assert.True(t, wrapped.structured)

	bare := parseEnvelope([]byte(`{"state":"OK","key":{"username":"alice"}}`))
	assert.Equal(t, "OK", bare.state)
	assert.Equal(t, "alice", bare.payload.Get("key.username").String())

	bus := parseEnvelope([]byte(`{"message":"Invalid credentials","errorType":"AuthenticationException","rootCause":"401"}`))
	assert.Equal(t, errorTypeAuthentication, bus.errorType)
	assert.Equal(t, "Invalid credentials", bus.message)

	keycloak := parseEnvelope([]byte(`{"error":"invalid_grant","error_description":"Account disabled"}`))
	assert.Equal(t, "Account disabled", keycloak.message)

	for _, body := range []string{"", "<html>502</html>", `"just a string"`, `[1,2]`} {
		env := parseEnvelope([]byte(body))
		assert.False(t, env.structured, body)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		op     operation
		status int
		body   string
		want   models.ErrorKind
	}{
		{name: "ok bare", op: opLogin, status: 200, body: `{"access_token":"t"}`, want: ""},
		{name: "ok state", op: opFetchUser, status: 200, body: `{"state":"OK"}`, want: ""},
		{name: "ok empty body", op: opLogout, status: 204, body: ``, want: ""},
		{name: "login fail state", op: opLogin, status: 200, body: `{"state":"Fail","message":"Invalid credentials"}`, want: models.KindInvalidCredentials},
		{name: "login 401 bus", op: opLogin, status: 401, body: `{"message":"Invalid credentials","errorType":"AuthenticationException"}`, want: models.KindInvalidCredentials},
		{name: "login 401 no body", op: opLogin, status: 401, body: ``, want: models.KindInvalidCredentials},
		{name: "login account not set up", op: opLogin, status: 400, body: `{"error":"invalid_grant","error_description":"Account is not fully set up"}`, want: models.KindAccountNotActivated},
		{name: "login 403", op: opLogin, status: 403, body: `{"message":"forbidden"}`, want: models.KindAccountNotActivated},
		{name: "login unknown user", op: opLogin, status: 200, body: `{"data":{"state":"Fail_NotFound"}}`, want: models.KindInvalidCredentials},
		{name: "register conflict state", op: opRegister, status: 200, body: `{"data":{"state":"Fail_Conflict","message":"exists"}}`, want: models.KindConflict},
		{name: "register 409", op: opRegister, status: 409, body: `{"message":"exists"}`, want: models.KindConflict},
		{name: "fetch user 401", op: opFetchUser, status: 401, body: ``, want: models.KindSessionInvalid},
		{name: "fetch user 404", op: opFetchUser, status: 404, body: `{"message":"nope"}`, want: models.KindSessionInvalid},
		{name: "fetch user not found state", op: opFetchUser, status: 200, body: `{"state":"Fail_NotFound","message":"gone"}`, want: models.KindSessionInvalid},
		{name: "fetch user auth exception 500", op: opFetchUser, status: 500, body: `{"message":"expired","errorType":"AuthenticationException"}`, want: models.KindSessionInvalid},
		{name: "nickname expired", op: opNickname, status: 200, body: `{"state":"Fail_Expired"}`, want: models.KindSessionInvalid},
		{name: "redeem not found", op: opRedeemToken, status: 200, body: `{"data":{"state":"Fail_NotFound","message":"x"}}`, want: models.KindTokenNotFound},
		{name: "redeem 404", op: opRedeemToken, status: 404, body: ``, want: models.KindTokenNotFound},
		{name: "confirm expired", op: opResetConfirm, status: 200, body: `{"state":"Fail_Expired","message":"x"}`, want: models.KindTokenExpired},
		{name: "confirm gone", op: opResetConfirm, status: 410, body: ``, want: models.KindTokenExpired},
		{name: "confirm generic fail", op: opResetConfirm, status: 200, body: `{"state":"Fail","message":"weak password"}`, want: models.KindUnknown},
		{name: "502 html", op: opLogin, status: 502, body: `<html>bad gateway</html>`, want: models.KindTransport},
		{name: "400 no body", op: opRegister, status: 400, body: ``, want: models.KindTransport},
		{name: "500 structured", op: opRegister, status: 500, body: `{"message":"ServiceFall","errorType":"ServiceFall"}`, want: models.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := classify(tt.op, tt.status, parseEnvelope([]byte(tt.body)))
			if tt.want == "" {
				require.Nil(t, e)
				return
			}
			require.NotNil(t, e)
			assert.Equal(t, tt.want, e.Kind)
			assert.Equal(t, tt.status, e.Status)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestParseUser(t *testing.T) {
	t.Run("key envelope with profile", func(t *testing.T) {
		u, ok := parseUser(gjson.Parse(`{"state":"OK","key":{"user_id":42,"username":"alice","role":"user","registered_date":"2024-01-01",
			"profile":{"nickname":"Al","email":"a@x.io","email_verified":true,"status":"notBanned"}}}`))
		require.True(t, ok)
		assert.Equal(t, &models.User{
			ID: 42, Username: "alice", Nickname: "Al", Email: "a@x.io", Role: "user",
			EmailVerified: true, Status: models.AccountActive, RegisteredDate: "2024-01-01",
		}, u)
	})

	t.Run("bare payload, string id, nickname falls back", func(t *testing.T) {
		u, ok := parseUser(gjson.Parse(`{"id":"7","username":"bob"}`))
		require.True(t, ok)
		assert.Equal(t, int64(7), u.ID)
		assert.Equal(t, "bob", u.Nickname)
		assert.False(t, u.EmailVerified)
	})

	t.Run("banned", func(t *testing.T) {
		u, ok := parseUser(gjson.Parse(`{"key":{"user_id":1,"username":"eve","profile":{"status":"banned"}}}`))
		require.True(t, ok)
		assert.True(t, u.IsBanned())
	})

	t.Run("no username", func(t *testing.T) {
		_, ok := parseUser(gjson.Parse(`{"key":{"user_id":1}}`))
		require.False(t, ok)
	})
}
