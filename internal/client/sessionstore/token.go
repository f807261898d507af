package sessionstore

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// placeholder values older clients wrote instead of removing the entry.
var placeholders = map[string]struct{}{
	"":          {},
	"undefined": {},
	"null":      {},
}

// normalizeToken strips whitespace and one layer of JSON quoting.
func normalizeToken(raw string) string {
	t := strings.TrimSpace(raw)
	if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' {
		t = strings.TrimSpace(t[1 : len(t)-1])
	}
	return t
}

// tokenUsable reports whether token is a well-formed JWT that has not
// expired at now. The signature is not checked: the client has no key and
// the backend verifies the token on every call anyway.
func tokenUsable(token string, now time.Time) bool {
	if _, ok := placeholders[token]; ok {
		return false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return false
	}
	return true
}
