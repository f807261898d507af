package gateway

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/iskr/internal/client/models"
)

// Paths of the identity API, relative to the configured base URL.
const (
	PathLogin                = "/v1/accounts/login"
	PathRegister             = "/v1/accounts/register"
	PathLogout               = "/v1/accounts/logout"
	PathCurrentUser          = "/v1/accounts/user"
	PathResetPassword        = "/v1/accounts/reset-password"
	PathResetPasswordConfirm = "/v1/accounts/reset-password-confirm"
	PathRedeemToken          = "/v1/accounts/redeem-token"
	PathChangeNickname       = "/v1/accounts/nickname"
	PathChangeUsername       = "/v1/accounts/username"
)

// RegistrationMode selects which registration contract the backend runs.
type RegistrationMode string

const (
	// RegistrationVerification leaves new accounts pending until the
	// e-mail verification token is redeemed. No token is issued.
	RegistrationVerification RegistrationMode = "verification"
	// RegistrationAutoLogin logs the new account in right away.
	RegistrationAutoLogin RegistrationMode = "autologin"
)

// ParseRegistrationMode accepts the config spelling of a mode.
func ParseRegistrationMode(s string) (RegistrationMode, error) {
	switch m := RegistrationMode(s); m {
	case RegistrationVerification, RegistrationAutoLogin:
		return m, nil
	case "":
		return RegistrationVerification, nil
	default:
		return "", fmt.Errorf("unknown registration mode %q", s)
	}
}

// Credentials is the combined result of a successful login.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         *models.User
}

// RegisterResult is the outcome of a successful registration. Pending
// results carry no credentials.
type RegisterResult struct {
	Pending     bool
	Credentials *Credentials
}

// Gateway is the client of the backend identity API. Every method returns
// either a value or an error that wraps *Error; no raw response shape leaves
// the implementation.
type Gateway interface {
	// Login exchanges credentials for a token, then fetches the profile
	// the token belongs to.
	Login(ctx context.Context, identifier, password string) (*Credentials, error)
	Register(ctx context.Context, reg models.Registration) (*RegisterResult, error)
	// RequestPasswordReset succeeds for any backend response; only a
	// transport failure is reported.
	RequestPasswordReset(ctx context.Context, login string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	RedeemEmailVerificationToken(ctx context.Context, token string) error
	FetchCurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	ChangeNickname(ctx context.Context, accessToken, nickname string) error
	ChangeUsername(ctx context.Context, accessToken, username string) error
	Logout(ctx context.Context, accessToken string) error
	RegistrationMode() RegistrationMode
}
