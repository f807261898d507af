package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dmitrijs2005/iskr/internal/client/metrics"
	"github.com/dmitrijs2005/iskr/internal/client/models"
	"github.com/dmitrijs2005/iskr/internal/logging"
)

const (
	// HeaderRequestID carries a per-request id the backend echoes in its logs.
	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

// HTTPGateway talks to the identity API over HTTP with form-encoded
// requests. Its cookie jar keeps the session cookies the backend sets
// alongside the bearer token.
type HTTPGateway struct {
	baseURL   string
	client    *http.Client
	mode      RegistrationMode
	logger    logging.Logger
	metrics   *metrics.Metrics
	requestID func() string
}

var _ Gateway = (*HTTPGateway)(nil)

type Option func(*HTTPGateway)

// WithHTTPClient replaces the default client. A client without a cookie jar
// gets none.
func WithHTTPClient(c *http.Client) Option {
	return func(g *HTTPGateway) { g.client = c }
}

func WithTimeout(d time.Duration) Option {
	return func(g *HTTPGateway) { g.client.Timeout = d }
}

func WithRegistrationMode(m RegistrationMode) Option {
	return func(g *HTTPGateway) { g.mode = m }
}

func WithLogger(l logging.Logger) Option {
	return func(g *HTTPGateway) { g.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *HTTPGateway) { g.metrics = m }
}

// New builds a gateway for the API rooted at baseURL,
// e.g. "https://iskr.example/oapi".
func New(baseURL string, opts ...Option) (*HTTPGateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	g := &HTTPGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: defaultTimeout, Jar: jar},
		mode:      RegistrationVerification,
		logger:    logging.NewNop(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *HTTPGateway) RegistrationMode() RegistrationMode { return g.mode }

func (g *HTTPGateway) Login(ctx context.Context, identifier, password string) (*Credentials, error) {
	env, err := g.do(ctx, call{
		op:     opLogin,
		method: http.MethodPost,
		path:   PathLogin,
		form:   url.Values{"username": {identifier}, "password": {password}},
	})
	if err != nil {
		return nil, err
	}
	return g.credentials(ctx, opLogin, env)
}

// credentials completes a token-issuing response with the profile it
// belongs to.
func (g *HTTPGateway) credentials(ctx context.Context, op operation, env envelope) (*Credentials, error) {
	token := firstString([]gjson.Result{env.payload}, "access_token", "token")
	if token == "" {
		return nil, &Error{Op: string(op), Kind: models.KindUnknown, Message: "response carries no access token"}
	}

	user, err := g.FetchCurrentUser(ctx, token)
	if err != nil {
		if KindOf(err) == models.KindSessionInvalid {
			// a token that is rejected right after issue is a backend fault,
			// not an expired session
			return nil, &Error{Op: string(op), Kind: models.KindUnknown, Message: MessageOf(err)}
		}
		return nil, err
	}

	return &Credentials{
		AccessToken:  token,
		RefreshToken: firstString([]gjson.Result{env.payload}, "refresh_token"),
		ExpiresIn:    env.payload.Get("expires_in").Int(),
		User:         user,
	}, nil
}

func (g *HTTPGateway) Register(ctx context.Context, reg models.Registration) (*RegisterResult, error) {
	form := url.Values{
		"username": {reg.Username},
		"password": {reg.Password},
	}
	if reg.Email != "" {
		form.Set("email", reg.Email)
	}
	firstName := reg.FirstName
	if firstName == "" {
		firstName = reg.Username
	}
	form.Set("firstName", firstName)
	form.Set("lastName", reg.LastName)

	env, err := g.do(ctx, call{op: opRegister, method: http.MethodPost, path: PathRegister, form: form})
	if err != nil {
		return nil, err
	}

	if g.mode != RegistrationAutoLogin {
		return &RegisterResult{Pending: true}, nil
	}

	// some backend versions answer with a token bundle directly
	if firstString([]gjson.Result{env.payload}, "access_token", "token") != "" {
		creds, err := g.credentials(ctx, opRegister, env)
		if err != nil {
			return nil, err
		}
		return &RegisterResult{Credentials: creds}, nil
	}

	creds, err := g.Login(ctx, reg.Username, reg.Password)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Credentials: creds}, nil
}

func (g *HTTPGateway) RequestPasswordReset(ctx context.Context, login string) error {
	_, err := g.do(ctx, call{
		op:     opResetRequest,
		method: http.MethodPost,
		path:   PathResetPassword,
		form:   url.Values{"Login": {login}},
	})
	if err == nil {
		return nil
	}

	// Any answer from the backend, whatever its status, looks the same to
	// the caller so account existence does not leak.
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return nil
	}
	return err
}

func (g *HTTPGateway) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	_, err := g.do(ctx, call{
		op:     opResetConfirm,
		method: http.MethodPost,
		path:   PathResetPasswordConfirm,
		form:   url.Values{"Token": {token}, "Password": {newPassword}},
	})
	return err
}

func (g *HTTPGateway) RedeemEmailVerificationToken(ctx context.Context, token string) error {
	_, err := g.do(ctx, call{
		op:     opRedeemToken,
		method: http.MethodPost,
		path:   PathRedeemToken,
		form:   url.Values{"Token": {token}},
	})
	return err
}

func (g *HTTPGateway) FetchCurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	env, err := g.do(ctx, call{op: opFetchUser, method: http.MethodGet, path: PathCurrentUser, token: accessToken})
	if err != nil {
		return nil, err
	}

	user, ok := parseUser(env.payload)
	if !ok {
		return nil, &Error{Op: string(opFetchUser), Kind: models.KindUnknown, Message: "malformed profile in response"}
	}
	return user, nil
}

func (g *HTTPGateway) ChangeNickname(ctx context.Context, accessToken, nickname string) error {
	_, err := g.do(ctx, call{
		op:     opNickname,
		method: http.MethodPost,
		path:   PathChangeNickname,
		form:   url.Values{"New-Nickname": {nickname}},
		token:  accessToken,
	})
	return err
}

func (g *HTTPGateway) ChangeUsername(ctx context.Context, accessToken, username string) error {
	_, err := g.do(ctx, call{
		op:     opUsername,
		method: http.MethodPost,
		path:   PathChangeUsername,
		form:   url.Values{"New-Username": {username}},
		token:  accessToken,
	})
	return err
}

func (g *HTTPGateway) Logout(ctx context.Context, accessToken string) error {
	_, err := g.do(ctx, call{
		op:     opLogout,
		method: http.MethodPost,
		path:   PathLogout,
		form:   url.Values{},
		token:  accessToken,
	})
	return err
}

type call struct {
	op     operation
	method string
	path   string
	form   url.Values
	token  string
}

// do performs c and records its outcome.
func (g *HTTPGateway) do(ctx context.Context, c call) (envelope, error) {
	start := time.Now()
	env, err := g.roundTrip(ctx, c)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(KindOf(err))
		g.logger.Warn(ctx, "identity api call failed", "operation", string(c.op), "error", err.Error())
	}
	g.metrics.ObserveRequest(string(c.op), outcome, time.Since(start))

	return env, err
}

func (g *HTTPGateway) roundTrip(ctx context.Context, c call) (envelope, error) {
	if c.op.bearer() && c.token == "" {
		return envelope{}, &Error{Op: string(c.op), Kind: models.KindSessionInvalid, Message: "no access token"}
	}

	var body io.Reader
	if c.form != nil {
		body = strings.NewReader(c.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, c.method, g.baseURL+c.path, body)
	if err != nil {
		return envelope{}, &Error{Op: string(c.op), Kind: models.KindUnknown, Message: "build request", Err: err}
	}
	if c.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, g.requestID())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return envelope{}, &Error{Op: string(c.op), Kind: models.KindTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return envelope{}, &Error{Op: string(c.op), Kind: models.KindTransport, Message: "read response", Err: err}
	}

	env := parseEnvelope(data)
	if e := classify(c.op, resp.StatusCode, env); e != nil {
		return env, e
	}
	return env, nil
}
