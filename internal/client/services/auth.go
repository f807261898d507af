// Package services contains application services for the iskr client.
// This file defines the auth lifecycle controller: it turns user intents
// into gateway calls and commits their outcome to the session store.
package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/iskr/internal/client/gateway"
	"github.com/dmitrijs2005/iskr/internal/client/models"
	"github.com/dmitrijs2005/iskr/internal/client/sessionstore"
	"github.com/dmitrijs2005/iskr/internal/logging"
)

// AuthService defines the session lifecycle operations for the CLI.
//
// Contract:
//   - Start: load the durable record and, if it holds a session, restore it
//     against the server. Restore failures are silent.
//   - CheckAuth: restore a pending session or refresh the current one.
//   - Login / SignUp: only from a non-authenticated state.
//   - Logout: always ends anonymous with the record cleared; the server is
//     told in the background.
//   - Password reset and verification intents work in any state.
//   - ChangeNickname / ChangeUsername: authenticated only.
//   - ReportUnauthorized: a 401 observed elsewhere invalidates the session.
//   - ClearError: dismiss the shown error.
//   - Snapshot: read the current session.
//   - Close: wait for background calls.
//
// A call of an operation class that is already in flight returns ErrBusy.
// Gateway failures are returned and also recorded as the session's
// LastError. Once started, a gateway call is not cancelled by ctx.
type AuthService interface {
	Start(ctx context.Context) error
	CheckAuth(ctx context.Context) error
	Login(ctx context.Context, identifier, password string) error
	SignUp(ctx context.Context, reg models.Registration) error
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, login string) error
	ConfirmPasswordReset(ctx context.Context, token, password string) error
	RedeemToken(ctx context.Context, token string) error
	ChangeNickname(ctx context.Context, nickname string) error
	ChangeUsername(ctx context.Context, username string) error
	ReportUnauthorized(ctx context.Context) error
	ClearError(ctx context.Context) error
	Snapshot() models.Session
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a gateway and the
// process-wide session store.
type authService struct {
	gw     gateway.Gateway
	store  *sessionstore.Store
	logger logging.Logger

	mu       sync.Mutex
	inflight map[sessionstore.Op]struct{}
	// ended counts sessions ended by Logout or ReportUnauthorized.
	ended uint64

	background sync.WaitGroup
}

// NewAuthService constructs an AuthService bound to the given gateway and store.
func NewAuthService(gw gateway.Gateway, store *sessionstore.Store, logger logging.Logger) AuthService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &authService{
		gw:       gw,
		store:    store,
		logger:   logger,
		inflight: make(map[sessionstore.Op]struct{}),
	}
}

// acquire marks all ops in flight, or none of them if any already is.
func (a *authService) acquire(ops ...sessionstore.Op) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, op := range ops {
		if _, busy := a.inflight[op]; busy {
			return false
		}
	}
	for _, op := range ops {
		a.inflight[op] = struct{}{}
	}
	return true
}

func (a *authService) release(ops ...sessionstore.Op) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, op := range ops {
		delete(a.inflight, op)
	}
}

func (a *authService) generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ended
}

func (a *authService) endSession() {
	a.mu.Lock()
	a.ended++
	a.mu.Unlock()
}

// superseded reports whether the session was ended explicitly since gen
// was taken.
func (a *authService) superseded(gen uint64) bool {
	return a.generation() != gen
}

// commit applies t even when the caller's ctx is already done.
func (a *authService) commit(ctx context.Context, t sessionstore.Transition) error {
	err := a.store.Commit(context.WithoutCancel(ctx), t)
	if err != nil {
		a.logger.Error(ctx, "session commit failed", "transition", string(t.Kind), "error", err)
	}
	return err
}

// current reports whether token still identifies the live session. Results
// of calls made with an older token are dropped.
func (a *authService) current(token string) bool {
	s := a.store.Read()
	return s.IsAuthenticated && s.AccessToken == token
}

func (a *authService) Start(ctx context.Context) error {
	s := a.store.Initialize(ctx)
	if s.Phase != models.PhaseRestoring {
		return nil
	}
	return a.restore(ctx)
}

func (a *authService) CheckAuth(ctx context.Context) error {
	s := a.store.Read()
	switch {
	case s.Phase == models.PhaseRestoring:
		return a.restore(ctx)
	case s.IsAuthenticated:
		return a.refresh(ctx)
	}
	return nil
}

func (a *authService) restore(ctx context.Context) error {
	if !a.acquire(sessionstore.OpSession) {
		return ErrBusy
	}
	defer a.release(sessionstore.OpSession)

	gen := a.generation()
	s := a.store.Read()
	if s.Phase != models.PhaseRestoring {
		return nil
	}
	if err := a.commit(ctx, sessionstore.Begin(sessionstore.OpSession, "")); err != nil {
		return err
	}

	user, err := a.gw.FetchCurrentUser(context.WithoutCancel(ctx), s.AccessToken)
	if a.superseded(gen) || !a.restoring(s.AccessToken) {
		a.logger.Debug(ctx, "session ended during restore, result dropped")
		return a.commit(ctx, sessionstore.Failed(sessionstore.OpSession, nil))
	}
	if err != nil {
		a.logger.Info(ctx, "stored session not restored", "kind", string(gateway.KindOf(err)))
		return a.commit(ctx, sessionstore.Transition{Kind: sessionstore.TransitionRestoreFailure, Op: sessionstore.OpSession})
	}
	if user.IsBanned() {
		return a.forceLogout(ctx, sessionstore.OpSession, s.AccessToken, user)
	}

	a.logger.Info(ctx, "session restored", "user_id", user.ID)
	return a.commit(ctx, sessionstore.Transition{
		Kind:  sessionstore.TransitionRestoreSuccess,
		Op:    sessionstore.OpSession,
		Token: s.AccessToken,
		User:  user,
	})
}

// restoring reports whether token still belongs to the session being
// restored.
func (a *authService) restoring(token string) bool {
	s := a.store.Read()
	return s.Phase == models.PhaseRestoring && s.AccessToken == token
}

// refresh re-reads the profile of an authenticated session. It commits
// nothing unless the profile changed or the session is gone.
func (a *authService) refresh(ctx context.Context) error {
	if !a.acquire(sessionstore.OpSession) {
		return ErrBusy
	}
	defer a.release(sessionstore.OpSession)

	s := a.store.Read()
	if !s.IsAuthenticated {
		return nil
	}

	user, err := a.gw.FetchCurrentUser(context.WithoutCancel(ctx), s.AccessToken)
	if err != nil {
		if gateway.KindOf(err) != models.KindSessionInvalid {
			a.logger.Warn(ctx, "session refresh failed", "error", err)
			return err
		}
		if !a.current(s.AccessToken) {
			return nil
		}
		a.logger.Info(ctx, "session invalidated by server", "user_id", s.User.ID)
		if cerr := a.commit(ctx, sessionstore.Transition{
			Kind: sessionstore.TransitionSessionInvalidated,
			Err:  messageFor(err),
		}); cerr != nil {
			return cerr
		}
		return err
	}

	if !a.current(s.AccessToken) {
		return nil
	}
	if user.IsBanned() {
		return a.forceLogout(ctx, "", s.AccessToken, user)
	}
	if *user == *s.User {
		return nil
	}
	return a.commit(ctx, sessionstore.Transition{Kind: sessionstore.TransitionProfilePatch, User: user})
}

// forceLogout ends the session of a banned account and tells the server.
func (a *authService) forceLogout(ctx context.Context, op sessionstore.Op, token string, user *models.User) error {
	a.logger.Warn(ctx, "account banned, ending session", "user_id", user.ID)
	a.logoutRemote(ctx, token)
	return a.commit(ctx, sessionstore.Transition{
		Kind: sessionstore.TransitionSessionInvalidated,
		Op:   op,
		Err:  bannedMessage(),
	})
}

func (a *authService) Login(ctx context.Context, identifier, password string) error {
	if !a.acquire(sessionstore.OpSession) {
		return ErrBusy
	}
	defer a.release(sessionstore.OpSession)

	gen := a.generation()
	if a.store.Read().IsAuthenticated {
		return ErrAlreadyAuthenticated
	}
	if err := a.commit(ctx, sessionstore.Begin(sessionstore.OpSession, models.PhaseAuthenticating)); err != nil {
		return err
	}

	creds, err := a.gw.Login(context.WithoutCancel(ctx), identifier, password)
	if err == nil && a.superseded(gen) {
		return a.dropCredentials(ctx, sessionstore.OpSession, creds)
	}
	if err != nil {
		a.logger.Info(ctx, "login failed", "kind", string(gateway.KindOf(err)))
		_ = a.commit(ctx, sessionstore.Transition{
			Kind: sessionstore.TransitionLoginFailure,
			Op:   sessionstore.OpSession,
			Err:  messageFor(err),
		})
		return err
	}

	if creds.User.IsBanned() {
		a.logger.Warn(ctx, "login of banned account rejected", "user_id", creds.User.ID)
		a.logoutRemote(ctx, creds.AccessToken)
		_ = a.commit(ctx, sessionstore.Transition{
			Kind: sessionstore.TransitionLoginFailure,
			Op:   sessionstore.OpSession,
			Err:  bannedMessage(),
		})
		return ErrAccountBanned
	}

	a.logger.Info(ctx, "logged in", "user_id", creds.User.ID)
	return a.commit(ctx, sessionstore.Transition{
		Kind:  sessionstore.TransitionLoginSuccess,
		Op:    sessionstore.OpSession,
		Token: creds.AccessToken,
		User:  creds.User,
	})
}

func (a *authService) SignUp(ctx context.Context, reg models.Registration) error {
	autoLogin := a.gw.RegistrationMode() == gateway.RegistrationAutoLogin

	ops := []sessionstore.Op{sessionstore.OpSignup}
	phase := models.Phase("")
	if autoLogin {
		ops = append(ops, sessionstore.OpSession)
		phase = models.PhaseAuthenticating
	}
	if !a.acquire(ops...) {
		return ErrBusy
	}
	defer a.release(ops...)

	gen := a.generation()
	if a.store.Read().IsAuthenticated {
		return ErrAlreadyAuthenticated
	}
	if err := a.commit(ctx, sessionstore.Begin(sessionstore.OpSignup, phase)); err != nil {
		return err
	}

	res, err := a.gw.Register(context.WithoutCancel(ctx), reg)
	if err != nil {
		a.logger.Info(ctx, "registration failed", "kind", string(gateway.KindOf(err)))
		_ = a.commit(ctx, sessionstore.Transition{
			Kind: sessionstore.TransitionSignupFailure,
			Op:   sessionstore.OpSignup,
			Err:  messageFor(err),
		})
		return err
	}

	if res.Pending {
		a.logger.Info(ctx, "registration pending email verification")
		return a.commit(ctx, sessionstore.Transition{Kind: sessionstore.TransitionSignupPendingVerification, Op: sessionstore.OpSignup})
	}

	creds := res.Credentials
	if a.superseded(gen) {
		return a.dropCredentials(ctx, sessionstore.OpSignup, creds)
	}
	if creds.User.IsBanned() {
		a.logoutRemote(ctx, creds.AccessToken)
		_ = a.commit(ctx, sessionstore.Transition{
			Kind: sessionstore.TransitionSignupFailure,
			Op:   sessionstore.OpSignup,
			Err:  bannedMessage(),
		})
		return ErrAccountBanned
	}

	a.logger.Info(ctx, "registered and logged in", "user_id", creds.User.ID)
	return a.commit(ctx, sessionstore.Transition{
		Kind:  sessionstore.TransitionSignupSuccess,
		Op:    sessionstore.OpSignup,
		Token: creds.AccessToken,
		User:  creds.User,
	})
}

// dropCredentials discards a session issued after the user logged out and
// revokes it on the server.
func (a *authService) dropCredentials(ctx context.Context, op sessionstore.Op, creds *gateway.Credentials) error {
	a.logger.Info(ctx, "session ended while signing in, credentials dropped", "op", string(op))
	a.logoutRemote(ctx, creds.AccessToken)
	if err := a.commit(ctx, sessionstore.Failed(op, nil)); err != nil {
		return err
	}
	return ErrSessionEnded
}

// Logout clears the local session first. The server call runs in the
// background with the token captured here.
func (a *authService) Logout(ctx context.Context) error {
	token := a.store.Read().AccessToken

	a.endSession()
	err := a.commit(ctx, sessionstore.Transition{Kind: sessionstore.TransitionLogout})
	if token != "" {
		a.logoutRemote(ctx, token)
	}
	a.logger.Info(ctx, "logged out")
	return err
}

// logoutRemote invalidates token on the server, best effort.
func (a *authService) logoutRemote(ctx context.Context, token string) {
	ctx = context.WithoutCancel(ctx)
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		if err := a.gw.Logout(ctx, token); err != nil {
			a.logger.Warn(ctx, "server logout failed", "error", err)
		}
	}()
}

func (a *authService) RequestPasswordReset(ctx context.Context, login string) error {
	return a.tokenOp(ctx, sessionstore.OpReset, sessionstore.TransitionResetRequested, func(ctx context.Context) error {
		return a.gw.RequestPasswordReset(ctx, login)
	})
}

func (a *authService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	return a.tokenOp(ctx, sessionstore.OpReset, sessionstore.TransitionResetConfirmed, func(ctx context.Context) error {
		return a.gw.ConfirmPasswordReset(ctx, token, password)
	})
}

func (a *authService) RedeemToken(ctx context.Context, token string) error {
	return a.tokenOp(ctx, sessionstore.OpVerify, sessionstore.TransitionVerificationRedeemed, func(ctx context.Context) error {
		return a.gw.RedeemEmailVerificationToken(ctx, token)
	})
}

// tokenOp runs an intent that works regardless of the auth state.
func (a *authService) tokenOp(ctx context.Context, op sessionstore.Op, success sessionstore.TransitionKind,
	call func(context.Context) error) error {
	if !a.acquire(op) {
		return ErrBusy
	}
	defer a.release(op)

	if err := a.commit(ctx, sessionstore.Begin(op, "")); err != nil {
		return err
	}

	if err := call(context.WithoutCancel(ctx)); err != nil {
		a.logger.Info(ctx, "operation failed", "op", string(op), "kind", string(gateway.KindOf(err)))
		_ = a.commit(ctx, sessionstore.Failed(op, messageFor(err)))
		return err
	}
	return a.commit(ctx, sessionstore.Transition{Kind: success, Op: op})
}

func (a *authService) ChangeNickname(ctx context.Context, nickname string) error {
	return a.profileOp(ctx,
		func(ctx context.Context, token string) error { return a.gw.ChangeNickname(ctx, token, nickname) },
		func(u *models.User) { u.Nickname = nickname },
	)
}

func (a *authService) ChangeUsername(ctx context.Context, username string) error {
	return a.profileOp(ctx,
		func(ctx context.Context, token string) error { return a.gw.ChangeUsername(ctx, token, username) },
		func(u *models.User) { u.Username = username },
	)
}

// profileOp runs an edit of the authenticated profile and patches the
// session user with apply once the server accepted it.
func (a *authService) profileOp(ctx context.Context, call func(context.Context, string) error, apply func(*models.User)) error {
	op := sessionstore.OpProfile
	if !a.acquire(op) {
		return ErrBusy
	}
	defer a.release(op)

	s := a.store.Read()
	if !s.IsAuthenticated {
		return ErrNotAuthenticated
	}
	if err := a.commit(ctx, sessionstore.Begin(op, "")); err != nil {
		return err
	}

	err := call(context.WithoutCancel(ctx), s.AccessToken)
	if !a.current(s.AccessToken) {
		// session changed underneath; settle without touching it
		_ = a.commit(ctx, sessionstore.Failed(op, nil))
		return err
	}
	if err != nil {
		kind := sessionstore.TransitionOperationFailed
		if gateway.KindOf(err) == models.KindSessionInvalid {
			kind = sessionstore.TransitionSessionInvalidated
		}
		_ = a.commit(ctx, sessionstore.Transition{Kind: kind, Op: op, Err: messageFor(err)})
		return err
	}

	user := s.User.Clone()
	apply(user)
	if user.Nickname == "" {
		user.Nickname = user.Username
	}
	return a.commit(ctx, sessionstore.Transition{Kind: sessionstore.TransitionProfilePatch, Op: op, User: user})
}

func (a *authService) ReportUnauthorized(ctx context.Context) error {
	if !a.store.Read().IsAuthenticated {
		return nil
	}
	a.endSession()
	return a.commit(ctx, sessionstore.Transition{
		Kind: sessionstore.TransitionSessionInvalidated,
		Err:  kindMessage(models.KindSessionInvalid),
	})
}

func (a *authService) ClearError(ctx context.Context) error {
	return a.commit(ctx, sessionstore.Transition{Kind: sessionstore.TransitionErrorCleared})
}

func (a *authService) Snapshot() models.Session {
	return a.store.Read()
}

// Close waits for background server calls until ctx is done.
func (a *authService) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("background calls still running"), ctx.Err())
	}
}
