// Package sessionstore holds the process-wide session state and its durable
// copy.
//
// The Store is a pure state container: it performs no network I/O. State
// changes only through Commit with one of the fixed transition kinds, and
// readers get deep-copied snapshots through Read. For transitions that
// write or clear the durable record, the write happens before the
// in-memory state changes, so the two never disagree past the commit.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/iskr/internal/client/metrics"
	"github.com/dmitrijs2005/iskr/internal/client/models"
	"github.com/dmitrijs2005/iskr/internal/logging"
)

type Store struct {
	mu       sync.RWMutex
	state    models.Session
	inflight map[Op]struct{}

	record  Record
	logger  logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides the clock used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store in the anonymous state. Call Initialize to load
// the durable record.
func New(record Record, opts ...Option) *Store {
	s := &Store{
		state:    models.Anonymous(),
		inflight: make(map[Op]struct{}),
		record:   record,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize reads the durable record and seeds the state from it. A usable
// record yields Restoring with IsAuthenticated set optimistically; anything
// else yields Anonymous. Garbage records are wiped, best effort. Initialize
// never fails.
func (s *Store) Initialize(ctx context.Context) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = models.Anonymous()
	s.inflight = make(map[Op]struct{})

	rawToken, rawUser, err := s.record.Load(ctx)
	if err != nil {
		s.logger.Warn(ctx, "session record unreadable, starting anonymous", "error", err)
		return s.state.Clone()
	}
	if strings.TrimSpace(rawToken) == "" && len(rawUser) == 0 {
		return s.state.Clone()
	}

	token, user, ok := s.parseRecord(rawToken, rawUser)
	if !ok {
		s.logger.Warn(ctx, "discarding unusable session record")
		if err := s.record.Clear(ctx); err != nil {
			s.logger.Error(ctx, "failed to clear session record", "error", err)
		}
		return s.state.Clone()
	}

	s.state = models.Session{
		Phase:                    models.PhaseRestoring,
		IsAuthenticated:          true,
		User:                     user,
		AccessToken:              token,
		EmailVerificationPending: !user.EmailVerified,
	}
	s.logger.Debug(ctx, "session record loaded", "user_id", user.ID)

	return s.state.Clone()
}

func (s *Store) parseRecord(rawToken string, rawUser []byte) (string, *models.User, bool) {
	token := normalizeToken(rawToken)
	if !tokenUsable(token, s.now()) {
		return "", nil, false
	}

	trimmed := strings.TrimSpace(string(rawUser))
	if _, placeholder := placeholders[trimmed]; placeholder {
		return "", nil, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(trimmed), &user); err != nil {
		return "", nil, false
	}
	if !user.Valid() {
		return "", nil, false
	}
	if user.Status == "" {
		user.Status = models.AccountActive
	}

	return token, &user, true
}

// Read returns a snapshot of the current session.
func (s *Store) Read() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Commit applies t. Kinds that end with the record cleared still reset the
// in-memory state when the wipe fails; the wipe error is returned. For
// every other kind a persistence failure leaves the state untouched.
// A rejected transition still settles its operation.
func (s *Store) Commit(ctx context.Context, t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.next(t)
	if err != nil {
		if t.Kind.settles() {
			delete(s.inflight, t.Op)
			s.state.IsLoading = len(s.inflight) > 0
		}
		return fmt.Errorf("%s: %w", t.Kind, err)
	}

	var persistErr error
	if err := s.persist(ctx, t.Kind, next); err != nil {
		if !t.Kind.clearsRecord() {
			return err
		}
		s.logger.Error(ctx, "failed to clear session record", "transition", t.Kind, "error", err)
		persistErr = err
	}

	switch {
	case t.Kind == TransitionBegin:
		s.inflight[t.Op] = struct{}{}
	case t.Kind.settles():
		delete(s.inflight, t.Op)
	}
	next.IsLoading = len(s.inflight) > 0

	s.state = next
	s.metrics.ObserveTransition(string(t.Kind))
	s.logger.Debug(ctx, "session transition", "transition", t.Kind, "op", t.Op, "phase", next.Phase)

	return persistErr
}

// next computes the state t leads to without side effects.
func (s *Store) next(t Transition) (models.Session, error) {
	cur := s.state.Clone()

	switch t.Kind {
	case TransitionBegin:
		cur.LastError = nil
		if t.Phase != "" {
			cur.Phase = t.Phase
		}
		switch t.Op {
		case OpReset:
			cur.PasswordResetRequested = false
			cur.PasswordResetConfirmed = false
		case OpVerify:
			cur.VerificationSucceeded = false
		}
		return cur, nil

	case TransitionLoginSuccess, TransitionSignupSuccess, TransitionRestoreSuccess:
		token := t.Token
		if token == "" && t.Kind == TransitionRestoreSuccess {
			token = cur.AccessToken
		}
		if token == "" || !t.User.Valid() {
			return cur, ErrInvalidTransition
		}
		user := t.User.Clone()
		return models.Session{
			Phase:                    models.PhaseAuthenticated,
			IsAuthenticated:          true,
			User:                     user,
			AccessToken:              token,
			EmailVerificationPending: !user.EmailVerified,
		}, nil

	case TransitionLoginFailure, TransitionSignupFailure:
		cur.LastError = t.Err
		if cur.IsAuthenticated {
			return cur, nil
		}
		cur.Phase = models.PhaseAnonymous
		if cur.RegistrationPending {
			cur.Phase = models.PhaseRegistrationPending
		}
		return cur, nil

	case TransitionSignupPendingVerification:
		if cur.IsAuthenticated {
			return cur, ErrInvalidTransition
		}
		next := models.Anonymous()
		next.Phase = models.PhaseRegistrationPending
		next.RegistrationPending = true
		next.EmailVerificationPending = true
		return next, nil

	case TransitionRestoreFailure, TransitionLogout:
		next := models.Anonymous()
		next.LastError = t.Err
		return next, nil

	case TransitionSessionInvalidated:
		next := models.Anonymous()
		next.Phase = models.PhaseSessionInvalid
		next.LastError = t.Err
		return next, nil

	case TransitionProfilePatch:
		if !cur.IsAuthenticated || !t.User.Valid() {
			return cur, ErrInvalidTransition
		}
		cur.User = t.User.Clone()
		cur.EmailVerificationPending = !cur.User.EmailVerified
		cur.LastError = nil
		return cur, nil

	case TransitionVerificationRedeemed:
		cur.RegistrationPending = false
		cur.EmailVerificationPending = false
		cur.VerificationSucceeded = true
		cur.LastError = nil
		if cur.IsAuthenticated {
			cur.User.EmailVerified = true
		} else {
			cur.Phase = models.PhaseAnonymous
		}
		return cur, nil

	case TransitionResetRequested:
		cur.PasswordResetRequested = true
		cur.LastError = nil
		return cur, nil

	case TransitionResetConfirmed:
		cur.PasswordResetConfirmed = true
		cur.LastError = nil
		return cur, nil

	case TransitionOperationFailed:
		// a nil Err only settles the operation
		if t.Err != nil {
			cur.LastError = t.Err
		}
		return cur, nil

	case TransitionErrorCleared:
		cur.LastError = nil
		return cur, nil
	}

	return cur, ErrInvalidTransition
}

// persist performs the durable side effect of kind for the state next.
func (s *Store) persist(ctx context.Context, kind TransitionKind, next models.Session) error {
	switch {
	case kind.clearsRecord():
		return s.record.Clear(ctx)

	case kind == TransitionLoginSuccess, kind == TransitionSignupSuccess, kind == TransitionRestoreSuccess:
		data, err := json.Marshal(next.User)
		if err != nil {
			return fmt.Errorf("encode session user: %w", err)
		}
		return s.record.Save(ctx, next.AccessToken, data)

	case kind == TransitionProfilePatch,
		kind == TransitionVerificationRedeemed && next.IsAuthenticated:
		data, err := json.Marshal(next.User)
		if err != nil {
			return fmt.Errorf("encode session user: %w", err)
		}
		return s.record.SaveUser(ctx, data)
	}
	return nil
}
