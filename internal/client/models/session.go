package models

// Phase is the lifecycle state of the session.
type Phase string

const (
	PhaseAnonymous           Phase = "anonymous"
	PhaseRestoring           Phase = "restoring"
	PhaseAuthenticating      Phase = "authenticating"
	PhaseAuthenticated       Phase = "authenticated"
	PhaseRegistrationPending Phase = "registration_pending"
	PhaseSessionInvalid      Phase = "session_invalid"
)

// Session is an immutable snapshot of the process-wide authentication
// context. Snapshots handed out by the store share no memory with it.
//
// IsAuthenticated implies User != nil and AccessToken != "".
type Session struct {
	Phase           Phase
	IsAuthenticated bool
	User            *User
	AccessToken     string
	IsLoading       bool
	LastError       *ErrorMessage

	RegistrationPending      bool
	EmailVerificationPending bool
	VerificationSucceeded    bool
	PasswordResetRequested   bool
	PasswordResetConfirmed   bool
}

// Anonymous returns the zero-knowledge session.
func Anonymous() Session {
	return Session{Phase: PhaseAnonymous}
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	c := s
	c.User = s.User.Clone()
	if s.LastError != nil {
		e := *s.LastError
		c.LastError = &e
	}
	return c
}
