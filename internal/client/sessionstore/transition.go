package sessionstore

import (
	"errors"

	"github.com/dmitrijs2005/iskr/internal/client/models"
)

// ErrInvalidTransition is returned by Commit for transitions that would
// break the session invariants (e.g. authenticated without a token).
var ErrInvalidTransition = errors.New("invalid session transition")

// Op is an operation class. Operations of different classes may be in
// flight at the same time; the controller allows one per class.
type Op string

const (
	OpSession Op = "session" // login and restore
	OpSignup  Op = "signup"
	OpReset   Op = "reset"
	OpVerify  Op = "verify"
	OpProfile Op = "profile"
)

// TransitionKind names one of the fixed state changes the store accepts.
// The value doubles as the metrics label.
type TransitionKind string

const (
	TransitionBegin                     TransitionKind = "begin"
	TransitionLoginSuccess              TransitionKind = "login_success"
	TransitionLoginFailure              TransitionKind = "login_failure"
	TransitionSignupSuccess             TransitionKind = "signup_success"
	TransitionSignupPendingVerification TransitionKind = "signup_pending_verification"
	TransitionSignupFailure             TransitionKind = "signup_failure"
	TransitionRestoreSuccess            TransitionKind = "restore_success"
	TransitionRestoreFailure            TransitionKind = "restore_failure"
	TransitionLogout                    TransitionKind = "logout"
	TransitionSessionInvalidated        TransitionKind = "session_invalidated"
	TransitionProfilePatch              TransitionKind = "profile_patch"
	TransitionVerificationRedeemed      TransitionKind = "verification_redeemed"
	TransitionResetRequested            TransitionKind = "reset_requested"
	TransitionResetConfirmed            TransitionKind = "reset_confirmed"
	TransitionOperationFailed           TransitionKind = "operation_failed"
	TransitionErrorCleared              TransitionKind = "error_cleared"
)

// Transition is one request to change the session.
//
// Phase is only read by TransitionBegin. Token and User are read by the
// success and patch kinds; Err by the failure kinds.
type Transition struct {
	Kind  TransitionKind
	Op    Op
	Phase models.Phase
	Token string
	User  *models.User
	Err   *models.ErrorMessage
}

// clearsRecord reports whether the kind ends with the durable record wiped.
// For these kinds the in-memory reset happens even if the wipe fails.
func (k TransitionKind) clearsRecord() bool {
	switch k {
	case TransitionSignupPendingVerification, TransitionRestoreFailure,
		TransitionLogout, TransitionSessionInvalidated:
		return true
	}
	return false
}

// settles reports whether the kind terminates its operation.
func (k TransitionKind) settles() bool {
	return k != TransitionBegin && k != TransitionErrorCleared
}

// Helpers for the common transitions.

func Begin(op Op, phase models.Phase) Transition {
	return Transition{Kind: TransitionBegin, Op: op, Phase: phase}
}

// Failed settles op with msg as the shown error. With a nil msg the
// session is left as it is.
func Failed(op Op, msg *models.ErrorMessage) Transition {
	return Transition{Kind: TransitionOperationFailed, Op: op, Err: msg}
}
