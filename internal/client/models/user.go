// Package models defines the client-side data model of the session core:
// the authenticated user, the session snapshot and the error vocabulary
// shared by the gateway, the store and the controller.
package models

// AccountStatus is the moderation state of an account.
type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountBanned AccountStatus = "banned"
)

// User is a snapshot of the authenticated principal.
type User struct {
	ID             int64         `json:"id"`
	Username       string        `json:"username"`
	Nickname       string        `json:"nickname,omitempty"`
	Email          string        `json:"email,omitempty"`
	Role           string        `json:"role,omitempty"`
	EmailVerified  bool          `json:"email_verified"`
	Status         AccountStatus `json:"status"`
	RegisteredDate string        `json:"registered_date,omitempty"`
}

// Clone returns a copy of u, or nil for a nil receiver.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (u *User) IsBanned() bool {
	return u != nil && u.Status == AccountBanned
}

// DisplayName prefers the nickname and falls back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Valid reports whether u carries the minimum a session needs: an identity.
func (u *User) Valid() bool {
	return u != nil && u.Username != ""
}

// Registration holds the profile fields submitted at sign-up.
type Registration struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}
