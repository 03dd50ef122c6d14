package auth

// Package auth contains domain-level types for accounts, sessions and request identity.
// It is pure and free of framework/adapter concerns.

import "time"

// User is a registered account. PasswordHash is an opaque string produced by
// the password hasher and must never leave the server.
type User struct {
	ID           int64     `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	PasswordHash string    `json:"-"          db:"password"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Session is the server-side record behind the opaque session cookie.
// UserID is zero when the session carries no user.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HasUser reports whether the session is bound to a user id.
func (s Session) HasUser() bool { return s.UserID > 0 }

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt) }

// Identity is the per-request principal: either anonymous or a loaded user.
// The zero value is anonymous.
type Identity struct {
	user *User
}

// Anonymous returns the identity of a caller without a resolved user.
func Anonymous() Identity { return Identity{} }

// IdentityOf returns the identity for a loaded user; a nil user yields anonymous.
func IdentityOf(u *User) Identity {
	if u == nil {
		return Identity{}
	}
	cp := *u
	return Identity{user: &cp}
}

// IsAnonymous reports whether no user is bound.
func (i Identity) IsAnonymous() bool { return i.user == nil }

// User returns a copy of the bound user, or nil when anonymous.
func (i Identity) User() *User {
	if i.user == nil {
		return nil
	}
	cp := *i.user
	return &cp
}

// UserID returns the bound user's id, or zero when anonymous.
func (i Identity) UserID() int64 {
	if i.user == nil {
		return 0
	}
	return i.user.ID
}

// Username returns the bound user's name, or "" when anonymous.
func (i Identity) Username() string {
	if i.user == nil {
		return ""
	}
	return i.user.Username
}

// Owns reports whether the identity is the author with the given id.
func (i Identity) Owns(authorID int64) bool {
	return i.user != nil && i.user.ID == authorID
}
