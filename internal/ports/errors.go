package ports

import "errors"

// ErrSessionNotFound is returned by SessionStore.Get for missing or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// ErrPasswordTooLong is returned by PasswordHasher.Hash when the algorithm cannot accept the input length.
var ErrPasswordTooLong = errors.New("password too long")
