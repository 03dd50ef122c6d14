package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/mmk-blog/internal/domain/auth"
)

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	// Get returns an error satisfying errors.Is(err, ErrSessionNotFound) for unknown or expired ids.
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// PasswordHasher derives and checks one-way password digests.
type PasswordHasher interface {
	// Hash returns an encoded digest with a fresh random salt.
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches encoded using a constant-time comparison.
	// A malformed encoding is an error; a mismatch is (false, nil).
	Verify(plaintext, encoded string) (bool, error)
}
