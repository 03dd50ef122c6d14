// Package hasher implements ports.PasswordHasher with bcrypt and argon2id.
//
// Hasher writes new digests with one configured algorithm but verifies any
// supported encoding, so changing the algorithm does not lock out accounts
// created before the change.
package hasher

import (
	"errors"
	"strings"

	"github.com/target/mmk-blog/internal/ports"
)

// ErrUnknownEncoding is returned by Verify for digests no supported algorithm produced.
var ErrUnknownEncoding = errors.New("unrecognized password hash encoding")

// ErrPasswordTooLong is returned by bcrypt hashing for inputs over 72 bytes.
var ErrPasswordTooLong = ports.ErrPasswordTooLong

// Algorithm names a hash family.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Options configures New.
type Options struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Argon2Params
}

// Hasher hashes with its primary algorithm and verifies by digest prefix.
type Hasher struct {
	primary ports.PasswordHasher
	bcrypt  *BcryptHasher
	argon2  *Argon2idHasher
}

// New builds a Hasher. Unknown algorithms fall back to bcrypt.
func New(opts Options) (*Hasher, error) {
	bh := NewBcryptHasher(opts.BcryptCost)
	ah, err := NewArgon2idHasher(opts.Argon2)
	if err != nil {
		return nil, err
	}

	h := &Hasher{primary: bh, bcrypt: bh, argon2: ah}
	if opts.Algorithm == AlgorithmArgon2id {
		h.primary = ah
	}
	return h, nil
}

// Hash encodes plaintext with the primary algorithm.
func (h *Hasher) Hash(plaintext string) (string, error) {
	return h.primary.Hash(plaintext)
}

// Verify checks plaintext against a digest produced by either algorithm.
func (h *Hasher) Verify(plaintext, encoded string) (bool, error) {
	switch {
	case isBcrypt(encoded):
		return h.bcrypt.Verify(plaintext, encoded)
	case strings.HasPrefix(encoded, argon2Prefix):
		return h.argon2.Verify(plaintext, encoded)
	default:
		return false, ErrUnknownEncoding
	}
}

func isBcrypt(encoded string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, p) {
			return true
		}
	}
	return false
}
