package config

import (
	"fmt"
	"strings"
	"time"
)

// PasswordAlgorithm selects the hash used for newly stored passwords.
type PasswordAlgorithm string

const (
	// PasswordAlgorithmBcrypt stores bcrypt hashes.
	PasswordAlgorithmBcrypt PasswordAlgorithm = "bcrypt"
	// PasswordAlgorithmArgon2id stores argon2id hashes in PHC string format.
	PasswordAlgorithmArgon2id PasswordAlgorithm = "argon2id"
)

// UnmarshalText implements encoding.TextUnmarshaler for PasswordAlgorithm.
func (a *PasswordAlgorithm) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "bcrypt", "argon2id":
		*a = PasswordAlgorithm(v)
		return nil
	default:
		return fmt.Errorf("invalid PasswordAlgorithm: %q (valid options: bcrypt, argon2id)", v)
	}
}

const (
	minSessionTTL     = time.Minute
	minBcryptCost     = 4
	maxBcryptCost     = 31
	minArgon2MemoryKB = 8 * 1024
)

// SessionConfig controls server-side session storage.
type SessionConfig struct {
	// TTL is how long a login session stays valid.
	TTL time.Duration `env:"TTL" envDefault:"24h"`
	// KeyPrefix namespaces session keys in Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"session:"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.TTL < minSessionTTL {
		s.TTL = minSessionTTL
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "session:"
	}
}

// PasswordConfig controls password hashing.
type PasswordConfig struct {
	Algorithm  PasswordAlgorithm `env:"ALGORITHM"  envDefault:"bcrypt"`
	BcryptCost int               `env:"BCRYPT_COST" envDefault:"12"`

	Argon2MemoryKB    uint32 `env:"ARGON2_MEMORY_KB"   envDefault:"65536"`
	Argon2Time        uint32 `env:"ARGON2_TIME"        envDefault:"3"`
	Argon2Parallelism uint8  `env:"ARGON2_PARALLELISM" envDefault:"2"`
}

// Sanitize applies guardrails to password hashing configuration values.
func (p *PasswordConfig) Sanitize() {
	if p.Algorithm == "" {
		p.Algorithm = PasswordAlgorithmBcrypt
	}
	if p.BcryptCost < minBcryptCost {
		p.BcryptCost = minBcryptCost
	}
	if p.BcryptCost > maxBcryptCost {
		p.BcryptCost = maxBcryptCost
	}
	if p.Argon2MemoryKB < minArgon2MemoryKB {
		p.Argon2MemoryKB = minArgon2MemoryKB
	}
	if p.Argon2Time == 0 {
		p.Argon2Time = 1
	}
	if p.Argon2Parallelism == 0 {
		p.Argon2Parallelism = 1
	}
}
