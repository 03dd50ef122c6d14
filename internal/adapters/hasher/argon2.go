package hasher

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix = "$argon2id$"

	minArgon2MemoryKB uint32 = 8 * 1024
	argon2SaltLength         = 16
	argon2KeyLength   uint32 = 32
)

// Argon2Params are the cost parameters for new argon2id digests.
type Argon2Params struct {
	MemoryKB    uint32
	Time        uint32
	Parallelism uint8
}

// Argon2idHasher stores passwords in PHC string format:
// $argon2id$v=19$m=<kb>,t=<time>,p=<par>$<salt>$<hash>.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher validates params and returns a hasher.
func NewArgon2idHasher(p Argon2Params) (*Argon2idHasher, error) {
	if p.MemoryKB < minArgon2MemoryKB {
		return nil, fmt.Errorf("argon2 memory must be at least %d KiB", minArgon2MemoryKB)
	}
	if p.Time == 0 || p.Parallelism == 0 {
		return nil, errors.New("argon2 time and parallelism must be positive")
	}
	return &Argon2idHasher{params: p}, nil
}

// Hash derives an argon2id key with a fresh salt.
func (a *Argon2idHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, argon2SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("argon2 salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, a.params.Time, a.params.MemoryKB, a.params.Parallelism, argon2KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version,
		a.params.MemoryKB, a.params.Time, a.params.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the digest's own parameters and compares in constant time.
func (a *Argon2idHasher) Verify(plaintext, encoded string) (bool, error) {
	d, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(plaintext), d.salt, d.params.Time, d.params.MemoryKB, d.params.Parallelism, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(computed, d.key) == 1, nil
}

type phcDigest struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func parsePHC(encoded string) (*phcDigest, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, errors.New("invalid argon2id PHC string")
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errors.New("unsupported argon2 version")
	}

	var d phcDigest
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.New("invalid argon2 parameter")
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid argon2 parameter %s: %w", k, err)
		}
		switch k {
		case "m":
			d.params.MemoryKB = uint32(n)
		case "t":
			d.params.Time = uint32(n)
		case "p":
			if n > 255 {
				return nil, errors.New("argon2 parallelism out of range")
			}
			d.params.Parallelism = uint8(n)
		default:
			return nil, fmt.Errorf("unknown argon2 parameter %q", k)
		}
	}
	if d.params.MemoryKB == 0 || d.params.Time == 0 || d.params.Parallelism == 0 {
		return nil, errors.New("missing argon2 parameters")
	}

	var err error
	if d.salt, err = base64.StdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return nil, errors.New("invalid argon2 salt")
	}
	if d.key, err = base64.StdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 {
		return nil, errors.New("invalid argon2 key")
	}
	return &d, nil
}
