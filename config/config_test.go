package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("expected default session TTL 24h, got %v", cfg.Session.TTL)
	}
	if cfg.Session.KeyPrefix != "session:" {
		t.Errorf("expected default key prefix, got %q", cfg.Session.KeyPrefix)
	}
	if cfg.Password.Algorithm != PasswordAlgorithmBcrypt {
		t.Errorf("expected bcrypt by default, got %q", cfg.Password.Algorithm)
	}
	if !cfg.Postgres.RunMigrationsOnStart {
		t.Error("expected migrations on start by default")
	}
}

func TestAppConfig_ParseSessionAndPasswordEnv(t *testing.T) {
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_KEY_PREFIX", "blog:session:")
	t.Setenv("PASSWORD_ALGORITHM", "ARGON2ID")
	t.Setenv("PASSWORD_BCRYPT_COST", "10")
	t.Setenv("PASSWORD_ARGON2_MEMORY_KB", "32768")
	t.Setenv("PASSWORD_ARGON2_TIME", "2")
	t.Setenv("PASSWORD_ARGON2_PARALLELISM", "4")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expectedSession := SessionConfig{TTL: 2 * time.Hour, KeyPrefix: "blog:session:"}
	if !reflect.DeepEqual(cfg.Session, expectedSession) {
		t.Fatalf("unexpected session configuration:\nexpected: %#v\ngot:      %#v", expectedSession, cfg.Session)
	}

	expectedPassword := PasswordConfig{
		Algorithm:         PasswordAlgorithmArgon2id,
		BcryptCost:        10,
		Argon2MemoryKB:    32768,
		Argon2Time:        2,
		Argon2Parallelism: 4,
	}
	if !reflect.DeepEqual(cfg.Password, expectedPassword) {
		t.Fatalf("unexpected password configuration:\nexpected: %#v\ngot:      %#v", expectedPassword, cfg.Password)
	}
}

func TestPasswordAlgorithm_UnmarshalTextRejectsUnknown(t *testing.T) {
	var a PasswordAlgorithm
	if err := a.UnmarshalText([]byte("md5")); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestPasswordConfig_Sanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    PasswordConfig
		expected PasswordConfig
	}{
		{
			name:  "zero values get floors",
			input: PasswordConfig{},
			expected: PasswordConfig{
				Algorithm:         PasswordAlgorithmBcrypt,
				BcryptCost:        minBcryptCost,
				Argon2MemoryKB:    minArgon2MemoryKB,
				Argon2Time:        1,
				Argon2Parallelism: 1,
			},
		},
		{
			name: "bcrypt cost clamped to max",
			input: PasswordConfig{
				Algorithm:         PasswordAlgorithmBcrypt,
				BcryptCost:        40,
				Argon2MemoryKB:    65536,
				Argon2Time:        3,
				Argon2Parallelism: 2,
			},
			expected: PasswordConfig{
				Algorithm:         PasswordAlgorithmBcrypt,
				BcryptCost:        maxBcryptCost,
				Argon2MemoryKB:    65536,
				Argon2Time:        3,
				Argon2Parallelism: 2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			cfg.Sanitize()
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("expected %#v, got %#v", tt.expected, cfg)
			}
		})
	}
}

func TestSessionConfig_Sanitize(t *testing.T) {
	cfg := SessionConfig{TTL: time.Second}
	cfg.Sanitize()
	if cfg.TTL != minSessionTTL {
		t.Errorf("expected TTL floor %v, got %v", minSessionTTL, cfg.TTL)
	}
	if cfg.KeyPrefix != "session:" {
		t.Errorf("expected default prefix, got %q", cfg.KeyPrefix)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{ShutdownTimeoutSeconds: -1}
	cfg.Sanitize()
	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.ShutdownTimeoutSeconds != 10 {
		t.Errorf("expected default shutdown timeout, got %d", cfg.ShutdownTimeoutSeconds)
	}
}

func TestAppConfig_DetectDevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{}
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Error("expected IsDev when NODE_ENV=development")
	}
}
