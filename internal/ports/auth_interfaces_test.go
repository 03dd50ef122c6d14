package ports_test

import (
	"testing"

	"github.com/target/mmk-blog/internal/adapters/hasher"
	redisadapter "github.com/target/mmk-blog/internal/adapters/redis"
	"github.com/target/mmk-blog/internal/mocks"
	mockauth "github.com/target/mmk-blog/internal/mocks/auth"
	"github.com/target/mmk-blog/internal/ports"
)

// This test only verifies that adapters and doubles conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.SessionStore = (*redisadapter.SessionStore)(nil)
	var _ ports.SessionStore = (*mockauth.MemorySessionStore)(nil)
	var _ ports.SessionStore = (*mocks.MockSessionStore)(nil)
	var _ ports.PasswordHasher = (*hasher.Hasher)(nil)
	var _ ports.PasswordHasher = (*hasher.BcryptHasher)(nil)
	var _ ports.PasswordHasher = (*hasher.Argon2idHasher)(nil)
	var _ ports.PasswordHasher = mockauth.PlainHasher{}
}
