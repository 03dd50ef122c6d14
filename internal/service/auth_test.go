package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-blog/internal/core"
	domainauth "github.com/target/mmk-blog/internal/domain/auth"
	apperrors "github.com/target/mmk-blog/internal/errors"
	"github.com/target/mmk-blog/internal/mocks"
	mockauth "github.com/target/mmk-blog/internal/mocks/auth"
	"github.com/target/mmk-blog/internal/ports"
)

type authFixture struct {
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionStore
	svc      *AuthService
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &authFixture{
		users:    mocks.NewMockUserRepository(ctrl),
		sessions: mocks.NewMockSessionStore(ctrl),
		now:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(AuthServiceOptions{
		Users:      f.users,
		Sessions:   f.sessions,
		Hasher:     mockauth.PlainHasher{},
		SessionTTL: time.Hour,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func TestAuthService_Register_Success(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.EXPECT().
		Create(ctx, core.CreateUserParams{Username: "alice", PasswordHash: "plain$pw1"}).
		Return(&domainauth.User{ID: 7, Username: "alice"}, nil).
		Times(1)

	id, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		in        RegisterInput
		wantField string
		wantMsg   string
	}{
		{"missing username", RegisterInput{Password: "pw"}, "username", "Username is required."},
		{"missing password", RegisterInput{Username: "alice"}, "password", "Password is required."},
		{"both missing reports username", RegisterInput{}, "username", "Username is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newAuthFixture(t)
			_, err := f.svc.Register(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
			assert.Equal(t, tt.wantMsg, apperrors.UserMessage(err, ""))
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.EXPECT().
		Create(ctx, gomock.Any()).
		Return(nil, &apperrors.AppError{Code: apperrors.ErrCodeConflict, Field: "username"}).
		Times(1)

	_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Password: "pw2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateUser)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "User alice is already registered.", apperrors.UserMessage(err, ""))
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	svc := NewAuthService(AuthServiceOptions{Users: mocks.NewMockUserRepository(ctrl), Hasher: tooLongHasher{}})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "a", Password: "b"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "password", apperrors.GetField(err))
}

type tooLongHasher struct{ mockauth.PlainHasher }

func (tooLongHasher) Hash(string) (string, error) { return "", ports.ErrPasswordTooLong }

func TestAuthService_Register_StoreFailure(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	boom := errors.New("connection reset")
	f.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "a", Password: "b"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, apperrors.IsConflict(err))
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()
	alice := &domainauth.User{ID: 1, Username: "alice", PasswordHash: "plain$pw1"}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.users.EXPECT().GetByUsername(gomock.Any(), "alice").Return(alice, nil).Times(1)

		u, err := f.svc.Authenticate(context.Background(), "alice", "pw1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
	})

	t.Run("unknown username", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.users.EXPECT().GetByUsername(gomock.Any(), "mallory").Return(nil, apperrors.NotFound("x")).Times(1)

		_, err := f.svc.Authenticate(context.Background(), "mallory", "pw")
		assert.ErrorIs(t, err, ErrIncorrectUsername)
		assert.Equal(t, "Incorrect username.", apperrors.UserMessage(err, ""))
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.users.EXPECT().GetByUsername(gomock.Any(), "alice").Return(alice, nil).Times(1)

		_, err := f.svc.Authenticate(context.Background(), "alice", "wrong")
		assert.ErrorIs(t, err, ErrIncorrectPassword)
		assert.True(t, apperrors.IsUnauthenticated(err))
		assert.Equal(t, "Incorrect password.", apperrors.UserMessage(err, ""))
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		boom := errors.New("boom")
		f.users.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, boom)

		_, err := f.svc.Authenticate(context.Background(), "alice", "pw1")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrIncorrectUsername)
	})
}

func TestAuthService_StartSession_ReplacesPrevious(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	gomock.InOrder(
		f.sessions.EXPECT().Delete(ctx, "old-session").Return(nil),
		f.sessions.EXPECT().Save(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, s domainauth.Session) error {
			assert.Equal(t, int64(5), s.UserID)
			assert.Equal(t, f.now.Add(time.Hour), s.ExpiresAt)
			return nil
		}),
	)

	sess, err := f.svc.StartSession(ctx, StartSessionInput{UserID: 5, PreviousID: "old-session"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.NotEqual(t, "old-session", sess.ID)
}

func TestAuthService_StartSession_RequiresUser(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	_, err := f.svc.StartSession(context.Background(), StartSessionInput{})
	assert.Error(t, err)
}

func TestAuthService_EndSession(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.EndSession(ctx, ""))

	f.sessions.EXPECT().Delete(ctx, "s1").Return(nil)
	require.NoError(t, f.svc.EndSession(ctx, "s1"))
}

func TestAuthService_ResolveIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no cookie is anonymous without lookups", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		id, err := f.svc.ResolveIdentity(ctx, "")
		require.NoError(t, err)
		assert.True(t, id.IsAnonymous())
	})

	t.Run("unknown session is anonymous", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.sessions.EXPECT().Get(ctx, "ghost").Return(domainauth.Session{}, ports.ErrSessionNotFound)

		id, err := f.svc.ResolveIdentity(ctx, "ghost")
		require.NoError(t, err)
		assert.True(t, id.IsAnonymous())
	})

	t.Run("session without user skips user lookup", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.sessions.EXPECT().Get(ctx, "s").Return(domainauth.Session{ID: "s", ExpiresAt: f.now.Add(time.Hour)}, nil)

		id, err := f.svc.ResolveIdentity(ctx, "s")
		require.NoError(t, err)
		assert.True(t, id.IsAnonymous())
	})

	t.Run("expired session is anonymous", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.sessions.EXPECT().Get(ctx, "s").Return(domainauth.Session{ID: "s", UserID: 1, ExpiresAt: f.now.Add(-time.Second)}, nil)

		id, err := f.svc.ResolveIdentity(ctx, "s")
		require.NoError(t, err)
		assert.True(t, id.IsAnonymous())
	})

	t.Run("valid session loads user once", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.sessions.EXPECT().Get(ctx, "s").Return(domainauth.Session{ID: "s", UserID: 1, ExpiresAt: f.now.Add(time.Hour)}, nil)
		f.users.EXPECT().GetByID(ctx, int64(1)).Return(&domainauth.User{ID: 1, Username: "alice"}, nil).Times(1)

		id, err := f.svc.ResolveIdentity(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, "alice", id.Username())
	})

	t.Run("deleted user is anonymous", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.sessions.EXPECT().Get(ctx, "s").Return(domainauth.Session{ID: "s", UserID: 9, ExpiresAt: f.now.Add(time.Hour)}, nil)
		f.users.EXPECT().GetByID(ctx, int64(9)).Return(nil, apperrors.NotFound("gone"))

		id, err := f.svc.ResolveIdentity(ctx, "s")
		require.NoError(t, err)
		assert.True(t, id.IsAnonymous())
	})

	t.Run("store failures surface", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		boom := errors.New("redis down")
		f.sessions.EXPECT().Get(ctx, "s").Return(domainauth.Session{}, boom)

		_, err := f.svc.ResolveIdentity(ctx, "s")
		assert.ErrorIs(t, err, boom)
	})
}

func TestNewAuthService_Defaults(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{})
	assert.Equal(t, DefaultSessionTTL, svc.ttl)
	assert.NotNil(t, svc.logger)
	assert.NotNil(t, svc.now)
}
