package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/mmk-blog/internal/core"
	domainauth "github.com/target/mmk-blog/internal/domain/auth"
	apperrors "github.com/target/mmk-blog/internal/errors"
	"github.com/target/mmk-blog/internal/ports"
)

// DefaultSessionTTL applies when AuthServiceOptions.SessionTTL is unset.
const DefaultSessionTTL = 24 * time.Hour

var (
	// ErrDuplicateUser is the cause of the Conflict returned by Register for taken usernames.
	ErrDuplicateUser = errors.New("username already registered")

	// ErrIncorrectUsername is returned by Authenticate when no account has the username.
	//
	// Distinguishing it from ErrIncorrectPassword lets a client probe which
	// usernames exist. The login form reports the field at fault, so this is
	// a known enumeration weakness.
	ErrIncorrectUsername = &apperrors.AppError{Code: apperrors.ErrCodeUnauthenticated, Message: "Incorrect username."}

	// ErrIncorrectPassword is returned by Authenticate when the password does not match.
	ErrIncorrectPassword = &apperrors.AppError{Code: apperrors.ErrCodeUnauthenticated, Message: "Incorrect password."}
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users      core.UserRepository
	Sessions   ports.SessionStore
	Hasher     ports.PasswordHasher
	SessionTTL time.Duration
	Logger     *slog.Logger
	// Now overrides the clock for session timestamps (tests).
	Now func() time.Time
}

// AuthService registers accounts, checks credentials and maps session ids to identities.
type AuthService struct {
	users    core.UserRepository
	sessions ports.SessionStore
	hasher   ports.PasswordHasher
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	s := &AuthService{
		users:    opts.Users,
		sessions: opts.Sessions,
		hasher:   opts.Hasher,
		ttl:      opts.SessionTTL,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "auth_service")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string
	Password string
}

// Register creates an account and returns its id. Presence is the only
// password requirement. A taken username is detected by the unique
// constraint on insert, not by a prior lookup.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	if in.Username == "" {
		return 0, apperrors.ValidationField("username", "Username is required.")
	}
	if in.Password == "" {
		return 0, apperrors.ValidationField("password", "Password is required.")
	}

	digest, err := s.hasher.Hash(in.Password)
	if errors.Is(err, ports.ErrPasswordTooLong) {
		return 0, apperrors.ValidationField("password", "Password is too long.")
	}
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, core.CreateUserParams{Username: in.Username, PasswordHash: digest})
	if apperrors.IsConflict(err) {
		return 0, &apperrors.AppError{
			Code:    apperrors.ErrCodeConflict,
			Field:   "username",
			Message: fmt.Sprintf("User %s is already registered.", in.Username),
			Cause:   fmt.Errorf("%w: %w", ErrDuplicateUser, err),
		}
	}
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user.ID, nil
}

// Authenticate checks credentials with one lookup by username.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domainauth.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if apperrors.IsNotFound(err) {
		s.logger.InfoContext(ctx, "login failed", "reason", "unknown_username")
		return nil, ErrIncorrectUsername
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "login failed", "reason", "password_mismatch", "user_id", user.ID)
		return nil, ErrIncorrectPassword
	}
	return user, nil
}

// StartSessionInput groups parameters for StartSession.
type StartSessionInput struct {
	UserID int64
	// PreviousID is the session the client presented, if any. It is deleted so
	// a pre-login session id cannot be carried into the authenticated state.
	PreviousID string
}

// StartSession stores a fresh session for a user.
func (s *AuthService) StartSession(ctx context.Context, in StartSessionInput) (domainauth.Session, error) {
	if in.UserID <= 0 {
		return domainauth.Session{}, errors.New("user id is required")
	}
	if in.PreviousID != "" {
		if err := s.sessions.Delete(ctx, in.PreviousID); err != nil {
			return domainauth.Session{}, fmt.Errorf("delete previous session: %w", err)
		}
	}

	now := s.now()
	sess := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    in.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "session started", "user_id", in.UserID)
	return sess, nil
}

// EndSession removes a session. An empty id is a no-op.
func (s *AuthService) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ResolveIdentity maps a session id to the caller's identity. Unknown,
// expired or user-less sessions and users that no longer exist resolve to
// anonymous without error. Only store failures are returned as errors.
func (s *AuthService) ResolveIdentity(ctx context.Context, sessionID string) (domainauth.Identity, error) {
	if sessionID == "" {
		return domainauth.Anonymous(), nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return domainauth.Anonymous(), nil
	}
	if err != nil {
		return domainauth.Anonymous(), fmt.Errorf("get session: %w", err)
	}
	if !sess.HasUser() || sess.Expired(s.now()) {
		return domainauth.Anonymous(), nil
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if apperrors.IsNotFound(err) {
		return domainauth.Anonymous(), nil
	}
	if err != nil {
		return domainauth.Anonymous(), fmt.Errorf("load session user: %w", err)
	}
	return domainauth.IdentityOf(user), nil
}

// generateSessionID creates a random, URL-safe session id.
func generateSessionID() string {
	return uuid.New().String()
}
