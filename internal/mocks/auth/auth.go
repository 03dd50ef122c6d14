// Package auth contains simple hand-written test doubles for the auth and blog ports.
// These are lightweight and suitable for unit and HTTP tests without codegen.
// The repositories acquire the request connection scope when one is present so
// connection accounting in HTTP tests matches the PostgreSQL repositories.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/target/mmk-blog/internal/core"
	"github.com/target/mmk-blog/internal/data/dbconn"
	domainauth "github.com/target/mmk-blog/internal/domain/auth"
	"github.com/target/mmk-blog/internal/domain/model"
	apperrors "github.com/target/mmk-blog/internal/errors"
	"github.com/target/mmk-blog/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionStore   = (*MemorySessionStore)(nil)
	_ ports.PasswordHasher = PlainHasher{}
	_ core.UserRepository  = (*MemoryUserRepository)(nil)
	_ core.PostRepository  = (*MemoryPostRepository)(nil)
)

// ErrNotFound is returned by MemorySessionStore for unknown ids.
var ErrNotFound = ports.ErrSessionNotFound

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	// Now overrides the expiry clock.
	Now func() time.Time
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	if sess.Expired(now()) {
		delete(m.sessions, id)
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// PlainHasher stores "plain$<password>". Only for tests where bcrypt cost would dominate.
type PlainHasher struct{}

const plainPrefix = "plain$"

func (PlainHasher) Hash(plaintext string) (string, error) {
	return plainPrefix + plaintext, nil
}

func (PlainHasher) Verify(plaintext, encoded string) (bool, error) {
	stored, ok := strings.CutPrefix(encoded, plainPrefix)
	if !ok {
		return false, errors.New("not a plain digest")
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plaintext)) == 1, nil
}

// touchScope acquires the request connection when ctx carries a scope.
func touchScope(ctx context.Context) error {
	if s, ok := dbconn.FromContext(ctx); ok {
		_, err := s.Conn(ctx)
		return err
	}
	return nil
}

// MemoryUserRepository is an in-memory core.UserRepository with a unique username constraint.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domainauth.User

	// Err, when set, is returned by every call.
	Err error
	// Calls counts repository calls by method name.
	Calls map[string]int
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byID: make(map[int64]domainauth.User), Calls: make(map[string]int)}
}

func (r *MemoryUserRepository) enter(ctx context.Context, method string) error {
	r.Calls[method]++
	if r.Err != nil {
		return r.Err
	}
	return touchScope(ctx)
}

func (r *MemoryUserRepository) Create(ctx context.Context, p core.CreateUserParams) (*domainauth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "Create"); err != nil {
		return nil, err
	}
	for _, u := range r.byID {
		if u.Username == p.Username {
			return nil, &apperrors.AppError{
				Code:    apperrors.ErrCodeConflict,
				Field:   "username",
				Message: "A user with this username already exists.",
			}
		}
	}
	r.nextID++
	u := domainauth.User{ID: r.nextID, Username: p.Username, PasswordHash: p.PasswordHash, CreatedAt: time.Now().UTC()}
	r.byID[u.ID] = u
	return &u, nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domainauth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "GetByUsername"); err != nil {
		return nil, err
	}
	for _, u := range r.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("Resource not found")
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id int64) (*domainauth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Resource not found")
	}
	return &u, nil
}

// CallCount returns how often method was called. Safe while a server is running.
func (r *MemoryUserRepository) CallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls[method]
}

// Remove deletes a user directly, for tests of stale sessions.
func (r *MemoryUserRepository) Remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// MemoryPostRepository is an in-memory core.PostRepository. Usernames are
// joined from Users when set.
type MemoryPostRepository struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]model.Post
	clock  time.Time

	Users *MemoryUserRepository
}

// NewMemoryPostRepository creates an empty repository joined to users.
func NewMemoryPostRepository(users *MemoryUserRepository) *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[int64]model.Post),
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Users: users,
	}
}

func (r *MemoryPostRepository) withAuthor(p model.Post) *model.Post {
	if r.Users != nil {
		r.Users.mu.Lock()
		if u, ok := r.Users.byID[p.AuthorID]; ok {
			p.AuthorUsername = u.Username
		}
		r.Users.mu.Unlock()
	}
	return &p
}

func (r *MemoryPostRepository) List(ctx context.Context) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := touchScope(ctx); err != nil {
		return nil, err
	}
	out := make([]*model.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, r.withAuthor(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := touchScope(ctx); err != nil {
		return nil, err
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, apperrors.NotFound("Resource not found")
	}
	return r.withAuthor(p), nil
}

func (r *MemoryPostRepository) Create(ctx context.Context, req *model.CreatePostRequest) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := touchScope(ctx); err != nil {
		return nil, err
	}
	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	p := model.Post{ID: r.nextID, AuthorID: req.AuthorID, Created: r.clock, Title: req.Title, Body: req.Body}
	r.posts[p.ID] = p
	return r.withAuthor(p), nil
}

func (r *MemoryPostRepository) Update(ctx context.Context, id int64, req model.UpdatePostRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := touchScope(ctx); err != nil {
		return err
	}
	p, ok := r.posts[id]
	if !ok {
		return apperrors.NotFoundf("Post id %d doesn't exist.", id)
	}
	p.Title, p.Body = req.Title, req.Body
	r.posts[id] = p
	return nil
}

func (r *MemoryPostRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := touchScope(ctx); err != nil {
		return err
	}
	if _, ok := r.posts[id]; !ok {
		return apperrors.NotFoundf("Post id %d doesn't exist.", id)
	}
	delete(r.posts, id)
	return nil
}
