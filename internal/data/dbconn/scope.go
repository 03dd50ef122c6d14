// Package dbconn scopes a single database connection to a unit of work,
// normally one HTTP request. The connection is opened lazily on first use
// and released exactly once when the scope ends.
package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrScopeClosed is returned by Scope.Conn after the scope has been released.
var ErrScopeClosed = errors.New("connection scope already released")

// State is the lifecycle position of a Scope.
type State int

const (
	// Unopened means no connection has been requested yet.
	Unopened State = iota
	// Open means a connection is held by the scope.
	Open
	// Closed means the scope has ended. It never reopens.
	Closed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Scope owns at most one *sql.Conn for its lifetime.
// It is safe for concurrent use by handlers that fan out within a request.
type Scope struct {
	db *sql.DB

	mu    sync.Mutex
	conn  *sql.Conn
	state State
}

// NewScope returns an unopened scope drawing from db.
func NewScope(db *sql.DB) *Scope {
	return &Scope{db: db}
}

// Conn returns the scope's connection, acquiring it from the pool on the first call.
// Subsequent calls return the same handle.
func (s *Scope) Conn(ctx context.Context) (*sql.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Open:
		return s.conn, nil
	case Closed:
		return nil, ErrScopeClosed
	}

	if s.db == nil {
		return nil, errors.New("connection scope has no database")
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	s.conn = conn
	s.state = Open
	return conn, nil
}

// Release ends the scope. An open connection is returned to the pool; an
// unopened scope is simply marked closed. Calling Release more than once is a no-op.
func (s *Scope) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	s.state = Closed
	if prev != Open {
		return nil
	}
	conn := s.conn
	s.conn = nil
	if err := conn.Close(); err != nil {
		return fmt.Errorf("release connection: %w", err)
	}
	return nil
}

// State reports the scope's lifecycle position.
func (s *Scope) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

type scopeKey struct{}

// WithScope stores s in ctx.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the scope stored in ctx, if any.
func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}

// Run executes fn with the connection of the scope in ctx. Without a scope
// (CLI commands, background work, tests) it opens a connection from db for the
// duration of fn and closes it afterwards.
func Run(ctx context.Context, db *sql.DB, fn func(*sql.Conn) error) (err error) {
	if s, ok := FromContext(ctx); ok {
		conn, cerr := s.Conn(ctx)
		if cerr != nil {
			return cerr
		}
		return fn(conn)
	}

	s := NewScope(db)
	defer func() {
		if rerr := s.Release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	conn, err := s.Conn(ctx)
	if err != nil {
		return err
	}
	return fn(conn)
}
