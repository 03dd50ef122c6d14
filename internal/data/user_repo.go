package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/target/mmk-blog/internal/core"
	"github.com/target/mmk-blog/internal/data/dbconn"
	"github.com/target/mmk-blog/internal/data/pgxutil"
	domainauth "github.com/target/mmk-blog/internal/domain/auth"
	apperrors "github.com/target/mmk-blog/internal/errors"
)

const userColumns = `id, username, password, created_at`

// UserRepo provides database operations for user accounts. Every call runs on
// the connection of the request scope in ctx when there is one.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// Create inserts a user inside a transaction. A taken username surfaces as a
// Conflict AppError on field "username"; no existence pre-check is made.
func (r *UserRepo) Create(ctx context.Context, params core.CreateUserParams) (*domainauth.User, error) {
	var out domainauth.User
	err := dbconn.Run(ctx, r.DB, func(conn *sql.Conn) error {
		return pgxutil.WithSQLTx(ctx, conn, pgxutil.SQLTxConfig{Fn: func(tx *sql.Tx) error {
			return tx.QueryRowContext(ctx,
				`INSERT INTO users (username, password, created_at) VALUES ($1, $2, $3)
				 RETURNING `+userColumns,
				params.Username, params.PasswordHash, r.timeProvider.Now(),
			).Scan(&out.ID, &out.Username, &out.PasswordHash, &out.CreatedAt)
		}})
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domainauth.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// GetByID retrieves a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domainauth.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*domainauth.User, error) {
	var out *domainauth.User
	err := dbconn.Run(ctx, r.DB, func(conn *sql.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[domainauth.User](ctx, conn, query, arg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", apperrors.MapDBError(err))
	}
	return out, nil
}
