package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/target/mmk-blog/internal/core"
	"github.com/target/mmk-blog/internal/data/dbconn"
	"github.com/target/mmk-blog/internal/data/pgxutil"
	"github.com/target/mmk-blog/internal/domain/model"
	apperrors "github.com/target/mmk-blog/internal/errors"
)

// SQL query constants for static queries.
const (
	postSelect = `
		SELECT p.id, p.author_id, p.created, p.title, p.body, u.username
		FROM posts p
		JOIN users u ON u.id = p.author_id`

	postListQuery = postSelect + `
		ORDER BY p.created DESC, p.id DESC`

	postGetByIDQuery = postSelect + `
		WHERE p.id = $1`

	postInsertQuery = `
		WITH ins AS (
			INSERT INTO posts (author_id, created, title, body)
			VALUES ($1, $2, $3, $4)
			RETURNING id, author_id, created, title, body
		)
		SELECT ins.id, ins.author_id, ins.created, ins.title, ins.body, u.username
		FROM ins
		JOIN users u ON u.id = ins.author_id`
)

// PostRepo provides database operations for blog posts.
type PostRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.PostRepository = (*PostRepo)(nil)

// NewPostRepo creates a new PostRepo with real time provider.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewPostRepoWithTimeProvider creates a new PostRepo with a custom time provider (useful for tests).
func NewPostRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PostRepo {
	return &PostRepo{DB: db, timeProvider: tp}
}

// List returns every post joined with its author, newest first.
func (r *PostRepo) List(ctx context.Context) ([]*model.Post, error) {
	var out []*model.Post
	err := dbconn.Run(ctx, r.DB, func(conn *sql.Conn) error {
		var err error
		out, err = pgxutil.CollectAll[model.Post](ctx, conn, postListQuery)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// GetByID retrieves a post with its author username.
func (r *PostRepo) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	var out *model.Post
	err := dbconn.Run(ctx, r.DB, func(conn *sql.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[model.Post](ctx, conn, postGetByIDQuery, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, apperrors.MapDBError(err))
	}
	return out, nil
}

// Create inserts a post for req.AuthorID.
func (r *PostRepo) Create(ctx context.Context, req *model.CreatePostRequest) (*model.Post, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	var out *model.Post
	err := dbconn.Run(ctx, r.DB, func(conn *sql.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[model.Post](ctx, conn, postInsertQuery,
			req.AuthorID, r.timeProvider.Now(), req.Title, req.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// Update replaces title and body. A missing row is a NotFound AppError.
func (r *PostRepo) Update(ctx context.Context, id int64, req model.UpdatePostRequest) error {
	return r.execOne(ctx, execOneParams{
		op:    "update",
		id:    id,
		query: `UPDATE posts SET title = $1, body = $2 WHERE id = $3`,
		args:  []any{req.Title, req.Body, id},
	})
}

// Delete removes a post. A missing row is a NotFound AppError.
func (r *PostRepo) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, execOneParams{
		op:    "delete",
		id:    id,
		query: `DELETE FROM posts WHERE id = $1`,
		args:  []any{id},
	})
}

// execOneParams groups parameters for execOne to keep parameter count ≤ 3.
type execOneParams struct {
	op    string
	id    int64
	query string
	args  []any
}

func (r *PostRepo) execOne(ctx context.Context, p execOneParams) error {
	var affected int64
	err := dbconn.Run(ctx, r.DB, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, p.query, p.args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s post %d: %w", p.op, p.id, apperrors.MapDBError(err))
	}
	if affected == 0 {
		return apperrors.NotFoundf("Post id %d doesn't exist.", p.id)
	}
	return nil
}
