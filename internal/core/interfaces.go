package core

import (
	"context"

	domainauth "github.com/target/mmk-blog/internal/domain/auth"
	"github.com/target/mmk-blog/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on the concrete data layer.
// Implementations obtain their database handle from the request's connection scope.

// CreateUserParams groups the columns written when registering a user.
type CreateUserParams struct {
	Username     string
	PasswordHash string
}

// UserRepository defines the interface for user account data operations.
type UserRepository interface {
	// Create inserts a user. A duplicate username yields a Conflict AppError on field "username".
	Create(ctx context.Context, params CreateUserParams) (*domainauth.User, error)
	// GetByUsername returns a NotFound AppError when no row matches.
	GetByUsername(ctx context.Context, username string) (*domainauth.User, error)
	// GetByID returns a NotFound AppError when no row matches.
	GetByID(ctx context.Context, id int64) (*domainauth.User, error)
}

// PostRepository defines the interface for blog post data operations.
type PostRepository interface {
	// List returns all posts with author usernames, newest first.
	List(ctx context.Context) ([]*model.Post, error)
	// GetByID returns a NotFound AppError when no row matches.
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	Create(ctx context.Context, req *model.CreatePostRequest) (*model.Post, error)
	Update(ctx context.Context, id int64, req model.UpdatePostRequest) error
	Delete(ctx context.Context, id int64) error
}
