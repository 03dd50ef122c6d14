package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/mmk-blog/internal/core"
	domainauth "github.com/target/mmk-blog/internal/domain/auth"
	"github.com/target/mmk-blog/internal/domain/model"
	apperrors "github.com/target/mmk-blog/internal/errors"
)

// PostServiceOptions groups dependencies for PostService.
type PostServiceOptions struct {
	Posts  core.PostRepository
	Logger *slog.Logger
}

// PostService implements blog post CRUD with ownership checks.
type PostService struct {
	posts  core.PostRepository
	logger *slog.Logger
}

// NewPostService constructs a new PostService.
func NewPostService(opts PostServiceOptions) *PostService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{posts: opts.Posts, logger: logger.With("component", "post_service")}
}

// List returns all posts, newest first.
func (s *PostService) List(ctx context.Context) ([]*model.Post, error) {
	return s.posts.List(ctx)
}

// LoadOwnedPostInput groups parameters for LoadOwnedPost.
type LoadOwnedPostInput struct {
	PostID int64
	Caller domainauth.Identity
	// CheckAuthor requires Caller to be the post's author.
	CheckAuthor bool
}

// LoadOwnedPost fetches a post, failing with NotFound when it does not exist
// and, when CheckAuthor is set, with Forbidden unless the caller wrote it.
func (s *PostService) LoadOwnedPost(ctx context.Context, in LoadOwnedPostInput) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeNotFound, "Post id %d doesn't exist.", in.PostID)
	}
	if err != nil {
		return nil, err
	}
	if in.CheckAuthor && !in.Caller.Owns(post.AuthorID) {
		s.logger.WarnContext(ctx, "post access forbidden", "post_id", in.PostID, "caller_id", in.Caller.UserID())
		return nil, apperrors.Forbiddenf("You are not the author of post %d.", in.PostID)
	}
	return post, nil
}

// Create stores a post authored by caller.
func (s *PostService) Create(ctx context.Context, caller domainauth.Identity, req model.CreatePostRequest) (*model.Post, error) {
	if caller.IsAnonymous() {
		return nil, apperrors.Unauthenticated("Log in to create posts.")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.AuthorID = caller.UserID()

	post, err := s.posts.Create(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.logger.InfoContext(ctx, "post created", "post_id", post.ID, "author_id", post.AuthorID)
	return post, nil
}

// UpdatePostInput groups parameters for Update.
type UpdatePostInput struct {
	PostID int64
	Caller domainauth.Identity
	Title  string
	Body   string
}

// Update checks ownership, then validates and writes the new content.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) error {
	if _, err := s.LoadOwnedPost(ctx, LoadOwnedPostInput{PostID: in.PostID, Caller: in.Caller, CheckAuthor: true}); err != nil {
		return err
	}
	req := model.UpdatePostRequest{Title: in.Title, Body: in.Body}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.posts.Update(ctx, in.PostID, req); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete checks ownership, then removes the post.
func (s *PostService) Delete(ctx context.Context, postID int64, caller domainauth.Identity) error {
	if _, err := s.LoadOwnedPost(ctx, LoadOwnedPostInput{PostID: postID, Caller: caller, CheckAuthor: true}); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.logger.InfoContext(ctx, "post deleted", "post_id", postID, "author_id", caller.UserID())
	return nil
}
