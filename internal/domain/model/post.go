//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"

	apperrors "github.com/target/mmk-blog/internal/errors"
)

// Post is a blog entry joined with its author's username.
type Post struct {
	ID             int64     `json:"id"              db:"id"`
	AuthorID       int64     `json:"author_id"       db:"author_id"`
	Created        time.Time `json:"created"         db:"created"`
	Title          string    `json:"title"           db:"title"`
	Body           string    `json:"body"            db:"body"`
	AuthorUsername string    `json:"author_username" db:"username"`
}

// CreatePostRequest carries the fields for a new post. AuthorID is set by the
// service from the caller's identity, never from form input.
type CreatePostRequest struct {
	AuthorID int64  `json:"-"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Normalize trims the title. The body is kept as written.
func (r *CreatePostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

// Validate checks the request after normalization.
func (r *CreatePostRequest) Validate() error {
	return validateTitle(r.Title)
}

// UpdatePostRequest replaces the title and body of an existing post.
type UpdatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Normalize trims the title.
func (r *UpdatePostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

// Validate checks the request after normalization.
func (r *UpdatePostRequest) Validate() error {
	return validateTitle(r.Title)
}

func validateTitle(title string) error {
	if title == "" {
		return apperrors.ValidationField("title", "Title is required.")
	}
	return nil
}
