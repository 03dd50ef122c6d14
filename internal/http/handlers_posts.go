package httpx

import (
	"context"
	"net/http"
	"strconv"

	domainauth "github.com/target/mmk-blog/internal/domain/auth"
	"github.com/target/mmk-blog/internal/domain/model"
	"github.com/target/mmk-blog/internal/service"
)

// PostServiceInterface defines the post operations the UI needs.
type PostServiceInterface interface {
	List(ctx context.Context) ([]*model.Post, error)
	LoadOwnedPost(ctx context.Context, in service.LoadOwnedPostInput) (*model.Post, error)
	Create(ctx context.Context, caller domainauth.Identity, req model.CreatePostRequest) (*model.Post, error)
	Update(ctx context.Context, in service.UpdatePostInput) error
	Delete(ctx context.Context, postID int64, caller domainauth.Identity) error
}

var _ PostServiceInterface = (*service.PostService)(nil)

// PostHandlers serves the blog pages.
type PostHandlers struct {
	Svc    PostServiceInterface
	T      *TemplateRenderer
	Errors *ErrorPages
}

// PostView pairs a post with what the current caller may do with it.
type PostView struct {
	*model.Post
	CanEdit bool
}

func newPostView(p *model.Post, caller domainauth.Identity) PostView {
	return PostView{Post: p, CanEdit: caller.Owns(p.AuthorID)}
}

func (h *PostHandlers) renderPage(w http.ResponseWriter, r *http.Request, data any) {
	if err := h.T.RenderFull(w, r, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// postID parses the {id} path value; ok is false for anything but a positive integer.
func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Index lists every post, newest first.
// GET /.
func (h *PostHandlers) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Svc.List(r.Context())
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	caller := IdentityFromContext(r.Context())
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p, caller))
	}

	data := NewTemplateData(r, PageMeta{Title: "Posts", CurrentPage: PageIndex}).
		With("Posts", views).
		Build()
	h.renderPage(w, r, data)
}

// View shows a single post to anyone.
// GET /posts/{id}.
func (h *PostHandlers) View(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.Errors.NotFound(w, r)
		return
	}
	caller := IdentityFromContext(r.Context())
	post, err := h.Svc.LoadOwnedPost(r.Context(), service.LoadOwnedPostInput{PostID: id, Caller: caller})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	data := NewTemplateData(r, PageMeta{Title: post.Title, CurrentPage: PagePost}).
		With("Post", newPostView(post, caller)).
		Build()
	h.renderPage(w, r, data)
}

var createMeta = PageMeta{Title: "New Post", CurrentPage: PageCreate}

// CreateForm renders an empty post form.
// GET /create.
func (h *PostHandlers) CreateForm(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, createMeta).
		With("PostTitle", "").
		With("Body", "").
		Build()
	h.renderPage(w, r, data)
}

// Create stores a post written by the caller.
// POST /create.
func (h *PostHandlers) Create(w http.ResponseWriter, r *http.Request) {
	req := model.CreatePostRequest{
		Title: r.PostFormValue("title"),
		Body:  r.PostFormValue("body"),
	}
	_, err := h.Svc.Create(r.Context(), IdentityFromContext(r.Context()), req)
	if err != nil {
		if !isFormError(err) {
			h.Errors.Write(w, r, err)
			return
		}
		RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Renderer: h.renderPage,
			PageMeta: createMeta,
			Data:     map[string]any{"PostTitle": req.Title, "Body": req.Body},
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func updateMeta(id int64) PageMeta {
	return PageMeta{Title: "Edit Post #" + strconv.FormatInt(id, 10), CurrentPage: PageUpdate}
}

// UpdateForm renders the edit form for a post the caller owns.
// GET /posts/{id}/update.
func (h *PostHandlers) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.Errors.NotFound(w, r)
		return
	}
	post, err := h.Svc.LoadOwnedPost(r.Context(), service.LoadOwnedPostInput{
		PostID:      id,
		Caller:      IdentityFromContext(r.Context()),
		CheckAuthor: true,
	})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	data := NewTemplateData(r, updateMeta(id)).
		With("PostID", id).
		With("PostTitle", post.Title).
		With("Body", post.Body).
		Build()
	h.renderPage(w, r, data)
}

// Update rewrites a post the caller owns.
// POST /posts/{id}/update.
func (h *PostHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.Errors.NotFound(w, r)
		return
	}
	in := service.UpdatePostInput{
		PostID: id,
		Caller: IdentityFromContext(r.Context()),
		Title:  r.PostFormValue("title"),
		Body:   r.PostFormValue("body"),
	}
	if err := h.Svc.Update(r.Context(), in); err != nil {
		if !isFormError(err) {
			h.Errors.Write(w, r, err)
			return
		}
		RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Renderer: h.renderPage,
			PageMeta: updateMeta(id),
			Data:     map[string]any{"PostID": id, "PostTitle": in.Title, "Body": in.Body},
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete removes a post the caller owns.
// POST /posts/{id}/delete.
func (h *PostHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.Errors.NotFound(w, r)
		return
	}
	if err := h.Svc.Delete(r.Context(), id, IdentityFromContext(r.Context())); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
