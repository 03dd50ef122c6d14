package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/target/mmk-blog/internal/domain/auth"
	"github.com/target/mmk-blog/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	IdentityResolver
	Register(ctx context.Context, in service.RegisterInput) (int64, error)
	Authenticate(ctx context.Context, username, password string) (*domainauth.User, error)
	StartSession(ctx context.Context, in service.StartSessionInput) (domainauth.Session, error)
	EndSession(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// AuthHandlers provides HTTP handlers for registration, login and logout.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	T            *TemplateRenderer
	Errors       *ErrorPages
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) renderPage(w http.ResponseWriter, r *http.Request, data any) {
	if err := h.T.RenderFull(w, r, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// RegisterForm renders the registration form.
// GET /auth/register.
func (h *AuthHandlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, NewTemplateData(r, registerMeta).With("Username", "").Build())
}

var registerMeta = PageMeta{Title: "Register", CurrentPage: PageRegister}

// Register creates an account and sends the user to the login form.
// POST /auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	_, err := h.Svc.Register(r.Context(), service.RegisterInput{Username: username, Password: password})
	if err != nil {
		if !isFormError(err) {
			h.Errors.Write(w, r, err)
			return
		}
		RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Renderer: h.renderPage,
			PageMeta: registerMeta,
			Data:     map[string]any{"Username": username},
		})
		return
	}

	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

var loginMeta = PageMeta{Title: "Log In", CurrentPage: PageLogin}

// LoginForm renders the login form, carrying through a safe redirect target.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, loginMeta).
		With("Username", "").
		With("RedirectURI", safeRedirectPath(r.URL.Query().Get(RedirectParam))).
		Build()
	h.renderPage(w, r, data)
}

// Login checks credentials and replaces any existing session with a new one.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	redirectURI := safeRedirectPath(r.PostFormValue(RedirectParam))

	user, err := h.Svc.Authenticate(r.Context(), username, password)
	if err != nil {
		if !isFormError(err) {
			h.Errors.Write(w, r, err)
			return
		}
		RenderError(ErrorOpts{
			W: w, R: r, Err: err,
			Renderer: h.renderPage,
			PageMeta: loginMeta,
			Data:     map[string]any{"Username": username, "RedirectURI": redirectURI},
		})
		return
	}

	sess, err := h.Svc.StartSession(r.Context(), service.StartSessionInput{
		UserID:     user.ID,
		PreviousID: sessionIDFromRequest(r),
	})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	h.setSessionCookie(w, r, sess)
	http.Redirect(w, r, redirectURI, http.StatusSeeOther)
}

// Logout ends the server-side session and clears the cookie.
// GET or POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := sessionIDFromRequest(r); sessionID != "" {
		if err := h.Svc.EndSession(r.Context(), sessionID); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.clearCookie(w, r, SessionCookieName)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clearCookie expires a cookie, mirroring the attributes used when setting it
// so browsers match and drop it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
