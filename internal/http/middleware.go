package httpx

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/target/mmk-blog/internal/data/dbconn"
	domainauth "github.com/target/mmk-blog/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestScope returns a middleware that gives each request a lazily opened
// database connection. Everything downstream that reaches the database through
// dbconn.Run shares that one connection, and it is released when the request
// ends however the handler exits.
func RequestScope(db *sql.DB, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := dbconn.NewScope(db)
			defer func() {
				if err := scope.Release(); err != nil {
					logger.WarnContext(r.Context(), "release request connection", "error", err)
				}
			}()

			rc, _ := GetRequestContext(r.Context())
			ctx := dbconn.WithScope(r.Context(), scope)
			ctx = SetRequestContext(ctx, rc.WithScope(scope))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityResolver maps a session id to the caller identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, sessionID string) (domainauth.Identity, error)
}

// ResolveIdentity returns a middleware that binds the caller identity for the
// session cookie into the request context. Requests without a usable session
// continue as anonymous; a failing session or user store answers 500.
func ResolveIdentity(resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			id := domainauth.Anonymous()
			if sessionID != "" {
				var err error
				id, err = resolver.ResolveIdentity(r.Context(), sessionID)
				if err != nil {
					logger.ErrorContext(r.Context(), "resolve identity failed", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}

			rc, _ := GetRequestContext(r.Context())
			ctx := SetRequestContext(r.Context(), rc.WithIdentity(sessionID, id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity sends anonymous callers to the login page and runs next otherwise.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()).IsAnonymous() {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionIDFromRequest returns the session cookie value, or "".
func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// redirectToLogin redirects to the login page with the current path as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := safeRedirectPath(r.URL.Path)
	loginURL := "/auth/login?" + RedirectParam + "=" + url.QueryEscape(redirectPath)
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	// Browsers treat a leading backslash like a slash.
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// isSecureRequest reports whether the client reached us over TLS, directly or via a proxy.
func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || isForwardedHTTPS(r)
}

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
