package httpx

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	mmkblog "github.com/target/mmk-blog"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	DB           *sql.DB
	Auth         AuthServiceInterface
	Posts        PostServiceInterface
	HealthChecks []HealthCheck
	CookieDomain string
	IsDev        bool         // Serve templates and static files from disk
	TemplateFS   fs.FS        // Overrides the template source when set (tests)
	Logger       *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter wires routes and middleware.
//
// Order, outermost first: Recover, Logging, then for application routes
// RequestScope, CSRFProtection and ResolveIdentity. Static files, /hello and
// /healthz skip the application chain and never touch the request scope.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.DB == nil || services.Auth == nil || services.Posts == nil {
		return nil, errors.New("router requires DB, Auth and Posts")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tr, err := newRenderer(services, logger)
	if err != nil {
		return nil, err
	}
	pages := &ErrorPages{T: tr, Logger: logger}

	app := http.NewServeMux()
	registerPostRoutes(app, &PostHandlers{Svc: services.Posts, T: tr, Errors: pages})
	registerAuthRoutes(app, &AuthHandlers{
		Svc:          services.Auth,
		T:            tr,
		Errors:       pages,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	})
	app.HandleFunc("/", pages.NotFound)

	appHandler := Chain(app,
		RequestScope(services.DB, logger),
		CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain}),
		ResolveIdentity(services.Auth, logger),
	)

	root := http.NewServeMux()
	root.Handle("GET /static/", staticHandler(services.IsDev))
	root.HandleFunc("GET /hello", helloHandler)
	root.Handle("GET /healthz", &HealthHandler{Checks: services.HealthChecks})
	root.Handle("/", appHandler)

	return Chain(root, Recover(logger), Logging(logger)), nil
}

func registerPostRoutes(mux *http.ServeMux, h *PostHandlers) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /posts/{id}", h.View)
	mux.Handle("GET /create", RequireIdentity(http.HandlerFunc(h.CreateForm)))
	mux.Handle("POST /create", RequireIdentity(http.HandlerFunc(h.Create)))
	mux.Handle("GET /posts/{id}/update", RequireIdentity(http.HandlerFunc(h.UpdateForm)))
	mux.Handle("POST /posts/{id}/update", RequireIdentity(http.HandlerFunc(h.Update)))
	mux.Handle("POST /posts/{id}/delete", RequireIdentity(http.HandlerFunc(h.Delete)))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/register", h.RegisterForm)
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("GET /auth/login", h.LoginForm)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /auth/logout", h.Logout)
	mux.HandleFunc("POST /auth/logout", h.Logout)
}

// newRenderer picks the template source: explicit override, disk in dev
// mode, embedded files otherwise.
func newRenderer(services RouterServices, logger *slog.Logger) (*TemplateRenderer, error) {
	templateFS := services.TemplateFS
	if templateFS == nil {
		if services.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(mmkblog.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				return nil, fmt.Errorf("template filesystem: %w", err)
			}
			templateFS = sub
		}
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tr, nil
}

// staticHandler serves /static/* from disk in dev mode and from the embedded FS otherwise.
func staticHandler(isDev bool) http.Handler {
	if isDev {
		return staticWithCacheHeaders(
			http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))),
			"no-cache, no-store, must-revalidate",
		)
	}
	staticSub, err := fs.Sub(mmkblog.StaticFS, "frontend/static")
	if err != nil {
		// The path is fixed at build time, so this only fails if the embed directive changes.
		panic(fmt.Sprintf("static filesystem: %v", err))
	}
	return staticWithCacheHeaders(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))),
		"public, max-age=3600",
	)
}

func staticWithCacheHeaders(handler http.Handler, cacheControl string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cacheControl)
		handler.ServeHTTP(w, r)
	})
}
