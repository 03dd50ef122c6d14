package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"

	authmocks "github.com/target/mmk-blog/internal/mocks/auth"
	"github.com/target/mmk-blog/internal/service"
	"github.com/target/mmk-blog/internal/testutil"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// requireTemplateRenderer creates a TemplateRenderer from the repository templates.
func requireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return tr
}

// testApp is the full router over in-memory stores and a connection-counting database.
type testApp struct {
	server   *httptest.Server
	users    *authmocks.MemoryUserRepository
	posts    *authmocks.MemoryPostRepository
	sessions *authmocks.MemorySessionStore
	conns    *testutil.ConnCounter
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, conns := testutil.NewCountingDB(t)
	users := authmocks.NewMemoryUserRepository()
	posts := authmocks.NewMemoryPostRepository(users)
	sessions := authmocks.NewMemorySessionStore()

	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Users:    users,
		Sessions: sessions,
		Hasher:   authmocks.PlainHasher{},
		Logger:   discardLogger(),
	})
	postSvc := service.NewPostService(service.PostServiceOptions{Posts: posts, Logger: discardLogger()})

	handler, err := NewRouter(RouterServices{
		DB:         db,
		Auth:       authSvc,
		Posts:      postSvc,
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testApp{server: srv, users: users, posts: posts, sessions: sessions, conns: conns}
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	t      *testing.T
	base   *url.URL
	client *http.Client
}

func (a *testApp) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	base, err := url.Parse(a.server.URL)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: base,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type page struct {
	Status   int
	Location string
	Body     string
}

func (b *browser) do(req *http.Request) page {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return page{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Body: string(body)}
}

func (b *browser) get(path string) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base.String()+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

// post submits a form, adding the CSRF token the way a rendered form would.
func (b *browser) post(path string, form url.Values) page {
	b.t.Helper()
	token := b.cookie(DefaultCSRFCookieName)
	if token == "" {
		b.get("/auth/login")
		token = b.cookie(DefaultCSRFCookieName)
	}
	require.NotEmpty(b.t, token, "csrf cookie")

	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, token)
	req, err := http.NewRequest(http.MethodPost, b.base.String()+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) cookie(name string) string {
	for _, c := range b.client.Jar.Cookies(b.base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (b *browser) register(username, password string) page {
	b.t.Helper()
	return b.post("/auth/register", url.Values{"username": {username}, "password": {password}})
}

func (b *browser) login(username, password string) page {
	b.t.Helper()
	return b.post("/auth/login", url.Values{"username": {username}, "password": {password}})
}
