package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	ok := HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name       string
		checks     []HealthCheck
		wantStatus int
		wantBody   healthResponse
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   healthResponse{Status: "ok"},
		},
		{
			name:       "all healthy",
			checks:     []HealthCheck{ok},
			wantStatus: http.StatusOK,
			wantBody:   healthResponse{Status: "ok", Checks: map[string]string{"postgres": "ok"}},
		},
		{
			name:       "one failing",
			checks:     []HealthCheck{ok, down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: healthResponse{Status: "degraded", Checks: map[string]string{
				"postgres": "ok",
				"redis":    "error: connection refused",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HealthHandler{Checks: tt.checks}
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var got healthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestHealthHandler_HeadHasNoBody(t *testing.T) {
	h := &HealthHandler{Checks: []HealthCheck{{
		Name:  "redis",
		Check: func(context.Context) error { return errors.New("down") },
	}}}

	rec := serve(h, httptest.NewRequest(http.MethodHead, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestHealthHandler_ChecksGetDeadline(t *testing.T) {
	var hasDeadline bool
	h := &HealthHandler{Checks: []HealthCheck{{
		Name: "db",
		Check: func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		},
	}}}

	serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.True(t, hasDeadline)
}

func TestHello(t *testing.T) {
	app := newTestApp(t)
	p := app.newBrowser(t).get("/hello")

	assert.Equal(t, http.StatusOK, p.Status)
	assert.Equal(t, "Hello World!", p.Body)
}

func TestStatic_ServesEmbeddedAssets(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/static/style.css")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
}
