package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"podnplay/internal/discovery"
	"podnplay/internal/handlers"
	"podnplay/internal/metrics"
	"podnplay/internal/middleware"
	"podnplay/internal/models"
	"podnplay/internal/storage"
	"podnplay/internal/workflow"
)

type stubStore struct{}

func (stubStore) GenerateUploadURL(ctx context.Context) (storage.Target, error) {
	return storage.Target{Key: "audio/x", URL: "https://minio.example/put"}, nil
}

func (stubStore) URL(ctx context.Context, storageID string) (string, error) {
	return "https://cdn.example/" + storageID, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	logger := zap.NewNop()
	auth := middleware.NewAuthenticator("123456:test-token", time.Hour, logger)
	search := func(ctx context.Context, q string) ([]models.Podcast, error) {
		return []models.Podcast{}, nil
	}
	h, err := handlers.New(handlers.Options{
		Discovery: discovery.NewService(search, time.Second, logger),
		Drafts:    workflow.NewRegistry(workflow.Services{}, time.Hour),
		Store:     stubStore{},
		Auth:      auth,
		Logger:    logger,
		BaseURL:   "http://localhost:8080",
	})
	require.NoError(t, err)
	return &App{
		handlers: h,
		auth:     auth,
		limiter:  middleware.NewRateLimiterMiddleware(rate.Limit(1), 1, logger),
		metrics:  metrics.New(),
		logger:   logger,
	}
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)
	return rr
}

func TestPublicRoutes(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{name: "health", path: "/healthz", status: http.StatusOK, body: `"ok"`},
		{name: "home", path: "/", status: http.StatusOK, body: "No podcasts available"},
		{name: "discover search", path: "/discover?search=go", status: http.StatusOK, body: "No podcasts found"},
		{name: "search api", path: "/api/podcasts", status: http.StatusOK, body: `"state":"empty"`},
		{name: "sign in page", path: "/sign-in", status: http.StatusOK, body: "Continue with Telegram"},
		{name: "static icon", path: "/static/icons/logo.svg", status: http.StatusOK, body: "<svg"},
		{name: "metrics", path: "/metrics", status: http.StatusOK, body: "go_goroutines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(app, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.body)
		})
	}
}

func TestAudioRouteAcceptsNestedKeys(t *testing.T) {
	rr := serve(newTestApp(t), httptest.NewRequest(http.MethodGet, "/audio/audio/abc-123", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://cdn.example/audio/abc-123", rr.Header().Get("Location"))
}

func TestPrivateRoutesRequireUser(t *testing.T) {
	app := newTestApp(t)

	rr := serve(app, httptest.NewRequest(http.MethodGet, "/create", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/sign-in", rr.Header().Get("Location"))

	for _, path := range []string{"/create/generate", "/create/upload", "/create/uploaded", "/podcasts", "/api/upload-url"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(""))
		rr := serve(app, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	rr = serve(app, httptest.NewRequest(http.MethodGet, "/api/workflow", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestInvalidSessionCookieFallsBackToAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/discover", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "user=%7B%7D&hash=bad"})
	rr := serve(newTestApp(t), req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Sign in")
}

func TestSignOutRequiresPost(t *testing.T) {
	rr := serve(newTestApp(t), httptest.NewRequest(http.MethodGet, "/sign-out", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
