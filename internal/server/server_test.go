package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroom/warroom/internal/core/ratelimit"
	apperrors "github.com/warroom/warroom/internal/errors"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
	"github.com/warroom/warroom/internal/server/handlers"
)

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New("127.0.0.1", 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestAPIRoutesRequireWithAPI(t *testing.T) {
	srv := New("127.0.0.1", 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mentionlytics/feed", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSocialRoutesServeEveryOperation(t *testing.T) {
	api := &handlers.API{Social: mentionlytics.NewService(nil, nil, nil)}
	srv := New("127.0.0.1", 0, WithAPI(api))

	for path := range socialRoutes {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mentionlytics/"+path, nil))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var body struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.True(t, body.Success)
		})
	}
}

func TestMonitoringRoutesWithoutStoreAreUnavailable(t *testing.T) {
	srv := New("127.0.0.1", 0, WithAPI(&handlers.API{}))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/mentions"},
		{http.MethodGet, "/monitoring/crisis"},
		{http.MethodGet, "/monitoring/crisis/active"},
		{http.MethodGet, "/monitoring/crisis/dashboard"},
		{http.MethodPost, "/monitoring/crisis/scan"},
		{http.MethodGet, "/monitoring/crisis/history"},
		{http.MethodPost, "/monitoring/crisis/acknowledge/abc"},
		{http.MethodPut, "/monitoring/crisis/resolve/abc"},
		{http.MethodPost, "/monitoring/sync-performance"},
		{http.MethodPost, "/mentions/sync"},
		{http.MethodGet, "/campaigns"},
		{http.MethodPost, "/campaigns"},
		{http.MethodGet, "/campaigns/1"},
		{http.MethodPut, "/campaigns/1"},
		{http.MethodGet, "/alerts"},
		{http.MethodPost, "/alerts"},
		{http.MethodGet, "/alerts/summary"},
		{http.MethodPost, "/alerts/1/resolve"},
		{http.MethodGet, "/staff"},
		{http.MethodPost, "/staff"},
		{http.MethodGet, "/performance/metrics"},
		{http.MethodPost, "/performance/metrics"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, tt.method+" "+tt.path)
	}
}

func TestOldCrisisTransitionPathsAreGone(t *testing.T) {
	srv := New("127.0.0.1", 0, WithAPI(&handlers.API{}))

	for _, path := range []string{"/monitoring/crisis/abc/acknowledge", "/monitoring/crisis/abc/resolve"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/monitoring/crisis/resolve/abc", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestThrottleRejectsWithRetryAfter(t *testing.T) {
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), nil)
	policy := ratelimit.Policy{Name: "http", MaxAttempts: 2, Window: time.Minute}
	api := &handlers.API{Social: mentionlytics.NewService(nil, nil, nil)}
	srv := New("127.0.0.1", 0, WithAPI(api), WithThrottle(limiter, policy))

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/mentionlytics/sentiment", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:4000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:4001").Code)

	rec := call("10.0.0.1:4002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, apperrors.CodeRateLimited, body.Error.Code)

	// Other clients keep their own budget; health is never throttled.
	assert.Equal(t, http.StatusOK, call("10.0.0.2:4000").Code)
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := New("127.0.0.1", 0, WithAPI(&handlers.API{}), WithCORS([]string{"https://dashboard.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/mentions", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/mentions", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	assert.Equal(t, "192.0.2.10", clientIP(req))

	req.RemoteAddr = "192.0.2.11"
	assert.Equal(t, "192.0.2.11", clientIP(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", clientIP(req))
}
