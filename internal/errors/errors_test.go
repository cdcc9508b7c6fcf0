package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroom/warroom/internal/core/ratelimit"
)

func TestHTTPStatusFromCode(t *testing.T) {
	tests := map[string]int{
		CodeValidationFailed: http.StatusBadRequest,
		CodeInvalidInput:     http.StatusBadRequest,
		CodeNotFound:         http.StatusNotFound,
		CodeRateLimited:      http.StatusTooManyRequests,
		CodeExternalService:  http.StatusBadGateway,
		CodeUnavailable:      http.StatusServiceUnavailable,
		"SOMETHING_ELSE":     http.StatusInternalServerError,
	}

	for code, want := range tests {
		assert.Equal(t, want, HTTPStatusFromCode(code), code)
	}
}

func TestEnsureEnvelopeRateLimited(t *testing.T) {
	rejected := &ratelimit.RejectedError{Identifier: "10.0.0.1", RetryAfter: 1500 * time.Millisecond}
	env := EnsureEnvelope(fmt.Errorf("throttle: %w", rejected))

	require.Equal(t, CodeRateLimited, env.Code)
	require.Equal(t, "2s", env.Details["retry_after"])
}

func TestRespondWithErrorRateLimited(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/mentionlytics/mentions", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, &ratelimit.RejectedError{Identifier: "global", RetryAfter: 60 * time.Second})

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, CodeRateLimited, body.Error.Code)
	require.NotEmpty(t, body.Error.RequestID)
}

func TestRespondWithErrorUnknown(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, fmt.Errorf("boom"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, CodeInternal, body.Error.Code)
	require.Equal(t, "boom", body.Error.Details["wrapped_error"])
}
