package apiclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	base := time.Second
	require.Equal(t, time.Second, Backoff(1, base))
	require.Equal(t, 2*time.Second, Backoff(2, base))
	require.Equal(t, 4*time.Second, Backoff(3, base))
	require.Equal(t, time.Second, Backoff(0, base))
}

func TestBackoffSaturates(t *testing.T) {
	for _, attempt := range []int{31, 40, 63, 64, 1000} {
		got := Backoff(attempt, 10*time.Second)
		require.Positive(t, got, "attempt %d", attempt)
		require.Equal(t, maxBackoff, got, "attempt %d", attempt)
	}
	require.Equal(t, 30*time.Minute, Backoff(1, 30*time.Minute))
	require.Zero(t, Backoff(3, 0))
}

func TestRetryAfterParsing(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}
	wait, ok := retryAfter(resp, now)
	require.True(t, ok)
	require.Equal(t, 7*time.Second, wait)

	resp.Header.Set("Retry-After", now.Add(30*time.Second).Format(http.TimeFormat))
	wait, ok = retryAfter(resp, now)
	require.True(t, ok)
	require.Equal(t, 30*time.Second, wait)

	resp.Header.Set("Retry-After", "soon")
	_, ok = retryAfter(resp, now)
	require.False(t, ok)

	_, ok = retryAfter(nil, now)
	require.False(t, ok)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Category
	}{
		{context.DeadlineExceeded, CategoryTimeout},
		{&net.DNSError{Err: "no such host", Name: "api.example.test"}, CategoryDNS},
		{io.ErrUnexpectedEOF, CategoryNetwork},
		{errors.New("read tcp: connection reset by peer"), CategoryConnectionReset},
		{errors.New("dial tcp: connection refused"), CategoryConnectionRefused},
		{errors.New("malformed request"), CategoryUnknown},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, classify(tc.err), tc.err.Error())
	}
	require.False(t, CategoryUnknown.Retryable())
	require.True(t, CategoryDNS.Retryable())
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
