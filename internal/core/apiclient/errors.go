package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Category classifies a transport-level failure.
type Category string

const (
	CategoryTimeout           Category = "timeout"
	CategoryNetwork           Category = "network"
	CategoryDNS               Category = "dns"
	CategoryConnectionRefused Category = "connection_refused"
	CategoryConnectionReset   Category = "connection_reset"
	CategoryUnknown           Category = "unknown"
)

// Retryable reports whether failures in this category are worth another attempt.
func (c Category) Retryable() bool {
	switch c {
	case CategoryTimeout, CategoryNetwork, CategoryDNS, CategoryConnectionRefused, CategoryConnectionReset:
		return true
	default:
		return false
	}
}

// TransportError wraps a failure that happened before a response arrived.
type TransportError struct {
	Category Category
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the attempt exceeded its deadline.
func (e *TransportError) Timeout() bool { return e.Category == CategoryTimeout }

// HTTPError reports a non-2xx response. HasRetryAfter is set when the
// response carried a parseable Retry-After header.
type HTTPError struct {
	StatusCode    int
	Status        string
	RetryAfter    time.Duration
	HasRetryAfter bool
}

func (e *HTTPError) Error() string {
	text := e.Status
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, text)
}

// RetriesExhaustedError carries the last failure after every attempt failed.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

var transientIndicators = []struct {
	needle   string
	category Category
}{
	{"no such host", CategoryDNS},
	{"connection refused", CategoryConnectionRefused},
	{"connection reset", CategoryConnectionReset},
	{"broken pipe", CategoryConnectionReset},
	{"timeout", CategoryTimeout},
	{"deadline exceeded", CategoryTimeout},
	{"network is unreachable", CategoryNetwork},
	{"eof", CategoryNetwork},
}

// classify maps a transport error into a Category. Typed checks run first;
// message matching is the fallback for wrapped errors that lost their type.
func classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.As(err, &dnsErr):
		return CategoryDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		return CategoryConnectionRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return CategoryConnectionReset
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return CategoryNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	message := strings.ToLower(err.Error())
	for _, indicator := range transientIndicators {
		if strings.Contains(message, indicator.needle) {
			return indicator.category
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CategoryNetwork
	}
	return CategoryUnknown
}
