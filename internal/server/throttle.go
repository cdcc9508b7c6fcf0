package server

import (
	stderrors "errors"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/core/ratelimit"
	"github.com/warroom/warroom/internal/observability"
)

// throttle rejects callers that exceed policy with 429 and Retry-After.
// Limiter store failures let the request through.
func throttle(limiter *ratelimit.Limiter, policy ratelimit.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := limiter.Check(r.Context(), "http:"+clientIP(r), policy)
			switch {
			case err == nil:
			case stderrors.Is(err, ratelimit.ErrRateLimited):
				HandleError(w, r, err)
				return
			default:
				observability.OrNop(observability.ServerLogger).Warn("Rate limit check failed, allowing request",
					zap.String("path", r.URL.Path),
					zap.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr, which RealIP has already
// replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}
