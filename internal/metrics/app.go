package metrics

import (
	"strconv"
	"time"

	"github.com/warroom/warroom/internal/observability"
)

// Metric names follow Prometheus conventions; the exporter adds the namespace.
const (
	UpstreamAttemptsTotal   = "upstream_attempts_total"
	UpstreamRequestDuration = "upstream_request_duration_ms"
	UpstreamFallbacksTotal  = "upstream_fallbacks_total"

	CacheLookupsTotal   = "cache_lookups_total"
	CacheEvictionsTotal = "cache_evictions_total"

	RateLimitRejectionsTotal = "rate_limit_rejections_total"
	RateLimitSweptTotal      = "rate_limit_swept_total"

	CrisisAlertsTotal = "crisis_alerts_total"

	ServerStartTime = "app_server_start_time_seconds"
)

// RecordUpstreamAttempt records one outbound attempt against a provider.
// outcome is one of success, retry, failure.
func RecordUpstreamAttempt(provider, endpoint, outcome string, status int, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	labels := map[string]string{
		"provider": provider,
		"endpoint": endpoint,
		"outcome":  outcome,
		"status":   strconv.Itoa(status),
	}
	_ = observability.TelemetrySystem.Counter(UpstreamAttemptsTotal, 1, labels)
	_ = observability.TelemetrySystem.Histogram(UpstreamRequestDuration, duration, map[string]string{
		"provider": provider,
		"endpoint": endpoint,
	})
}

// RecordFallback records a caller serving synthetic data instead of provider data.
func RecordFallback(provider, operation, reason string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(UpstreamFallbacksTotal, 1, map[string]string{
		"provider":  provider,
		"operation": operation,
		"reason":    reason,
	})
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if observability.TelemetrySystem == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	_ = observability.TelemetrySystem.Counter(CacheLookupsTotal, 1, map[string]string{"result": result})
}

// RecordCacheEvictions records entries removed because their TTL elapsed.
func RecordCacheEvictions(count int) {
	if observability.TelemetrySystem == nil || count <= 0 {
		return
	}
	_ = observability.TelemetrySystem.Counter(CacheEvictionsTotal, float64(count), nil)
}

// RecordRateLimitRejection records a rejected rate-limit check.
func RecordRateLimitRejection(policy string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(RateLimitRejectionsTotal, 1, map[string]string{"policy": policy})
}

// RecordRateLimitSwept records stale rate-limit records removed by a sweep.
func RecordRateLimitSwept(count int) {
	if observability.TelemetrySystem == nil || count <= 0 {
		return
	}
	_ = observability.TelemetrySystem.Counter(RateLimitSweptTotal, float64(count), nil)
}

// RecordCrisisAlert records an alert raised by the crisis detector.
func RecordCrisisAlert(triggerType, impact string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(CrisisAlertsTotal, 1, map[string]string{
		"trigger": triggerType,
		"impact":  impact,
	})
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Gauge(ServerStartTime, float64(timestamp), nil)
}
