// Package apiclient is a rate-limited, retrying HTTP client for third-party
// JSON APIs.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/core/cache"
	"github.com/warroom/warroom/internal/core/ratelimit"
	"github.com/warroom/warroom/internal/metrics"
	"github.com/warroom/warroom/internal/observability"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
	DefaultUserAgent  = "WarRoom/1.0"

	maxResponseBytes = 10 << 20
)

// RequestOptions tunes a single call. Zero values select the defaults.
type RequestOptions struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

func (o RequestOptions) withDefaults(base RequestOptions) RequestOptions {
	if o.Timeout <= 0 {
		o.Timeout = base.Timeout
	}
	if o.Retries <= 0 {
		o.Retries = base.Retries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = base.RetryDelay
	}
	return o
}

// Config describes one upstream provider.
type Config struct {
	Provider   string
	BaseURL    string
	Token      string
	UserAgent  string
	Identifier string
	Policy     ratelimit.Policy
	Defaults   RequestOptions
}

// Client issues GET requests against a provider.
type Client struct {
	Provider   string
	BaseURL    *url.URL
	Token      string
	UserAgent  string
	Identifier string
	Policy     ratelimit.Policy
	Defaults   RequestOptions

	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
	Cache      *cache.Cache
	CacheTTL   time.Duration
	Logger     observability.Logger
	Clock      func() time.Time
	Sleep      Sleeper
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.HTTPClient = client }
}

// WithLimiter throttles calls through limiter.
func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Client) { c.Limiter = limiter }
}

// WithCache serves repeated raw responses from store for ttl. Providers that
// cache decoded payloads themselves, as the mentionlytics service does, leave
// it unset.
func WithCache(store *cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.Cache = store
		c.CacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) { c.Logger = logger }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) { c.Clock = clock }
}

// WithSleeper overrides how retry delays are waited out.
func WithSleeper(sleep Sleeper) Option {
	return func(c *Client) { c.Sleep = sleep }
}

// New builds a client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("base url is required")
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	policy := cfg.Policy
	if policy.MaxAttempts == 0 {
		policy = ratelimit.ClientPolicy
	}
	identifier := cfg.Identifier
	if identifier == "" {
		identifier = "global"
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	provider := cfg.Provider
	if provider == "" {
		provider = parsed.Host
	}

	c := &Client{
		Provider:   provider,
		BaseURL:    parsed,
		Token:      strings.TrimSpace(cfg.Token),
		UserAgent:  userAgent,
		Identifier: identifier,
		Policy:     policy,
		Defaults: cfg.Defaults.withDefaults(RequestOptions{
			Timeout:    DefaultTimeout,
			Retries:    DefaultRetries,
			RetryDelay: DefaultRetryDelay,
		}),
		HTTPClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IsConfigured reports whether an API credential is present.
func (c *Client) IsConfigured() bool {
	return c != nil && c.Token != ""
}

// Do performs a GET against endpoint and returns the raw response body.
func (c *Client) Do(ctx context.Context, endpoint string, params map[string]any, opts RequestOptions) ([]byte, error) {
	if c == nil {
		return nil, errors.New("api client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	opts = opts.withDefaults(c.Defaults)
	logger := observability.OrNop(c.Logger)

	if c.Limiter != nil {
		if err := c.Limiter.Check(ctx, c.Identifier, c.Policy); err != nil {
			return nil, err
		}
	}

	target, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	var cacheKey string
	if c.Cache != nil {
		cacheKey = cache.GenerateKey(c.Provider+"/"+endpoint, params)
		if data, ok, err := c.Cache.Get(ctx, cacheKey); err == nil && ok {
			return data, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Retries; attempt++ {
		logger.Info("Making upstream request",
			zap.String("provider", c.Provider),
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Any("params", params),
		)

		body, status, err := c.attempt(ctx, target, opts.Timeout)
		if err == nil {
			logger.Info("Upstream request succeeded",
				zap.String("provider", c.Provider),
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Int("data_size", len(body)),
			)
			if c.Cache != nil {
				if cerr := c.Cache.Set(ctx, cacheKey, body, c.CacheTTL); cerr != nil {
					logger.Warn("Failed to cache upstream response", zap.String("endpoint", endpoint), zap.Error(cerr))
				}
			}
			return body, nil
		}

		lastErr = err
		logger.Error("Upstream request attempt failed",
			zap.String("provider", c.Provider),
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Int("status", status),
			zap.Error(err),
		)

		if parentErr := ctx.Err(); parentErr != nil {
			return nil, fmt.Errorf("request %s cancelled: %w", endpoint, parentErr)
		}

		var (
			httpErr      *HTTPError
			transportErr *TransportError
			wait         time.Duration
		)
		switch {
		case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests:
			if attempt >= opts.Retries {
				return nil, err
			}
			// A server-supplied delay wins, including zero.
			wait = httpErr.RetryAfter
			if !httpErr.HasRetryAfter {
				wait = Backoff(attempt, opts.RetryDelay)
			}
			logger.Warn("Rate limited by upstream, retrying",
				zap.String("provider", c.Provider),
				zap.Int("attempt", attempt),
				zap.Duration("delay", wait),
			)
		case errors.As(err, &transportErr) && transportErr.Category.Retryable():
			if attempt >= opts.Retries {
				return nil, &RetriesExhaustedError{Attempts: attempt, Last: err}
			}
			wait = Backoff(attempt, opts.RetryDelay)
		default:
			return nil, err
		}

		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("request %s cancelled: %w", endpoint, err)
		}
	}

	return nil, &RetriesExhaustedError{Attempts: opts.Retries, Last: lastErr}
}

// Get performs a request and decodes the JSON body into T.
func Get[T any](ctx context.Context, c *Client, endpoint string, params map[string]any, opts RequestOptions) (T, error) {
	var out T
	body, err := c.Do(ctx, endpoint, params, opts)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return out, nil
}

func (c *Client) attempt(ctx context.Context, target string, timeout time.Duration) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := strings.TrimPrefix(target, c.BaseURL.String())
	if idx := strings.Index(endpoint, "?"); idx >= 0 {
		endpoint = endpoint[:idx]
	}
	start := time.Now()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		metrics.RecordUpstreamAttempt(c.Provider, endpoint, "failure", 0, time.Since(start))
		return nil, 0, &TransportError{Category: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		wait, hasWait := retryAfter(resp, c.now())
		outcome := "failure"
		if resp.StatusCode == http.StatusTooManyRequests {
			outcome = "retry"
		}
		metrics.RecordUpstreamAttempt(c.Provider, endpoint, outcome, resp.StatusCode, time.Since(start))
		return nil, resp.StatusCode, &HTTPError{
			StatusCode:    resp.StatusCode,
			Status:        http.StatusText(resp.StatusCode),
			RetryAfter:    wait,
			HasRetryAfter: hasWait,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.RecordUpstreamAttempt(c.Provider, endpoint, "failure", resp.StatusCode, time.Since(start))
		return nil, resp.StatusCode, &TransportError{Category: classify(err), Err: err}
	}

	metrics.RecordUpstreamAttempt(c.Provider, endpoint, "success", resp.StatusCode, time.Since(start))
	return body, resp.StatusCode, nil
}

func (c *Client) buildURL(endpoint string, params map[string]any) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	resolved := c.BaseURL.ResolveReference(ref)

	query := resolved.Query()
	for key, value := range params {
		if value == nil {
			continue
		}
		query.Add(key, fmt.Sprint(value))
	}
	resolved.RawQuery = query.Encode()
	return resolved.String(), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func (c *Client) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
