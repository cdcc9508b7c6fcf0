package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/config"
	"github.com/warroom/warroom/internal/core/apiclient"
	"github.com/warroom/warroom/internal/core/cache"
	"github.com/warroom/warroom/internal/core/crisis"
	"github.com/warroom/warroom/internal/core/janitor"
	"github.com/warroom/warroom/internal/core/ratelimit"
	"github.com/warroom/warroom/internal/core/store"
	"github.com/warroom/warroom/internal/observability"
	"github.com/warroom/warroom/internal/providers/ads"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
	"github.com/warroom/warroom/internal/server/handlers"
)

const backendStore = "store"

// app holds the components shared by serve and the one-shot commands.
type app struct {
	cfg    *config.Config
	logger observability.Logger

	store     *store.Store
	limiter   *ratelimit.Limiter
	responses *cache.Cache
	social    *mentionlytics.Service
	importer  *mentionlytics.Importer
	syncer    *ads.Syncer
	scanner   *crisis.Engine
	janitors  []*janitor.Janitor
}

// newApp wires providers, caches and limiters from cfg. The database is
// opened when withStore is set or a backend lives in it.
func newApp(ctx context.Context, cfg *config.Config, logger observability.Logger, withStore bool) (*app, error) {
	a := &app{cfg: cfg, logger: observability.OrNop(logger)}

	if withStore || usesStore(cfg.Cache.Backend) || usesStore(cfg.RateLimit.Backend) {
		db, err := openStoreWith(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		a.store = db
	}

	var limiterStore ratelimit.Store = ratelimit.NewMemoryStore()
	if usesStore(cfg.RateLimit.Backend) {
		limiterStore = a.store.RateLimits()
	}
	a.limiter = ratelimit.New(limiterStore, a.logger)

	var cacheStore cache.Store = cache.NewMemoryStore()
	if usesStore(cfg.Cache.Backend) {
		cacheStore = a.store.Cache()
	}
	a.responses = cache.New(cacheStore, a.logger)

	mentionsClient, err := a.newClient(mentionlytics.Provider, cfg.Mentionlytics)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.social = mentionlytics.NewService(mentionsClient, a.responses, a.logger)
	if cfg.Cache.DefaultTTL > 0 {
		a.social.TTL = cfg.Cache.DefaultTTL
	}
	if cfg.Cache.FallbackTTL > 0 {
		a.social.FallbackTTL = cfg.Cache.FallbackTTL
	}

	metaClient, err := a.newClient(ads.PlatformMeta, cfg.Meta)
	if err != nil {
		a.Close()
		return nil, err
	}
	googleClient, err := a.newClient(ads.PlatformGoogleAds, cfg.GoogleAds)
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.store != nil {
		a.importer = mentionlytics.NewImporter(a.social, a.store, a.logger)
		a.syncer = ads.NewSyncer(a.store, a.logger,
			&ads.MetaSource{Client: metaClient},
			&ads.GoogleAdsSource{Client: googleClient, CustomerID: cfg.GoogleAds.CustomerID},
		)
		keywords := cfg.Crisis.Keywords
		if len(keywords) == 0 {
			keywords = crisis.DefaultKeywords
		}
		a.scanner = &crisis.Engine{Stats: a.store, Recorder: a.store, Keywords: keywords, Logger: a.logger}
	}

	return a, nil
}

func (a *app) newClient(provider string, pc config.ProviderConfig) (*apiclient.Client, error) {
	opts := []apiclient.Option{apiclient.WithLogger(a.logger)}
	policy := a.cfg.RateLimit.Client
	if policy.Enabled {
		opts = append(opts, apiclient.WithLimiter(a.limiter))
	}

	client, err := apiclient.New(apiclient.Config{
		Provider:   provider,
		BaseURL:    pc.BaseURL,
		Token:      pc.Token,
		UserAgent:  config.AppName + "/" + versionInfo.Version,
		Identifier: "client:" + provider,
		Policy:     ratelimit.Policy{Name: "client", MaxAttempts: policy.MaxAttempts, Window: policy.Window},
		Defaults: apiclient.RequestOptions{
			Timeout:    pc.Timeout,
			Retries:    pc.Retries,
			RetryDelay: pc.RetryDelay,
		},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("configure %s client: %w", provider, err)
	}
	return client, nil
}

// httpPolicy returns the inbound throttle policy, or false when disabled.
func (a *app) httpPolicy() (ratelimit.Policy, bool) {
	p := a.cfg.RateLimit.HTTP
	if !p.Enabled {
		return ratelimit.Policy{}, false
	}
	return ratelimit.Policy{Name: "http", MaxAttempts: p.MaxAttempts, Window: p.Window}, true
}

// api exposes the components to the HTTP handlers. Store-backed endpoints
// stay nil without a database.
func (a *app) api() *handlers.API {
	api := &handlers.API{Social: a.social, Logger: a.logger}
	if a.store != nil {
		api.Mentions = a.store
		api.MentionSync = a.importer
		api.Crises = a.store
		api.Scanner = a.scanner
		api.Syncer = a.syncer
		api.Campaigns = a.store
		api.Alerts = a.store
		api.Staff = a.store
		api.Metrics = a.store
	}
	return api
}

// startJanitors launches cache eviction, limiter sweeps and, when an
// interval is configured, periodic crisis scans.
func (a *app) startJanitors(ctx context.Context) {
	a.janitors = append(a.janitors,
		janitor.New("cache", a.cfg.Cache.CleanupInterval, a.responses.Cleanup, a.logger),
		janitor.New("rate_limit", a.cfg.RateLimit.SweepInterval, a.limiter.Sweep, a.logger),
	)
	if a.scanner != nil && a.cfg.Crisis.ScanInterval > 0 {
		a.janitors = append(a.janitors, janitor.New("crisis_scan", a.cfg.Crisis.ScanInterval, func(ctx context.Context) (int, error) {
			result, err := a.scanner.Scan(ctx, true)
			if err != nil {
				return 0, err
			}
			return len(result.Alerts), nil
		}, a.logger))
	}

	for _, j := range a.janitors {
		j.Start(ctx)
	}
}

// Close stops janitors and releases the database.
func (a *app) Close() {
	if a == nil {
		return
	}
	for _, j := range a.janitors {
		j.Stop()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close store", zap.Error(err))
		}
	}
}

func usesStore(backend string) bool {
	return strings.EqualFold(strings.TrimSpace(backend), backendStore)
}
