package server

import (
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/config"
	"github.com/warroom/warroom/internal/observability"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
	"github.com/warroom/warroom/internal/server/handlers"
)

// socialRoutes maps paths under /api/v1/mentionlytics to operations.
var socialRoutes = map[string]string{
	"mentions":       mentionlytics.OpMentions,
	"sentiment":      mentionlytics.OpSentiment,
	"mentions/geo":   mentionlytics.OpGeo,
	"influencers":    mentionlytics.OpInfluencers,
	"share-of-voice": mentionlytics.OpShareOfVoice,
	"trending":       mentionlytics.OpTrending,
	"feed":           mentionlytics.OpFeed,
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)
	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	if s.api != nil {
		s.router.Group(s.registerAPI)
	}

	s.registerAdminEndpoint()
}

func (s *Server) registerAPI(r chi.Router) {
	if s.limiter != nil {
		r.Use(throttle(s.limiter, s.policy))
	}

	api := s.api
	r.Route("/api/v1/mentionlytics", func(r chi.Router) {
		for path, op := range socialRoutes {
			r.Get("/"+path, api.SocialOperation(op))
		}
	})

	r.Get("/mentions", api.ListMentions)
	r.Post("/mentions", api.CreateMention)
	r.Post("/mentions/sync", api.SyncMentions)

	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", api.ListCampaigns)
		r.Post("/", api.CreateCampaign)
		r.Get("/{id}", api.GetCampaign)
		r.Put("/{id}", api.UpdateCampaign)
	})

	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", api.ListAlerts)
		r.Post("/", api.CreateAlert)
		r.Get("/summary", api.AlertsSummary)
		r.Post("/{id}/resolve", api.ResolveAlert)
	})

	r.Get("/staff", api.ListStaff)
	r.Post("/staff", api.CreateStaff)

	r.Get("/performance/metrics", api.ListMetrics)
	r.Post("/performance/metrics", api.CreateMetric)

	r.Post("/monitoring/sync-performance", api.SyncPerformance)
	r.Post("/monitoring/crisis/scan", api.ScanCrises)
	r.Get("/monitoring/crisis", api.ListCrises)
	r.Get("/monitoring/crisis/active", api.ActiveCrises)
	r.Get("/monitoring/crisis/dashboard", api.CrisisDashboard)
	r.Get("/monitoring/crisis/history", api.CrisisHistory)
	r.Post("/monitoring/crisis/acknowledge/{id}", api.AcknowledgeCrisis)
	r.Put("/monitoring/crisis/resolve/{id}", api.ResolveCrisis)
}

// registerAdminEndpoint mounts /admin/signal when WARROOM_ADMIN_TOKEN is set.
func (s *Server) registerAdminEndpoint() {
	tokenVar := config.EnvPrefix + "_ADMIN_TOKEN"
	adminToken := os.Getenv(tokenVar)
	logger := observability.OrNop(observability.ServerLogger)

	if adminToken == "" {
		logger.Debug("Admin signal endpoint disabled (no " + tokenVar + " set)")
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,
		RateBurst: 5,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	logger.Info("Admin signal endpoint enabled",
		zap.String("path", "/admin/signal"),
		zap.String("rate_limit", "10/min, burst 5"))
	logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
}
