package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/config"
	errwrap "github.com/warroom/warroom/internal/errors"
	"github.com/warroom/warroom/internal/metrics"
	"github.com/warroom/warroom/internal/observability"
	"github.com/warroom/warroom/internal/server"
	"github.com/warroom/warroom/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the campaign monitoring API with graceful shutdown support.

Background janitors evict expired cache entries, sweep idle rate limit
records and, when crisis.scan_interval is set, run crisis detection.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (log level only; restart for everything else)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "invalid configuration")
		}

		observability.InitServerLogger(config.AppName, cfg.Logging.Level, config.AppName)
		logger := observability.ServerLogger

		metricsPort := cfg.Metrics.Port
		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(config.AppName, metricsPort, config.AppName); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
			metrics.SetServerStartTime(time.Now().Unix())
		}

		logger.Info("Initializing server",
			zap.String("service", config.AppName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", observability.GetMetricsPort()),
			zap.String("cache_backend", cfg.Cache.Backend),
			zap.String("rate_limit_backend", cfg.RateLimit.Backend))

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApp(ctx, cfg, logger, true)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to initialize services")
		}
		defer a.Close()
		a.startJanitors(ctx)

		if !a.social.Client.IsConfigured() {
			logger.Warn("Mentionlytics token not configured; social listening serves mock data")
		}

		hm := handlers.InitHealthManager(versionInfo.Version)
		hm.RegisterChecker("store", handlers.HealthCheckFunc(func(ctx context.Context) error {
			return a.store.DB.PingContext(ctx)
		}))
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}

		opts := []server.Option{
			server.WithAPI(a.api()),
			server.WithCORS(cfg.Server.CORSOrigins),
			server.WithTimeouts(server.Timeouts{
				Read:  cfg.Server.ReadTimeout,
				Write: cfg.Server.WriteTimeout,
				Idle:  cfg.Server.IdleTimeout,
			}),
		}
		if policy, ok := a.httpPolicy(); ok {
			opts = append(opts, server.WithThrottle(a.limiter, policy))
		}
		srv := server.New(cfg.Server.Host, cfg.Server.Port, opts...)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: server first, then janitors, then logger flush.
		signals.OnShutdown(func(ctx context.Context) error {
			if err := logger.Sync(); err != nil {
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			cancel()
			a.Close()
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			shutdownCtx, stop := context.WithTimeout(ctx, shutdownTimeout)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: attempting config reload")
			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if errors.As(err, &notFound) {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			observability.SetServerLogLevel(viper.GetString("logging.level"))
			logger.Info("Configuration reloaded", zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 2)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
		go func() {
			if err := signals.Listen(ctx); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
