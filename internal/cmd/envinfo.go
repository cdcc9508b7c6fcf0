package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/config"
	"github.com/warroom/warroom/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information. Secrets are never printed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := observability.CLILogger
		version := crucible.GetVersion()

		log.Info("=== War Room Environment Information ===")
		log.Info("")
		log.Info("Application:")
		log.Info("  Name:       " + config.AppName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS/ARCH:  "+runtime.GOOS+"/"+runtime.GOARCH, zap.String("goos", runtime.GOOS), zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig()
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return err
		}

		log.Info("Configuration:")
		log.Info(fmt.Sprintf("  Server:         %s:%d", cfg.Server.Host, cfg.Server.Port))
		log.Info("  Log Level:      " + cfg.Logging.Level)
		log.Info("  DB Driver:      " + cfg.Store.Driver)
		if strings.TrimSpace(cfg.Store.URL) != "" {
			log.Info("  DB URL:         " + cfg.Store.URL)
		} else {
			log.Info("  DB Path:        " + cfg.Store.Path)
		}
		log.Info(fmt.Sprintf("  Metrics:        enabled=%t port=%d", cfg.Metrics.Enabled, cfg.Metrics.Port))
		log.Info("  Config File:    " + config.DefaultConfigPath())
		log.Info("")

		log.Info("Resilience:")
		log.Info(fmt.Sprintf("  Cache:          backend=%s ttl=%s fallback_ttl=%s", cfg.Cache.Backend, cfg.Cache.DefaultTTL, cfg.Cache.FallbackTTL))
		log.Info(fmt.Sprintf("  Rate Limit:     backend=%s sweep=%s", cfg.RateLimit.Backend, cfg.RateLimit.SweepInterval))
		log.Info(fmt.Sprintf("    client:       enabled=%t %d/%s", cfg.RateLimit.Client.Enabled, cfg.RateLimit.Client.MaxAttempts, cfg.RateLimit.Client.Window))
		log.Info(fmt.Sprintf("    http:         enabled=%t %d/%s", cfg.RateLimit.HTTP.Enabled, cfg.RateLimit.HTTP.MaxAttempts, cfg.RateLimit.HTTP.Window))
		log.Info("")

		log.Info("Providers:")
		for _, name := range []string{"mentionlytics", "meta", "google_ads"} {
			pc := providerConfig(cfg, name)
			log.Info(fmt.Sprintf("  %-14s  %s token=%t timeout=%s retries=%d", name+":", pc.BaseURL, pc.Token != "", pc.Timeout, pc.Retries))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}

func providerConfig(cfg *config.Config, name string) config.ProviderConfig {
	switch name {
	case "meta":
		return cfg.Meta
	case "google_ads":
		return cfg.GoogleAds
	default:
		return cfg.Mentionlytics
	}
}
