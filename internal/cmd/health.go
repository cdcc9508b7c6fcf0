package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warroom/warroom/internal/config"
	"github.com/warroom/warroom/internal/output"
)

type healthCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type healthReport struct {
	Healthy bool          `json:"healthy"`
	Checks  []healthCheck `json:"checks"`
}

func (r *healthReport) add(name string, err error, detail string) {
	check := healthCheck{Name: name, Status: "pass", Detail: detail}
	if err != nil {
		check.Status = "fail"
		check.Detail = err.Error()
		r.Healthy = false
	}
	r.Checks = append(r.Checks, check)
}

func (r *healthReport) warn(name, detail string) {
	r.Checks = append(r.Checks, healthCheck{Name: name, Status: "warn", Detail: detail})
}

func (r *healthReport) table() *output.Table {
	tbl := output.NewTable("Health", "Check", "Status", "Detail")
	for _, c := range r.Checks {
		tbl.Append(c.Name, c.Status, c.Detail)
	}
	return tbl
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Verify that configuration decodes, the database opens and migrates,
and report which upstream providers have credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resolveOutputFormat(cmd); err != nil {
			return err
		}
		report := runHealthChecks(cmd.Context())
		if err := emit(cmd, "health", report, report.table()); err != nil {
			return err
		}
		if !report.Healthy {
			return fmt.Errorf("health check failed")
		}
		return nil
	},
}

func runHealthChecks(ctx context.Context) *healthReport {
	report := &healthReport{Healthy: true}

	if versionInfo.Version == "" {
		report.add("version", fmt.Errorf("version information missing"), "")
	} else {
		report.add("version", nil, versionInfo.Version)
	}

	cfg, err := loadConfig()
	report.add("config", err, "")
	if err != nil {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := openStoreWith(ctx, cfg.Store)
	if err == nil {
		err = db.DB.PingContext(ctx)
		_ = db.Close()
	}
	report.add("store", err, storeTarget(cfg.Store))

	for _, name := range []string{"mentionlytics", "meta", "google_ads"} {
		pc := providerConfig(cfg, name)
		if pc.Token == "" {
			report.warn(name, "no token configured; mock or skipped")
			continue
		}
		report.add(name, nil, pc.BaseURL)
	}
	return report
}

func storeTarget(cfg config.StoreConfig) string {
	if cfg.URL != "" {
		return cfg.Driver + " " + cfg.URL
	}
	return cfg.Driver + " " + cfg.Path
}

func init() {
	addOutputFlags(healthCmd, output.FormatTable)
	rootCmd.AddCommand(healthCmd)
}
