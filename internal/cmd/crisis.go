package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warroom/warroom/internal/core"
	"github.com/warroom/warroom/internal/observability"
	"github.com/warroom/warroom/internal/output"
)

var (
	crisisScanDryRun bool
	crisisListStatus string
)

var crisisCmd = &cobra.Command{
	Use:   "crisis",
	Short: "Detect and review crisis events",
}

var crisisScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run crisis detection over stored mentions",
	Long: `Run the volume spike, sentiment drop and keyword detectors over the
stored mentions. Alerts are recorded as active crisis events unless
--dry-run is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resolveOutputFormat(cmd); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, observability.CLILogger, true)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.scanner.Scan(cmd.Context(), !crisisScanDryRun)
		if err != nil {
			return err
		}

		tbl := output.NewTable("Crisis Alerts", "Title", "Trigger", "Severity", "Impact", "Spike", "Sentiment Drop")
		tbl.Empty = "(no alerts)"
		for _, alert := range result.Alerts {
			tbl.Append(alert.Title, alert.TriggerType, alert.Severity, alert.EstimatedImpact,
				fmt.Sprintf("%.2fx", alert.Metrics.MentionSpike),
				fmt.Sprintf("%.0f%%", alert.Metrics.SentimentDrop*100))
		}
		return emit(cmd, "crisis.scan", result, tbl)
	},
}

var crisisListCmd = &cobra.Command{
	Use:   "list",
	Short: "List crisis events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resolveOutputFormat(cmd); err != nil {
			return err
		}
		statuses, err := core.ParseCrisisStatuses(crisisListStatus)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		events, err := db.ListCrisisEvents(cmd.Context(), statuses...)
		if err != nil {
			return err
		}
		return emit(cmd, "crisis.list", events, crisisEventTable("Crisis Events", events))
	},
}

var crisisSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the crisis dashboard summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resolveOutputFormat(cmd); err != nil {
			return err
		}
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		summary, err := db.CrisisSummary(cmd.Context())
		if err != nil {
			return err
		}

		tbl := output.NewTable("Crisis Summary", "Metric", "Value").
			Append("Active", summary.ActiveCrises).
			Append("Total", summary.TotalCrises).
			Append("Average severity", fmt.Sprintf("%.1f", summary.AverageSeverity)).
			Append("Avg resolution (hours)", fmt.Sprintf("%.1f", summary.AverageResolutionTime)).
			Append("Severity low/medium/high/critical", fmt.Sprintf("%d/%d/%d/%d",
				summary.SeverityDistribution.Low, summary.SeverityDistribution.Medium,
				summary.SeverityDistribution.High, summary.SeverityDistribution.Critical)).
			Append("Acknowledged", summary.StatusBreakdown.Acknowledged).
			Append("Resolved", summary.StatusBreakdown.Resolved)
		return emit(cmd, "crisis.summary", summary, tbl)
	},
}

func crisisEventTable(title string, events []core.CrisisEvent) *output.Table {
	tbl := output.NewTable(title, "ID", "Title", "Severity", "Status", "Trigger", "Detected")
	tbl.Empty = "(no crisis events)"
	for _, e := range events {
		tbl.Append(e.ID, e.Title, e.Severity, e.Status, e.TriggerType, e.DetectedAt.UTC().Format(time.RFC3339))
	}
	if len(events) > 0 {
		tbl.Footer = []any{output.Count(len(events), "event", "events"), "", "", "", "", ""}
	}
	return tbl
}

func init() {
	addOutputFlags(crisisScanCmd, output.FormatTable)
	crisisScanCmd.Flags().BoolVar(&crisisScanDryRun, "dry-run", false, "Detect without recording events")

	addOutputFlags(crisisListCmd, output.FormatTable)
	crisisListCmd.Flags().StringVar(&crisisListStatus, "status", "", "Filter by status (comma-separated; open = active,acknowledged)")

	addOutputFlags(crisisSummaryCmd, output.FormatTable)

	crisisCmd.AddCommand(crisisScanCmd, crisisListCmd, crisisSummaryCmd)
	rootCmd.AddCommand(crisisCmd)
}
