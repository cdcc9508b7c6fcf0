package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/warroom/warroom/internal/observability"
	"github.com/warroom/warroom/internal/output"
	"github.com/warroom/warroom/internal/providers/ads"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
)

var (
	syncRequest        ads.SyncRequest
	mentionSyncRequest mentionlytics.SyncRequest
)

var syncPerformanceCmd = &cobra.Command{
	Use:   "sync-performance",
	Short: "Import ad platform metrics for a campaign",
	Long: `Pull daily performance metrics from the configured ad platforms and
store them against a campaign. Platforms without credentials are skipped.`,
	Example: `  warroom sync-performance --campaign-id 7 --start 2026-10-01 --end 2026-10-07
  warroom sync-performance --campaign-id 7 --platform meta --external-id 238490 --start 2026-10-01 --end 2026-10-07`,
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

		report, err := a.syncer.Sync(cmd.Context(), syncRequest)
		if err != nil {
			return err
		}

		tbl := output.NewTable("Performance Sync", "Platform", "Status", "Metrics", "Error")
		for _, p := range report.Platforms {
			tbl.Append(p.Platform, p.Status, p.MetricsImported, p.Error)
		}
		tbl.Footer = []any{"total", report.Message, report.MetricsImported, ""}
		return emit(cmd, "sync-performance", report, tbl)
	},
}

var syncMentionsCmd = &cobra.Command{
	Use:   "sync-mentions",
	Short: "Store recent social listening mentions against a campaign",
	Long: `Fetch the most recent mentions from Mentionlytics and store the new ones.
Placeholder mentions served while the API is unconfigured or unavailable are
counted but never stored.`,
	Example: `  warroom sync-mentions --campaign-id 7
  warroom sync-mentions --campaign-id 7 --limit 50 --force-refresh`,
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

		report, err := a.importer.SyncMentions(cmd.Context(), mentionSyncRequest)
		if err != nil {
			return err
		}

		tbl := output.NewTable("Mention Sync", "Processed", "New", "Skipped Mock", "Errors")
		tbl.Append(report.MentionsProcessed, report.NewMentions, report.SkippedMock, strings.Join(report.Errors, "; "))
		return emit(cmd, "sync-mentions", report, tbl)
	},
}

func init() {
	today := time.Now().UTC().Format(time.DateOnly)
	weekAgo := time.Now().UTC().AddDate(0, 0, -7).Format(time.DateOnly)

	addOutputFlags(syncPerformanceCmd, output.FormatTable)
	flags := syncPerformanceCmd.Flags()
	flags.Int64Var(&syncRequest.CampaignID, "campaign-id", 0, "Campaign to attach metrics to")
	flags.StringSliceVar(&syncRequest.Platforms, "platform", nil, "Platforms to sync: meta, google_ads (default all)")
	flags.StringVar(&syncRequest.StartDate, "start", weekAgo, "First day (YYYY-MM-DD)")
	flags.StringVar(&syncRequest.EndDate, "end", today, "Last day (YYYY-MM-DD)")
	flags.StringVar(&syncRequest.ExternalCampaignID, "external-id", "", "Platform-side campaign ID (default campaign-id)")
	_ = syncPerformanceCmd.MarkFlagRequired("campaign-id")

	rootCmd.AddCommand(syncPerformanceCmd)

	addOutputFlags(syncMentionsCmd, output.FormatTable)
	mentionFlags := syncMentionsCmd.Flags()
	mentionFlags.Int64Var(&mentionSyncRequest.CampaignID, "campaign-id", 0, "Campaign to attach mentions to")
	mentionFlags.IntVar(&mentionSyncRequest.Limit, "limit", 100, "Mentions to fetch (1-100)")
	mentionFlags.BoolVar(&mentionSyncRequest.ForceRefresh, "force-refresh", false, "Bypass cached mentions")
	_ = syncMentionsCmd.MarkFlagRequired("campaign-id")

	rootCmd.AddCommand(syncMentionsCmd)
}
