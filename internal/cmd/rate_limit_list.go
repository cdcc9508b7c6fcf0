package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/warroom/warroom/internal/core/store"
	"github.com/warroom/warroom/internal/output"
)

var (
	rateLimitListAll    bool
	rateLimitListPrefix string
)

type rateLimitView struct {
	Identifier    string     `json:"identifier"`
	Count         int        `json:"count"`
	WindowStart   time.Time  `json:"window_start"`
	Blocked       bool       `json:"blocked"`
	BlockExpires  *time.Time `json:"block_expires,omitempty"`
	BlockDuration string     `json:"block_duration,omitempty"`
}

func rateLimitViews(entries []store.RateLimitEntry) []rateLimitView {
	views := make([]rateLimitView, 0, len(entries))
	for _, entry := range entries {
		view := rateLimitView{
			Identifier:   entry.Identifier,
			Count:        entry.Record.Count,
			WindowStart:  entry.Record.WindowStart.UTC(),
			Blocked:      entry.Record.Blocked,
			BlockExpires: entry.Record.BlockExpires,
		}
		if entry.Record.BlockDuration > 0 {
			view.BlockDuration = entry.Record.BlockDuration.String()
		}
		views = append(views, view)
	}
	return views
}

func rateLimitTable(views []rateLimitView) *output.Table {
	tbl := output.NewTable("Rate Limits", "Identifier", "Count", "Window Start", "Blocked", "Block Expires")
	tbl.Empty = "(no stored rate limit state)"
	for _, v := range views {
		expires := "-"
		if v.BlockExpires != nil {
			expires = v.BlockExpires.UTC().Format(time.RFC3339)
		}
		tbl.Append(v.Identifier, v.Count, v.WindowStart.Format(time.RFC3339), v.Blocked, expires)
	}
	if len(views) > 0 {
		tbl.Footer = []any{output.Count(len(views), "entry", "entries"), "", "", "", ""}
	}
	return tbl
}

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rate limit state",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resolveOutputFormat(cmd); err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		query := store.RateLimitQuery{All: rateLimitListAll, Prefix: rateLimitListPrefix}
		if !query.All && query.Prefix == "" {
			query.All = true
		}

		entries, err := db.ListRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}
		views := rateLimitViews(entries)
		return emit(cmd, "rate-limit.list", views, rateLimitTable(views))
	},
}

func init() {
	addOutputFlags(rateLimitListCmd, output.FormatTable)
	rateLimitListCmd.Flags().BoolVar(&rateLimitListAll, "all", false, "List all identifiers")
	rateLimitListCmd.Flags().StringVar(&rateLimitListPrefix, "prefix", "", "List identifiers with matching prefix (e.g. http: or client:)")
}
