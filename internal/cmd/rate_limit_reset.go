package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warroom/warroom/internal/core/store"
	"github.com/warroom/warroom/internal/output"
)

var (
	rateLimitResetAll        bool
	rateLimitResetIdentifier string
	rateLimitResetPrefix     string
	rateLimitResetYes        bool
	rateLimitResetDryRun     bool
)

type rateLimitResetResult struct {
	Matched int   `json:"matched"`
	Deleted int64 `json:"deleted"`
	DryRun  bool  `json:"dry_run"`
}

func (r rateLimitResetResult) table() *output.Table {
	tbl := output.NewTable("Rate Limit Reset", "Matched", "Deleted", "Dry Run")
	return tbl.Append(r.Matched, r.Deleted, r.DryRun)
}

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset stored rate limit state",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resolveOutputFormat(cmd); err != nil {
			return err
		}

		query := store.RateLimitQuery{
			All:        rateLimitResetAll,
			Identifier: strings.TrimSpace(rateLimitResetIdentifier),
			Prefix:     strings.TrimSpace(rateLimitResetPrefix),
		}
		if err := query.Validate(); err != nil {
			return err
		}
		if query.All && !rateLimitResetYes && !rateLimitResetDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.CountRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		result := rateLimitResetResult{Matched: matched, DryRun: rateLimitResetDryRun}
		if !rateLimitResetDryRun {
			result.Deleted, err = db.ResetRateLimits(cmd.Context(), query)
			if err != nil {
				return err
			}
		}
		return emit(cmd, "rate-limit.reset", result, result.table())
	},
}

func init() {
	addOutputFlags(rateLimitResetCmd, output.FormatTable)
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetAll, "all", false, "Reset all identifiers")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetIdentifier, "identifier", "", "Reset a single identifier (exact match)")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetPrefix, "prefix", "", "Reset identifiers with matching prefix")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetYes, "yes", false, "Confirm destructive reset")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetDryRun, "dry-run", false, "Show what would be deleted")
}
