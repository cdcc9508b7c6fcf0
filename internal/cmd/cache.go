package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/warroom/warroom/internal/core/cache"
	"github.com/warroom/warroom/internal/observability"
	"github.com/warroom/warroom/internal/output"
)

var cacheClearYes bool

type cacheResult struct {
	Action  string `json:"action"`
	Removed int    `json:"removed"`
}

func (r cacheResult) table() *output.Table {
	return output.NewTable("Response Cache", "Action", "Removed").Append(r.Action, r.Removed)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persisted response cache",
	Long: `Manage response cache entries kept in the database (cache.backend=store).
The in-memory backend lives inside the server process and is not reachable
from here.`,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCacheAction(cmd, "prune", (*cache.Cache).Cleanup)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheClearYes {
			return errors.New("clear requires --yes")
		}
		return runCacheAction(cmd, "clear", (*cache.Cache).Clear)
	},
}

func runCacheAction(cmd *cobra.Command, action string, fn func(*cache.Cache, context.Context) (int, error)) error {
	if _, err := resolveOutputFormat(cmd); err != nil {
		return err
	}
	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	responses := cache.New(db.Cache(), observability.CLILogger)
	removed, err := fn(responses, cmd.Context())
	if err != nil {
		return err
	}
	result := cacheResult{Action: action, Removed: removed}
	return emit(cmd, "cache."+action, result, result.table())
}

func init() {
	addOutputFlags(cachePruneCmd, output.FormatTable)
	addOutputFlags(cacheClearCmd, output.FormatTable)
	cacheClearCmd.Flags().BoolVar(&cacheClearYes, "yes", false, "Confirm removal of all entries")

	cacheCmd.AddCommand(cachePruneCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
