package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warroom/warroom/internal/observability"
	"github.com/warroom/warroom/internal/output"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
)

var fetchParams []string

var fetchCmd = &cobra.Command{
	Use:   "fetch <operation>",
	Short: "Run a social listening query",
	Long: `Run one social listening operation through the cache, rate limiter and
retrying client, exactly as the API would.

Operations: ` + strings.Join(mentionlytics.Operations, ", ") + `

Without a configured token (or when the provider fails) mock data is
returned with success=true and a message saying so.`,
	Example: `  warroom fetch mentions --param limit=20 --param sentiment=negative
  warroom fetch share-of-voice --param brands=ours,rival-a`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: mentionlytics.Operations,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resolveOutputFormat(cmd); err != nil {
			return err
		}
		values, err := parseParams(fetchParams)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, observability.CLILogger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		operation := strings.TrimSpace(args[0])
		result, err := a.social.Run(cmd.Context(), operation, values)
		if errors.Is(err, mentionlytics.ErrUnknownOperation) {
			return fmt.Errorf("unknown operation %q (expected one of %s)", operation, strings.Join(mentionlytics.Operations, ", "))
		}
		if err != nil {
			return err
		}
		return emit(cmd, "fetch."+operation, result, nil)
	},
}

// parseParams turns repeated key=value flags into query values.
func parseParams(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}
		values.Add(key, strings.TrimSpace(value))
	}
	return values, nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addOutputFlags(fetchCmd, output.FormatJSON)
	fetchCmd.Flags().StringArrayVar(&fetchParams, "param", nil, "Query parameter as key=value (repeatable)")
}
