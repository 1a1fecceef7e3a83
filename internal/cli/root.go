package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mbswitch/internal/config"
	"mbswitch/internal/events"
	"mbswitch/internal/metabase"
	"mbswitch/internal/render"
	"mbswitch/internal/switcher"
)

var rootCmd = &cobra.Command{
	Use:   "mbswitch",
	Short: "Migrate Metabase questions and dashboards between databases",
	Long: `mbswitch duplicates saved questions and dashboards onto another
database connection, remapping every table and column reference by
schema-qualified name so the copies keep working against the new
database's identifiers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var (
	flagHost     string
	flagAPIKey   string
	flagInsecure bool
	flagVerbose  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Metabase host, e.g. https://metabase.example.com (overrides MBSWITCH_HOST)")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Metabase API key (overrides MBSWITCH_API_KEY)")
	rootCmd.PersistentFlags().BoolVar(&flagInsecure, "insecure", false, "Disable TLS verification (accept self-signed certs)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log API requests to stderr")
}

// newSwitcher builds the collaborator client and orchestrator from config
// and flags. Flag values win over environment and file config.
func newSwitcher(cmd *cobra.Command) (*switcher.Switcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagInsecure {
		cfg.Insecure = true
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("no host configured (set MBSWITCH_HOST or use --host)")
	}

	log := zap.NewNop()
	if flagVerbose {
		log, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	}

	opts := []metabase.Option{
		metabase.WithLogger(log),
		metabase.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	}
	if cfg.Insecure {
		opts = append(opts, metabase.WithInsecure())
	}
	client := metabase.New(cfg.Host, cfg.APIKey, opts...)

	var sink events.Sink = render.EventSink(cmd.ErrOrStderr())
	return switcher.New(client, sink), nil
}
