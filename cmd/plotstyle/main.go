package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dlblack/sad-sandbox-sub000/internal/config"
	"github.com/dlblack/sad-sandbox-sub000/internal/logging"
	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/store/backend"
)

type globalFlags struct {
	configPath string
	logLevel   string
	storage    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "plotstyle",
		Short: "Manage plot style rules and build plots from series data",
		Long: `plotstyle keeps an ordered list of plot style rules (base defaults followed by
user overrides), resolves the style for a series and builds renderer-ready
plot descriptors from loosely shaped JSON input.

Examples:
  # Show every rule that styles flow time series
  plotstyle rules list --filter 'kind == "time_series" && canonical == "FLOW"'

  # Add a user override
  plotstyle rules add --kind time_series --parameter DISCHARGE --line-color red --line-dash dash

  # See which rule wins for a series
  plotstyle resolve --kind time_series --parameter Q --explain

  # Build a plot descriptor
  plotstyle build series.json`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a YAML or JSON config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().StringVar(&flags.storage, "storage", "", "Override the configured storage backend (memory, file, redis, postgres, mysql, s3)")

	root.AddCommand(newRulesCmd(flags))
	root.AddCommand(newResolveCmd(flags))
	root.AddCommand(newBuildCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is what every command runs against
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	kv     store.KVStore
}

func openApp(ctx context.Context, flags *globalFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.storage != "" {
		cfg.Storage.Type = flags.storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	s, kv, err := backend.NewStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return &app{cfg: cfg, logger: logger, store: s, kv: kv}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("closing storage", slog.Any("error", err))
	}
}

// output writes v as JSON or YAML, or hands off to table for "table"
func output(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case "table":
		if table == nil {
			return fmt.Errorf("table output is not available here")
		}
		return table(w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
