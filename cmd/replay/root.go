// Command replay is a CLI front end over the event-driven replay and
// matching engine: load an event log, run it, inspect snapshots, derive
// bar series, and evaluate Dual Thrust signals.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkhoshkam/powerreplay/event"
	"github.com/mkhoshkam/powerreplay/internal/config"
	"github.com/mkhoshkam/powerreplay/internal/replaylog"
)

var (
	inputPath  string
	configPath string

	logger *zap.Logger
	cfg    *config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "replay",
		Short: "Replay an intraday power-market order-event log",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			cfg = loaded
			logger = replaylog.New(cfg.Logging.Level)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logger != nil {
				return logger.Sync()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&inputPath, "input", "", "path to the event log CSV (required)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")
	_ = root.MarkPersistentFlagRequired("input")

	root.AddCommand(newRunCmd(), newSnapshotCmd(), newBarsCmd(), newSignalsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadStore loads and types the event log at inputPath.
func loadStore() (*event.Store, error) {
	store := event.New()
	if err := store.Load(inputPath); err != nil {
		return nil, err
	}
	return store, nil
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t.UTC(), nil
}
