// Command shazoom is a CLI front-end over the audio fingerprinting
// engine: ingest reference tracks, recognize clips or live microphone
// input, and inspect the index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shazoom/internal/config"
	"shazoom/internal/engine"
	"shazoom/internal/store"
	"shazoom/internal/store/memory"
	"shazoom/internal/store/postgres"
	"shazoom/internal/store/sqlite"
)

var (
	cfgPath string
	envPath string
)

var rootCmd = &cobra.Command{
	Use:   "shazoom",
	Short: "Audio fingerprinting and recognition",
	Long:  "shazoom fingerprints audio and recognizes clips against a stored index, Shazam-style.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "shazoom.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "path to .env file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

// buildEngine loads config and constructs an Engine over the configured
// backend. Callers must Close the returned engine.
func buildEngine(ctx context.Context) (*engine.Engine, error) {
	cfg, err := config.Load(cfgPath, envPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var s store.Store
	switch cfg.Backend {
	case config.BackendMemory:
		s = memory.New()
	case config.BackendSQLite:
		s, err = sqlite.Open(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		s, err = postgres.Open(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return engine.New(s, cfg.Engine, logger), nil
}
