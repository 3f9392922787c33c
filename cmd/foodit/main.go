package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/foodit-dev/foodit/internal/config"
	"github.com/foodit-dev/foodit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "foodit",
		Short: "Restaurant reviews, served as live view-models",
		Long: `FoodIt serves the restaurant review screens to thin clients.

Each screen is a view-model: clients send intents over a websocket and
receive the screen state back whenever it changes. The reference REST
API the screens talk to is included.

  foodit api     run the REST API backed by sqlite
  foodit serve   run the live view-model server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory holding foodit.json or foodit.yaml")

	rootCmd.AddCommand(
		serveCmd(&configDir),
		apiCmd(&configDir),
		initCmd(&configDir),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration in dir.
func loadConfig(dir string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from log.level and log.format and
// installs it as the default.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(h).With("app", cfg.Name)
	slog.SetDefault(logger)
	return logger
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
