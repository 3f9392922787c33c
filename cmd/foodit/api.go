package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/foodit-dev/foodit/internal/backend"
	"github.com/foodit-dev/foodit/internal/backend/storage/sqlite"
	"github.com/foodit-dev/foodit/internal/config"
	"github.com/foodit-dev/foodit/internal/metrics"
	"github.com/foodit-dev/foodit/internal/telemetry"
)

func apiCmd(configDir *string) *cobra.Command {
	var (
		port     int
		host     string
		database string
		noSeed   bool
	)

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Start the REST API",
		Long: `Start the reference REST API backed by sqlite.

The database is created and migrated on start. An empty database is
filled with sample restaurants unless seeding is disabled.

Examples:
  foodit api
  foodit api --db=/var/lib/foodit/foodit.db --no-seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Backend.Port = port
			}
			if host != "" {
				cfg.Backend.Host = host
			}
			if database != "" {
				cfg.Backend.Database = database
			}
			if noSeed {
				off := false
				cfg.Backend.Seed = &off
			}
			return runAPI(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&database, "db", "", "sqlite database path (default from config)")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "Do not load sample restaurants")

	return cmd
}

func runAPI(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg).With("component", "api")

	ctx, stop := signal.NotifyContext(ctxOrBackground(ctx), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	store, err := sqlite.Open(ctx, cfg.Backend.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.SeedEnabled() {
		if err := backend.Seed(ctx, store, logger); err != nil {
			return err
		}
	}

	secret := []byte(cfg.Backend.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		rand.Read(secret)
		logger.Warn("no backend.jwtSecret set; using a random one, sessions end on restart")
	}

	m := metrics.New()
	srv := backend.New(store, backend.NewTokens(secret, cfg.TokenTTL()),
		backend.WithLogger(logger),
		backend.WithMetrics(m),
	)

	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())
	r.Mount("/", srv.Handler())

	httpServer := &http.Server{
		Addr:              cfg.BackendAddress(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	success("REST API on http://%s", cfg.BackendAddress())
	info("Database: %s", cfg.Backend.Database)

	return listenAndServe(ctx, httpServer, logger, nil)
}
