package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foodit-dev/foodit/internal/api"
	"github.com/foodit-dev/foodit/internal/config"
	"github.com/foodit-dev/foodit/internal/images"
	"github.com/foodit-dev/foodit/internal/live"
	"github.com/foodit-dev/foodit/internal/metrics"
	"github.com/foodit-dev/foodit/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(configDir *string) *cobra.Command {
	var (
		port   int
		host   string
		apiURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the live view-model server",
		Long: `Start the live server.

Clients connect to /live over a websocket, open screens and send
intents. Screen state is streamed back as it changes. The screens call
the REST API at api.baseUrl.

Examples:
  foodit serve
  foodit serve --port=9000 --api=http://localhost:8081`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Live.Port = port
			}
			if host != "" {
				cfg.Live.Host = host
			}
			if apiURL != "" {
				cfg.API.BaseURL = apiURL
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&apiURL, "api", "", "REST API base URL (default from config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg).With("component", "live")

	ctx, stop := signal.NotifyContext(ctxOrBackground(ctx), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	m := metrics.New()
	client := api.NewFromConfig(cfg, api.WithMetrics(m), api.WithLogger(logger))

	imageStore, err := openImages(cfg)
	if err != nil {
		return err
	}

	srv := live.New(live.Config{
		ResumeWindow:   cfg.ResumeWindow(),
		QueueSize:      cfg.Live.QueueSize,
		AllowedOrigins: cfg.Live.AllowedOrigins,
	}, live.Deps{
		Repositories: live.APIRepositories(client),
		Images:       imageStore,
		Metrics:      m,
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.LiveAddress(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	success("Live server on ws://%s/live", cfg.LiveAddress())
	info("API: %s", cfg.API.BaseURL)
	info("Screens: %v", live.ScreenNames())

	return listenAndServe(ctx, httpServer, logger, srv.Shutdown)
}

// listenAndServe runs s until ctx ends, then shuts it down and calls
// cleanup.
func listenAndServe(ctx context.Context, s *http.Server, logger *slog.Logger, cleanup func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", s.Addr)
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.Shutdown(shutdownCtx)
	if cleanup != nil {
		err = stderrors.Join(err, cleanup(shutdownCtx))
	}
	return err
}

// openImages builds the picture store named by images.driver.
func openImages(cfg *config.Config) (images.Store, error) {
	switch cfg.Images.Driver {
	case "disk":
		return images.NewDiskStore(cfg.Images.Dir, cfg.ImagesPublicURL())
	case "s3":
		client := images.NewS3Client(cfg.Images.Region, cfg.Images.Endpoint, cfg.Images.AccessKey, cfg.Images.SecretKey)
		return images.NewS3Store(client, cfg.Images.Bucket, cfg.Images.Prefix).WithURLExpiry(cfg.URLExpiry()), nil
	default:
		return images.NewMemoryStore(cfg.ImagesPublicURL()), nil
	}
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
