package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/agora-ai/agora/internal/api"
	"github.com/agora-ai/agora/internal/config"
	"github.com/agora-ai/agora/internal/engine"
	"github.com/agora-ai/agora/internal/provider"
	"github.com/agora-ai/agora/internal/realtime"
)

func main() {
	root := &cobra.Command{
		Use:          "agora",
		Short:        "Debate runtime server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	providers := provider.NewRegistry(logger)
	providers.Initialize(cfg.ProviderConfigs())
	defer providers.Close()

	registry := realtime.NewRegistry(logger)
	defer registry.CloseAll()

	heartbeats := realtime.NewMonitor(cfg.WSHeartbeatInterval, cfg.WSConnectionTimeout, logger)
	heartbeats.Start()
	defer heartbeats.Stop()

	debates := engine.NewManager(engine.Config{Announcer: registry, Logger: logger})
	defer debates.CleanupAll()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	api.NewHandler(debates, registry, heartbeats, providers, logger).Mount(r)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func logLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
