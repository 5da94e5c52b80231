package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bayou-board/internal/auth"
	"bayou-board/internal/config"
	"bayou-board/internal/database"
	"bayou-board/internal/handlers"
	"bayou-board/internal/metrics"
	"bayou-board/internal/middleware"
	"bayou-board/internal/worker"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(context.Background())

	if err := db.InitializeTables(ctx); err != nil {
		return fmt.Errorf("failed to initialize tables: %w", err)
	}
	logger.Info("database ready", "sslmode", cfg.Database.SSLMode)

	sessions := auth.NewManager(db, cfg.Session.Lifetime)
	gate := auth.NewGate(sessions, cfg.IsProduction())

	server := handlers.NewServer(db, sessions, gate, logger, cfg)

	mux := server.Routes()
	if cfg.Server.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.WithIdentity(gate, logger)(handler)
	if cfg.Server.MetricsEnabled {
		handler = metrics.HTTPMetricsMiddleware(handler)
	}
	handler = middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))(handler)

	sweeper := worker.NewSessionSweeper(db, logger, cfg.Session.SweepInterval)
	go sweeper.Start(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "environment", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
