package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sovagpt/nhl/internal/app"
	"github.com/sovagpt/nhl/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	app.ConfigureMetrics(cfg)

	a, err := app.New(cfg, logger)
	if err != nil {
		slog.Error("app init failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Ping(ctx); err != nil {
		slog.Error("redis ping failed", "error", err)
		os.Exit(1)
	}

	sched, err := a.Scheduler(ctx)
	if err != nil {
		slog.Error("snapshot scheduler failed", "error", err)
		os.Exit(1)
	}
	if sched != nil {
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.Server().Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("server started", "addr", cfg.Addr, "snapshots", sched != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server", "reason", ctx.Err())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown", "error", err)
	}
}
