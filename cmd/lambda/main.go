package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sovagpt/nhl/internal/api"
	"github.com/sovagpt/nhl/internal/app"
	"github.com/sovagpt/nhl/internal/config"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	app.ConfigureMetrics(cfg)

	// cache windows live as long as the warm container
	a, err := app.New(cfg, logger)
	if err != nil {
		slog.Error("app init failed", "error", err)
		os.Exit(1)
	}
	lambda.Start(api.NewLambda(a.Server().Handler()).Handle)
}
