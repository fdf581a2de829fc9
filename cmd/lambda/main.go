package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"talksense/handler"
	"talksense/internal/app"
	"talksense/internal/config"
	"talksense/internal/logging"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// ---- Use case ----
	svc, err := app.NewAnalyzeService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create analyze service", zap.Error(err))
	}

	// ---- Handler ----
	h, err := handler.NewHandler(svc,
		handler.WithMaxBodyBytes(cfg.MaxBodyBytes),
		handler.WithExposeRawOutput(cfg.ExposeRawOutput),
		handler.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("failed to create handler", zap.Error(err))
	}

	lambda.Start(h.Handle)
}
