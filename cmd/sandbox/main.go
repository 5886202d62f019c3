package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"chargehub/internal/sandbox"
	"chargehub/libs/logging"
)

func main() {
	logger, err := logging.NewLogger()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := sandbox.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	app, err := sandbox.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
