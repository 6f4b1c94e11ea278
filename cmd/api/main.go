package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tabprep/internal/api"
	"tabprep/internal/config"
	"tabprep/internal/logging"
	"tabprep/internal/metrics"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting api server", "port", cfg.Server.Port)
	srv := api.NewServer(cfg, logger, metrics.New())
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("api server stopped")
}
