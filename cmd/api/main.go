package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"motorvault/internal/config"
	"motorvault/internal/infrastructure"
	"motorvault/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.New(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "motorvault-api"},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := infrastructure.Bootstrap(ctx, cfg)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
	defer cleanup()

	logger.Info("motorvault is starting")
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err)
		return
	}
	logger.Info("motorvault stopped")
}
