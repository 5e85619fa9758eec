package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"motorvault/internal/config"
	"motorvault/internal/logger"
	"motorvault/internal/repository"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		fmt.Println("Error: migration command is required")
		fmt.Println("Usage: go run cmd/migrate/main.go [-config file] [command] [args]")
		fmt.Println("Commands: up, down, status, redo")
		os.Exit(1)
	}

	cfg, err := config.New(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(logger.Config{Debug: cfg.Debug}); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Flush(time.Second)

	command := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	logger.Info("Starting migration", zap.String("command", command))

	if err := repository.RunMigrations(ctx, cfg.DSN(), command, args[1:]...); err != nil {
		logger.Fatal("Migration error", zap.Error(err))
	}

	logger.Info("Migration finished successfully")
}
