// Package main implements the standalone reducer binary, configured
// entirely through ADSB_* environment variables for container use.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/planequery/adsbcompact/internal/app"
	"github.com/planequery/adsbcompact/internal/config"
)

func main() {
	cfg := config.DefaultConfig()
	config.LoadFromEnv(cfg)
	cfg.Mode = config.ModeReduce

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := app.RunReduce(ctx, cfg)
	if err != nil {
		log.Fatalf("reducer failed: %v", err)
	}
	log.Printf("reduce: combined %d chunks into %d records", result.Chunks, result.Records)
}
