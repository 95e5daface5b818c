// Package main implements the standalone chunk worker binary, configured
// entirely through ADSB_* environment variables for container use.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/planequery/adsbcompact/internal/app"
	"github.com/planequery/adsbcompact/internal/config"
)

func main() {
	cfg := config.DefaultConfig()
	config.LoadFromEnv(cfg)
	cfg.Mode = config.ModeWorker

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := app.RunWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("worker failed: %v", err)
	}
	if !result.Published {
		log.Printf("worker: no data produced")
		os.Exit(0)
	}
}
