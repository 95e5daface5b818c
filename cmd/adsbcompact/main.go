// Package main implements the unified adsbcompact binary. It can run a
// chunk worker, the reducer, or print the chunk plan for a global range.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/planequery/adsbcompact/internal/app"
	"github.com/planequery/adsbcompact/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		mode        string
		runID       string
		chunkStart  string
		chunkEnd    string
		globalStart string
		globalEnd   string
		chunkDays   int
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for local data files")
	flag.StringVar(&mode, "mode", "", "Role to run: worker, reduce, chunks")
	flag.StringVar(&runID, "run-id", "", "Run identifier namespacing artifacts")
	flag.StringVar(&chunkStart, "chunk-start", "", "Chunk start date (YYYY-MM-DD, inclusive)")
	flag.StringVar(&chunkEnd, "chunk-end", "", "Chunk end date (YYYY-MM-DD, exclusive)")
	flag.StringVar(&globalStart, "global-start", "", "Global start date (YYYY-MM-DD, inclusive)")
	flag.StringVar(&globalEnd, "global-end", "", "Global end date (YYYY-MM-DD, exclusive)")
	flag.IntVar(&chunkDays, "chunk-days", 0, "Chunk length in days for the chunks planner")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "adsbcompact - ADS-B aircraft-data compression pipeline\n\n")
		fmt.Fprintf(os.Stderr, "Usage: adsbcompact [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  adsbcompact --mode worker --run-id r1 --chunk-start 2024-06-01 --chunk-end 2024-06-16\n")
		fmt.Fprintf(os.Stderr, "  adsbcompact --mode reduce --run-id r1 --global-start 2024-06-01 --global-end 2024-09-01\n")
		fmt.Fprintf(os.Stderr, "  adsbcompact --mode chunks --global-start 2024-06-01 --global-end 2024-09-01 --chunk-days 15\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ADSB_MODE               Role to run (worker, reduce, chunks)\n")
		fmt.Fprintf(os.Stderr, "  ADSB_RUN_ID             Run identifier\n")
		fmt.Fprintf(os.Stderr, "  ADSB_CHUNK_START_DATE   Chunk start date\n")
		fmt.Fprintf(os.Stderr, "  ADSB_CHUNK_END_DATE     Chunk end date\n")
		fmt.Fprintf(os.Stderr, "  ADSB_GLOBAL_START_DATE  Global start date\n")
		fmt.Fprintf(os.Stderr, "  ADSB_GLOBAL_END_DATE    Global end date\n")
		fmt.Fprintf(os.Stderr, "  ADSB_STORAGE_TYPE       Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  ADSB_S3_BUCKET          S3 bucket for artifacts\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("adsbcompact version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override file and environment
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if runID != "" {
		cfg.RunID = runID
	}
	if chunkStart != "" {
		cfg.ChunkStart = chunkStart
	}
	if chunkEnd != "" {
		cfg.ChunkEnd = chunkEnd
	}
	if globalStart != "" {
		cfg.GlobalStart = globalStart
	}
	if globalEnd != "" {
		cfg.GlobalEnd = globalEnd
	}
	if chunkDays > 0 {
		cfg.ChunkDays = chunkDays
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%s failed: %v", cfg.Mode, err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	switch cfg.Mode {
	case config.ModeWorker:
		_, err := app.RunWorker(ctx, cfg)
		return err
	case config.ModeReduce:
		_, err := app.RunReduce(ctx, cfg)
		return err
	case config.ModeChunks:
		chunks, err := app.PlanChunks(cfg)
		if err != nil {
			return err
		}
		for _, c := range chunks {
			fmt.Printf("%s %s\n", c.Start.Format("2006-01-02"), c.End.Format("2006-01-02"))
		}
		return nil
	default:
		return fmt.Errorf("unsupported mode: %s", cfg.Mode)
	}
}

func loadConfig(configFile string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)
	return cfg, nil
}
