// Package config provides unified configuration for the pipeline binaries.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/planequery/adsbcompact/pkg/types"
)

// Mode represents the pipeline role to run.
type Mode string

const (
	ModeWorker Mode = "worker"
	ModeReduce Mode = "reduce"
	ModeChunks Mode = "chunks"
)

// Config holds the unified configuration for the pipeline.
type Config struct {
	// Mode specifies which role to run: worker, reduce, chunks
	Mode Mode `json:"mode" yaml:"mode"`

	// RunID namespaces intermediate artifacts in shared storage
	RunID string `json:"run_id" yaml:"run_id"`

	// DataDir is the base directory for all local data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// GlobalStart/GlobalEnd bound the whole run, YYYY-MM-DD,
	// start inclusive and end exclusive
	GlobalStart string `json:"global_start" yaml:"global_start"`
	GlobalEnd   string `json:"global_end" yaml:"global_end"`

	// ChunkStart/ChunkEnd bound this worker's sub-range, same semantics
	ChunkStart string `json:"chunk_start" yaml:"chunk_start"`
	ChunkEnd   string `json:"chunk_end" yaml:"chunk_end"`

	// ChunkDays is the fixed chunk length used by the chunks planner
	ChunkDays int `json:"chunk_days" yaml:"chunk_days"`

	// Extract configuration
	Extract ExtractConfig `json:"extract" yaml:"extract"`

	// Reduce configuration
	Reduce ReduceConfig `json:"reduce" yaml:"reduce"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// ExtractConfig holds observation extraction configuration.
type ExtractConfig struct {
	// Workers is the number of parallel trace-file parsers
	Workers int `json:"workers" yaml:"workers"`

	// BatchRows is the row-count threshold that triggers a sink flush
	BatchRows int `json:"batch_rows" yaml:"batch_rows"`

	// DayDir is the directory for per-day observation files
	DayDir string `json:"day_dir" yaml:"day_dir"`
}

// ReduceConfig holds reducer configuration.
type ReduceConfig struct {
	// Concurrency is the number of parallel artifact downloads
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// WorkDir is the scratch directory for downloaded artifacts
	WorkDir string `json:"work_dir" yaml:"work_dir"`
}

// StorageConfig holds shared object-storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// OpTimeout bounds a single upload or download
	OpTimeout time.Duration `json:"op_timeout" yaml:"op_timeout"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (required for MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Mode:      ModeWorker,
		DataDir:   "./data/adsbcompact",
		ChunkDays: 15,
		Extract: ExtractConfig{
			Workers:   runtime.NumCPU(),
			BatchRows: 100_000,
		},
		Reduce: ReduceConfig{
			Concurrency: 4,
		},
		Storage: StorageConfig{
			Type:      "local",
			OpTimeout: 15 * time.Minute,
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/adsbcompact"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
	if c.Extract.DayDir == "" {
		c.Extract.DayDir = filepath.Join(c.DataDir, "days")
	}
	if c.Reduce.WorkDir == "" {
		c.Reduce.WorkDir = filepath.Join(c.DataDir, "reduce")
	}
	if c.Extract.Workers <= 0 {
		c.Extract.Workers = runtime.NumCPU()
	}
	if c.Extract.BatchRows <= 0 {
		c.Extract.BatchRows = 100_000
	}
	if c.Reduce.Concurrency <= 0 {
		c.Reduce.Concurrency = 4
	}
	if c.Storage.OpTimeout <= 0 {
		c.Storage.OpTimeout = 15 * time.Minute
	}
}

// GlobalRange parses the global date range.
func (c *Config) GlobalRange() (types.DateRange, error) {
	return types.ParseDateRange(c.GlobalStart, c.GlobalEnd)
}

// ChunkRange parses this worker's chunk date range.
func (c *Config) ChunkRange() (types.DateRange, error) {
	return types.ParseDateRange(c.ChunkStart, c.ChunkEnd)
}

// Validate validates the configuration. Missing required inputs fail fast
// here, before any work begins.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeWorker, ModeReduce, ModeChunks:
		// Valid modes
	default:
		return fmt.Errorf("invalid mode: %s (must be worker, reduce, or chunks)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	switch c.Mode {
	case ModeWorker:
		if c.RunID == "" {
			return fmt.Errorf("run_id is required in worker mode")
		}
		if _, err := c.ChunkRange(); err != nil {
			return fmt.Errorf("chunk range: %w", err)
		}
	case ModeReduce:
		if c.RunID == "" {
			return fmt.Errorf("run_id is required in reduce mode")
		}
		if _, err := c.GlobalRange(); err != nil {
			return fmt.Errorf("global range: %w", err)
		}
	case ModeChunks:
		if _, err := c.GlobalRange(); err != nil {
			return fmt.Errorf("global range: %w", err)
		}
		if c.ChunkDays <= 0 {
			return fmt.Errorf("chunk_days must be positive, got %d", c.ChunkDays)
		}
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the ADSB_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("ADSB_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("ADSB_RUN_ID"); v != "" {
		cfg.RunID = v
	}
	if v := os.Getenv("ADSB_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Date ranges
	if v := os.Getenv("ADSB_GLOBAL_START_DATE"); v != "" {
		cfg.GlobalStart = v
	}
	if v := os.Getenv("ADSB_GLOBAL_END_DATE"); v != "" {
		cfg.GlobalEnd = v
	}
	if v := os.Getenv("ADSB_CHUNK_START_DATE"); v != "" {
		cfg.ChunkStart = v
	}
	if v := os.Getenv("ADSB_CHUNK_END_DATE"); v != "" {
		cfg.ChunkEnd = v
	}
	if v := os.Getenv("ADSB_CHUNK_DAYS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.ChunkDays)
	}

	// Extract configuration
	if v := os.Getenv("ADSB_EXTRACT_WORKERS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Extract.Workers)
	}
	if v := os.Getenv("ADSB_EXTRACT_BATCH_ROWS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Extract.BatchRows)
	}

	// Reduce configuration
	if v := os.Getenv("ADSB_REDUCE_CONCURRENCY"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Reduce.Concurrency)
	}

	// Storage configuration
	if v := os.Getenv("ADSB_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("ADSB_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("ADSB_STORAGE_OP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.OpTimeout = d
		}
	}
	if v := os.Getenv("ADSB_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("ADSB_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("ADSB_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("ADSB_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}
}

// EnsureDirectories creates all required local directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Extract.DayDir,
		c.Reduce.WorkDir,
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
