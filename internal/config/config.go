package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // FP_DATABASE_URL (required)
	GRPCAddr    string // FP_GRPC_ADDR (default ":9090")
	HTTPAddr    string // FP_HTTP_ADDR (default ":8080")
	NATSURL     string // FP_NATS_URL (optional, empty = no events)
	AuthToken   string // FP_AUTH_TOKEN (optional, empty = auth disabled)
	JWTSecret   string // FP_JWT_SECRET (optional, takes precedence over FP_AUTH_TOKEN)

	// Planning settings
	MaxNodes     int           // FP_MAX_NODES (default 300)
	SynthSeed    int64         // FP_SYNTH_SEED (default 0 = seeded from the clock)
	SynthRetries int           // FP_SYNTH_RETRIES (default 3)
	RedisURL     string        // FP_REDIS_URL (optional, enables the shared synthesis lock)
	RedisLockTTL time.Duration // FP_REDIS_LOCK_TTL (default 30s)

	// Export settings
	ExportInterval   time.Duration // FP_EXPORT_INTERVAL (default 0 = disabled)
	ExportFile       string        // FP_EXPORT_FILE (writes snapshots to a local file when set)
	ExportS3Bucket   string        // FP_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // FP_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // FP_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // FP_EXPORT_S3_KEY (default "flightpath/export.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("FP_DATABASE_URL"),
		GRPCAddr:         envOrDefault("FP_GRPC_ADDR", ":9090"),
		HTTPAddr:         envOrDefault("FP_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("FP_NATS_URL"),
		AuthToken:        os.Getenv("FP_AUTH_TOKEN"),
		JWTSecret:        os.Getenv("FP_JWT_SECRET"),
		RedisURL:         os.Getenv("FP_REDIS_URL"),
		ExportFile:       os.Getenv("FP_EXPORT_FILE"),
		ExportS3Bucket:   os.Getenv("FP_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("FP_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("FP_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("FP_EXPORT_S3_KEY", "flightpath/export.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("FP_DATABASE_URL is required")
	}

	var err error
	if c.MaxNodes, err = envInt("FP_MAX_NODES", 300); err != nil {
		return nil, err
	}
	if c.MaxNodes < 0 {
		return nil, fmt.Errorf("FP_MAX_NODES: must not be negative, got %d", c.MaxNodes)
	}
	if c.SynthRetries, err = envInt("FP_SYNTH_RETRIES", 3); err != nil {
		return nil, err
	}
	if c.SynthRetries < 1 {
		return nil, fmt.Errorf("FP_SYNTH_RETRIES: must be at least 1, got %d", c.SynthRetries)
	}
	if v := os.Getenv("FP_SYNTH_SEED"); v != "" {
		if c.SynthSeed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("FP_SYNTH_SEED: %w", err)
		}
	}
	if c.RedisLockTTL, err = envDuration("FP_REDIS_LOCK_TTL", "30s"); err != nil {
		return nil, err
	}
	if c.ExportInterval, err = envDuration("FP_EXPORT_INTERVAL", "0"); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
