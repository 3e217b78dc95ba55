// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, blob storage) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Storage Backends

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// # Configuration Schema

// Config holds all runtime configuration for the vaultlink API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// PublicBaseURL prefixes every share and delete link handed back to clients.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"vaultlink.app"`
	ExtraOrigins        string `env:"EXTRA_ORIGINS"`

	// Blob storage. "local" writes under UploadDir, "s3" targets any S3-compatible endpoint.
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadDir      string `env:"UPLOAD_DIR"      envDefault:"./uploads"`

	// Object Storage (Cloudflare R2 / S3-compatible)
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"     envDefault:"auto"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	// Vault limits
	MaxUploadBytes       int64 `env:"MAX_UPLOAD_BYTES"       envDefault:"52428800"`
	DefaultExpiryMinutes int   `env:"DEFAULT_EXPIRY_MINUTES" envDefault:"10"`
	MaxExpiryMinutes     int   `env:"MAX_EXPIRY_MINUTES"     envDefault:"43200"`

	// Background reclamation of expired vaults
	ReclaimInterval time.Duration `env:"RECLAIM_INTERVAL" envDefault:"60s"`
	ReclaimOrphans  bool          `env:"RECLAIM_ORPHANS"  envDefault:"true"`
	OrphanGrace     time.Duration `env:"ORPHAN_GRACE"     envDefault:"1h"`

	// HashConcurrency bounds parallel password KDF work. 0 means GOMAXPROCS.
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"0"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects combinations that env tags alone cannot express.
func (c *Config) validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")

	switch c.StorageBackend {
	case StorageLocal:
		if c.UploadDir == "" {
			return fmt.Errorf("config: UPLOAD_DIR must be set for the local storage backend")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("config: S3_BUCKET must be set for the s3 storage backend")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}
	if c.DefaultExpiryMinutes <= 0 || c.MaxExpiryMinutes < c.DefaultExpiryMinutes {
		return fmt.Errorf("config: expiry bounds are inconsistent (default=%d, max=%d)", c.DefaultExpiryMinutes, c.MaxExpiryMinutes)
	}
	if c.ReclaimInterval <= 0 {
		return fmt.Errorf("config: RECLAIM_INTERVAL must be positive")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// OriginAllowed reports whether a browser origin may call the API.
// The origin must end with AllowedOriginSuffix or appear in EXTRA_ORIGINS.
func (c *Config) OriginAllowed(origin string) bool {
	if c.AllowedOriginSuffix != "" && strings.HasSuffix(origin, c.AllowedOriginSuffix) {
		return true
	}
	for _, extra := range strings.Split(c.ExtraOrigins, ",") {
		if extra = strings.TrimSpace(extra); extra != "" && extra == origin {
			return true
		}
	}
	return false
}

// DefaultExpiry returns the default vault lifetime as a duration.
func (c *Config) DefaultExpiry() time.Duration {
	return time.Duration(c.DefaultExpiryMinutes) * time.Minute
}

// MaxExpiry returns the longest lifetime a vault may request.
func (c *Config) MaxExpiry() time.Duration {
	return time.Duration(c.MaxExpiryMinutes) * time.Minute
}
