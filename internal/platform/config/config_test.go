// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vaultlink")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PUBLIC_BASE_URL", "https://share.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, "https://share.example.com", cfg.PublicBaseURL)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 10*time.Minute, cfg.DefaultExpiry())
	assert.Equal(t, 30*24*time.Hour, cfg.MaxExpiry())
	assert.Equal(t, time.Minute, cfg.ReclaimInterval)
	assert.True(t, cfg.ReclaimOrphans)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vaultlink")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vaultlink")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STORAGE_BACKEND", "floppy")

	_, err := Load()
	assert.Error(t, err)
}

func TestOriginAllowed(t *testing.T) {
	cfg := &Config{AllowedOriginSuffix: "vaultlink.app", ExtraOrigins: "http://localhost:5173, https://partner.example.com"}

	assert.True(t, cfg.OriginAllowed("https://www.vaultlink.app"))
	assert.True(t, cfg.OriginAllowed("http://localhost:5173"))
	assert.True(t, cfg.OriginAllowed("https://partner.example.com"))
	assert.False(t, cfg.OriginAllowed("https://evil.example.com"))
}
