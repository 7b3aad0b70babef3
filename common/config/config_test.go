package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("compressor")
	require.NoError(t, err)

	assert.Equal(t, "compressor", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, 5*time.Minute, cfg.Compression.JobTimeout)
	assert.Equal(t, 10, cfg.Compression.ImageMinQuality)
	assert.Equal(t, 95, cfg.Compression.ImageMaxQuality)
	assert.Equal(t, 8, cfg.Compression.SearchMaxIterations)
	assert.Equal(t, 3, cfg.Compression.MaxDownscales)
	assert.InDelta(t, 0.75, cfg.Compression.DownscaleFactor, 1e-9)
	assert.Equal(t, 128, cfg.Compression.VideoAudioKbps)
	assert.Equal(t, 100, cfg.Compression.VideoMinKbps)
	assert.Equal(t, "memory", cfg.Artifacts.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Artifacts.Retention)
	assert.False(t, cfg.Artifacts.EvictOnRedeem)
}

func TestLoad_MatchesDefault(t *testing.T) {
	cfg, err := Load("compressor")
	require.NoError(t, err)
	assert.Equal(t, Default("compressor"), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JOB_TIMEOUT", "90s")
	t.Setenv("ARTIFACT_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("DOWNSCALE_FACTOR", "0.5")
	t.Setenv("ARTIFACT_EVICT_ON_REDEEM", "true")

	cfg, err := Load("compressor")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Service.Port)
	assert.Equal(t, 90*time.Second, cfg.Compression.JobTimeout)
	assert.Equal(t, "redis", cfg.Artifacts.Backend)
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
	assert.InDelta(t, 0.5, cfg.Compression.DownscaleFactor, 1e-9)
	assert.True(t, cfg.Artifacts.EvictOnRedeem)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Service.Port = 0 }},
		{"zero timeout", func(c *Config) { c.Compression.JobTimeout = 0 }},
		{"inverted quality range", func(c *Config) { c.Compression.ImageMinQuality = 95; c.Compression.ImageMaxQuality = 10 }},
		{"downscale factor of one", func(c *Config) { c.Compression.DownscaleFactor = 1 }},
		{"no iterations", func(c *Config) { c.Compression.SearchMaxIterations = 0 }},
		{"unknown backend", func(c *Config) { c.Artifacts.Backend = "s3" }},
		{"negative retries", func(c *Config) { c.Compression.TransientRetries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("compressor")
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default("compressor").Validate())
}
