package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Addr:           "localhost:8080",
		StorageDriver:  DriverMemory,
		StoragePath:    "rps.db",
		Creator:        "creator",
		LogLevel:       "info",
		LogFormat:      "console",
		RateLimitRPM:   120,
		RateLimitBurst: 10,
		APIURL:         "http://localhost:8080",
	}, cfg)
}

func TestParseEnvironment(t *testing.T) {
	t.Setenv("RPS_ADDR", ":9090")
	t.Setenv("RPS_STORAGE", "sqlite")
	t.Setenv("RPS_STORAGE_PATH", "/tmp/rps.sqlite")
	t.Setenv("RPS_RATE_LIMIT_RPM", "0")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "/tmp/rps.sqlite", cfg.StoragePath)
	assert.Equal(t, 0, cfg.RateLimitRPM)
}

func TestParseBadNumber(t *testing.T) {
	t.Setenv("RPS_RATE_LIMIT_RPM", "lots")

	_, err := Parse()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse env:"), err.Error())
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RPS_CREATOR=creator_man\nRPS_LOG_LEVEL=debug\n"), 0o600))

	// godotenv never overrides variables that are already set
	t.Setenv("RPS_LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("RPS_CREATOR") })

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "creator_man", cfg.Creator)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StorageDriver:  DriverBolt,
			StoragePath:    "rps.db",
			Creator:        "creator",
			LogLevel:       "info",
			LogFormat:      "json",
			RateLimitRPM:   60,
			RateLimitBurst: 5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"memory needs no path", func(c *Config) { c.StorageDriver = DriverMemory; c.StoragePath = "" }, false},
		{"rate limit disabled", func(c *Config) { c.RateLimitRPM = 0; c.RateLimitBurst = 0 }, false},
		{"unknown driver", func(c *Config) { c.StorageDriver = "redis" }, true},
		{"file driver without path", func(c *Config) { c.StoragePath = " " }, true},
		{"empty creator", func(c *Config) { c.Creator = "" }, true},
		{"negative limit", func(c *Config) { c.RateLimitRPM = -1 }, true},
		{"limit without burst", func(c *Config) { c.RateLimitBurst = 0 }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.Logger(&buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"component":"test"`)
}
