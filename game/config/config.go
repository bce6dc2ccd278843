package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Storage drivers
const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Config is the server configuration
type Config struct {
	Addr           string `env:"RPS_ADDR" envDefault:"localhost:8080"`
	StorageDriver  string `env:"RPS_STORAGE" envDefault:"memory"`
	StoragePath    string `env:"RPS_STORAGE_PATH" envDefault:"rps.db"`
	Creator        string `env:"RPS_CREATOR" envDefault:"creator"`
	LogLevel       string `env:"RPS_LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"RPS_LOG_FORMAT" envDefault:"console"`
	RateLimitRPM   int    `env:"RPS_RATE_LIMIT_RPM" envDefault:"120"`
	RateLimitBurst int    `env:"RPS_RATE_LIMIT_BURST" envDefault:"10"`
	APIURL         string `env:"RPS_API_URL" envDefault:"http://localhost:8080"`
}

// Load reads dotenv files (missing ones are skipped), then the environment.
// Variables already set in the environment win over dotenv values.
func Load(dotenv ...string) (*Config, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return Parse()
}

// Parse reads the configuration from the environment and validates it.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field that cannot be checked by its type.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverBolt, DriverSQLite:
		if strings.TrimSpace(c.StoragePath) == "" {
			return fmt.Errorf("%w: storage path is required for the %s driver", ErrInvalidConfig, c.StorageDriver)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q (want memory, bolt or sqlite)", ErrInvalidConfig, c.StorageDriver)
	}
	if strings.TrimSpace(c.Creator) == "" {
		return fmt.Errorf("%w: creator is required", ErrInvalidConfig)
	}
	if c.RateLimitRPM < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}
	if c.RateLimitRPM > 0 && c.RateLimitBurst == 0 {
		return fmt.Errorf("%w: rate limit burst must be positive when a limit is set", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
