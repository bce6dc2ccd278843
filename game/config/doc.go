// Package config holds the runtime configuration of the RPS server.
//
// The config package handles:
//   - Reading settings from RPS_* environment variables (caarlos0/env)
//   - Loading an optional .env file first (joho/godotenv)
//   - Validating the storage driver, paths and limits
//   - Building the process logger from the configured level and format
//
// Settings:
//
//	RPS_ADDR               listen address                 localhost:8080
//	RPS_STORAGE            memory | bolt | sqlite          memory
//	RPS_STORAGE_PATH       database file for bolt/sqlite   rps.db
//	RPS_CREATOR            account instantiated as owner   creator
//	RPS_LOG_LEVEL          zerolog level                   info
//	RPS_LOG_FORMAT         console | json                  console
//	RPS_RATE_LIMIT_RPM     executes per sender per minute  120 (0 disables)
//	RPS_RATE_LIMIT_BURST   burst size                      10
//	RPS_API_URL            REST base URL used by mcp mode  http://localhost:8080
//
// Usage:
//
//	cfg, err := config.Load(".env")
//	if err != nil {
//		log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
//
// Command-line flags take precedence; callers overwrite fields after Load and
// then call Validate again.
package config
