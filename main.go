// Command rps runs the Rock Paper Scissors session server.
//
// It supports three modes:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket
//     events and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none
//     is reachable at --api-url
//  3. "inspect" opens a bolt or sqlite store and prints what it holds
//
// Configuration comes from the environment (RPS_*), an optional .env file and
// flags, in increasing order of precedence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/rps-game/game/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rock Paper Scissors Server"
)

// flagFields maps command-line flags onto the config fields they override.
var flagFields = []struct {
	name  string
	usage string
	set   func(*config.Config, string)
}{
	{"addr", "HTTP listen address (RPS_ADDR)", func(c *config.Config, v string) { c.Addr = v }},
	{"storage", "storage driver: memory, bolt or sqlite (RPS_STORAGE)", func(c *config.Config, v string) { c.StorageDriver = v }},
	{"storage-path", "database file for the bolt and sqlite drivers (RPS_STORAGE_PATH)", func(c *config.Config, v string) { c.StoragePath = v }},
	{"creator", "account recorded as owner and admin of a new store (RPS_CREATOR)", func(c *config.Config, v string) { c.Creator = v }},
	{"log-level", "zerolog level (RPS_LOG_LEVEL)", func(c *config.Config, v string) { c.LogLevel = v }},
	{"log-format", "console or json (RPS_LOG_FORMAT)", func(c *config.Config, v string) { c.LogFormat = v }},
	{"api-url", "REST API the mcp mode proxies to (RPS_API_URL)", func(c *config.Config, v string) { c.APIURL = v }},
}

func newApp() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "env-file",
			Value: ".env",
			Usage: "dotenv file loaded before the environment is read; skipped when missing",
		},
	}
	for _, f := range flagFields {
		flags = append(flags, &cli.StringFlag{Name: f.name, Usage: f.usage})
	}

	serve := &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server with the REST API, WebSocket events and the MCP endpoint",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(ctx, cfg)
		},
	}

	return &cli.Command{
		Name:    "rps",
		Usage:   AppName,
		Version: Version,
		Flags:   flags,
		Commands: []*cli.Command{
			serve,
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp"},
				Usage:   "Run an MCP stdio server proxying to the REST API",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return runStdioMCP(ctx, cfg)
				},
			},
			{
				Name:  "inspect",
				Usage: "Print the owner, admin, blacklist and open games of a bolt or sqlite store",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return runInspect(ctx, cfg, os.Stdout, cmd.Bool("json"))
				},
			},
		},
		DefaultCommand: "serve",
	}
}

// loadConfig reads the env file and the environment, then applies every flag
// that was set explicitly.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return nil, err
	}
	values := make(map[string]string)
	for _, f := range flagFields {
		if cmd.IsSet(f.name) {
			values[f.name] = cmd.String(f.name)
		}
	}
	return applyOverrides(cfg, values)
}

func applyOverrides(cfg *config.Config, values map[string]string) (*config.Config, error) {
	for _, f := range flagFields {
		if v, ok := values[f.name]; ok {
			f.set(cfg, v)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// main parses flags and starts the selected mode.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}
