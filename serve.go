package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/wricardo/rps-game/api"
	"github.com/wricardo/rps-game/game/config"
	"github.com/wricardo/rps-game/game/service"
	"github.com/wricardo/rps-game/storage"
	"github.com/wricardo/rps-game/storage/bolt"
	"github.com/wricardo/rps-game/storage/memory"
	"github.com/wricardo/rps-game/storage/sqlite"
	"github.com/wricardo/rps-game/transport/mcp"
	"github.com/wricardo/rps-game/transport/websocket"
)

// openStore opens the substrate named by cfg. readOnly only applies to bolt.
func openStore(cfg *config.Config, readOnly bool) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverBolt:
		if readOnly {
			return bolt.OpenReadOnly(cfg.StoragePath)
		}
		return bolt.Open(cfg.StoragePath)
	case config.DriverSQLite:
		return sqlite.Open(cfg.StoragePath)
	}
	return nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, cfg.StorageDriver)
}

// bootstrap instantiates the contract with creator unless the store already
// has an owner.
func bootstrap(ctx context.Context, contract *service.Contract, creator string, logger zerolog.Logger) error {
	done, err := contract.Initialized(ctx)
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}
	if done {
		logger.Info().Msg("store already instantiated")
		return nil
	}
	if _, err := contract.Instantiate(ctx, creator); err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	logger.Info().Str("owner", creator).Msg("store instantiated")
	return nil
}

// stack is one running contract with everything serving it
type stack struct {
	store    storage.Store
	hub      *websocket.Hub
	contract *service.Contract
	handler  http.Handler
}

// newStack opens the store, bootstraps the contract and builds the HTTP
// handler. The hub runs until ctx is done.
func newStack(ctx context.Context, cfg *config.Config, logger zerolog.Logger, baseURL string) (*stack, error) {
	store, err := openStore(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	contract := service.NewContract(store,
		service.WithLogger(logger),
		service.WithNotifier(hub),
	)
	if err := bootstrap(ctx, contract, cfg.Creator, logger); err != nil {
		store.Close()
		return nil, err
	}

	apiServer := api.NewServer(contract, hub,
		api.WithLogger(logger),
		api.WithRateLimit(cfg.RateLimitRPM, cfg.RateLimitBurst),
	)

	// Main router combines the API and the MCP endpoint
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcp.NewClient(baseURL).Handler())

	return &stack{store: store, hub: hub, contract: contract, handler: mainRouter}, nil
}

// localURL is the URL a client on this host uses to reach addr.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// runServe serves HTTP on cfg.Addr until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger(os.Stderr)
	logger.Info().Str("version", Version).Str("storage", cfg.StorageDriver).Msg("starting " + AppName)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := newStack(ctx, cfg, logger, localURL(cfg.Addr))
	if err != nil {
		return err
	}
	defer st.store.Close()

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      st.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("api", localURL(cfg.Addr)+"/api").
			Str("websocket", "ws"+strings.TrimPrefix(localURL(cfg.Addr), "http")+"/ws?account=<id>").
			Str("mcp", localURL(cfg.Addr)+"/mcp").
			Msg("HTTP server listening")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// apiReachable reports whether a REST API answers health checks at baseURL.
func apiReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP serves MCP over stdio. It reuses the API at cfg.APIURL when it
// answers; otherwise it starts an internal one on a random loopback port.
func runStdioMCP(ctx context.Context, cfg *config.Config) error {
	// stdout carries the protocol
	logger := cfg.Logger(os.Stderr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseURL := strings.TrimRight(cfg.APIURL, "/")
	if apiReachable(ctx, baseURL) {
		logger.Info().Str("api", baseURL).Msg("using external API server")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		st, err := newStack(ctx, cfg, logger, baseURL)
		if err != nil {
			listener.Close()
			return err
		}
		defer st.store.Close()

		httpServer := &http.Server{Handler: st.handler}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("internal HTTP server")
			}
		}()
		defer httpServer.Close()

		logger.Info().Str("api", baseURL).Msg("started internal API server")
	}

	client := mcp.NewClient(baseURL)
	logger.Info().Msg("MCP stdio server ready")
	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}
