package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/rps-game/game/config"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/game/service"
	"github.com/wricardo/rps-game/storage/memory"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Addr:           "localhost:0",
		StorageDriver:  driver,
		StoragePath:    filepath.Join(t.TempDir(), "rps.db"),
		Creator:        "creator",
		LogLevel:       "error",
		LogFormat:      "json",
		RateLimitRPM:   0,
		RateLimitBurst: 0,
		APIURL:         "http://localhost:0",
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestConstants(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.Equal(t, "Rock Paper Scissors Server", AppName)
}

func TestAppCommands(t *testing.T) {
	app := newApp()

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"serve", "mcp", "inspect"} {
		assert.True(t, names[want], "missing %s command", want)
	}
	assert.Equal(t, "serve", app.DefaultCommand)
}

func TestApplyOverrides(t *testing.T) {
	t.Run("flags win", func(t *testing.T) {
		cfg := testConfig(t, config.DriverMemory)
		got, err := applyOverrides(cfg, map[string]string{
			"storage":      "sqlite",
			"storage-path": "/tmp/other.sqlite",
			"creator":      "creator_man",
		})
		require.NoError(t, err)
		assert.Equal(t, config.DriverSQLite, got.StorageDriver)
		assert.Equal(t, "/tmp/other.sqlite", got.StoragePath)
		assert.Equal(t, "creator_man", got.Creator)
		assert.Equal(t, "localhost:0", got.Addr)
	})

	t.Run("result is validated", func(t *testing.T) {
		cfg := testConfig(t, config.DriverMemory)
		_, err := applyOverrides(cfg, map[string]string{"storage": "redis"})
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestOpenStore(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverBolt, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			store, err := openStore(testConfig(t, driver), false)
			require.NoError(t, err)
			assert.NoError(t, store.Close())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		cfg := testConfig(t, config.DriverMemory)
		cfg.StorageDriver = "redis"
		_, err := openStore(cfg, false)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.DriverBolt)

	store, err := openStore(cfg, false)
	require.NoError(t, err)
	contract := service.NewContract(store)
	require.NoError(t, bootstrap(ctx, contract, "creator", zerolog.Nop()))
	require.NoError(t, store.Close())

	// reopening keeps the first owner
	store, err = openStore(cfg, false)
	require.NoError(t, err)
	defer store.Close()
	contract = service.NewContract(store)
	require.NoError(t, bootstrap(ctx, contract, "someone_else", zerolog.Nop()))

	raw, err := contract.Query(ctx, service.GetOwner{})
	require.NoError(t, err)
	assert.JSONEq(t, `"creator"`, string(raw))
}

func TestBootstrapRejectsBadCreator(t *testing.T) {
	contract := service.NewContract(memory.New())
	assert.Error(t, bootstrap(context.Background(), contract, "A", zerolog.Nop()))
}

func TestStackServesAPIAndMCP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := newStack(ctx, testConfig(t, config.DriverMemory), zerolog.Nop(), "http://localhost:0")
	require.NoError(t, err)
	defer st.store.Close()

	server := httptest.NewServer(st.handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/owner")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var owner map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&owner))
	assert.Equal(t, "creator", owner["owner"])

	rpc := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	mcpResp, err := http.Post(server.URL+"/mcp", "application/json", strings.NewReader(rpc))
	require.NoError(t, err)
	defer mcpResp.Body.Close()
	assert.Equal(t, http.StatusOK, mcpResp.StatusCode)

	assert.True(t, apiReachable(ctx, server.URL))
	assert.False(t, apiReachable(ctx, "http://127.0.0.1:1"))
}

func TestLocalURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", localURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000", localURL("127.0.0.1:9000"))
}

func seed(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()

	store, err := openStore(cfg, false)
	require.NoError(t, err)
	defer store.Close()

	contract := service.NewContract(store)
	_, err = contract.Instantiate(ctx, "creator")
	require.NoError(t, err)
	_, err = contract.Execute(ctx, "creator", service.StartGame{Opponent: "first_player", HostMove: engine.Rock})
	require.NoError(t, err)
	_, err = contract.Execute(ctx, "creator", service.AddToBlacklist{Address: "cheater"})
	require.NoError(t, err)
}

func TestRunInspect(t *testing.T) {
	for _, driver := range []string{config.DriverBolt, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			seed(t, cfg)

			var text bytes.Buffer
			require.NoError(t, runInspect(context.Background(), cfg, &text, false))
			out := text.String()
			assert.Contains(t, out, "Owner:     creator")
			assert.Contains(t, out, "Admin:     creator")
			assert.Contains(t, out, "  - cheater")
			assert.Contains(t, out, "Games:     1")
			assert.Contains(t, out, "first_player")

			var raw bytes.Buffer
			require.NoError(t, runInspect(context.Background(), cfg, &raw, true))
			var snap snapshot
			require.NoError(t, json.Unmarshal(raw.Bytes(), &snap))
			assert.Equal(t, "creator", snap.Owner.String())
			require.Len(t, snap.Games, 1)
			assert.Equal(t, engine.Rock, snap.Games[0].HostMove)
		})
	}
}

func TestRunInspectNeedsFileStore(t *testing.T) {
	err := runInspect(context.Background(), testConfig(t, config.DriverMemory), &bytes.Buffer{}, false)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunInspectEmptyStore(t *testing.T) {
	cfg := testConfig(t, config.DriverSQLite)
	err := runInspect(context.Background(), cfg, &bytes.Buffer{}, false)
	assert.ErrorIs(t, err, service.ErrNotInstantiated)
}

func TestAppInspectRejectsMemory(t *testing.T) {
	err := newApp().Run(context.Background(), []string{
		"rps",
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--storage", "memory",
		"inspect",
	})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
