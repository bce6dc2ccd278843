// Package mcp exposes the Rock Paper Scissors server as Model Context
// Protocol tools.
//
// The mcp package implements:
//   - One tool per contract operation (start_game, respond, update_admin,
//     add_to_blacklist, remove_from_blacklist) and per query (get_game,
//     games_by_host, games_by_opponent, get_owner, get_admin, list_blacklist)
//   - A thin proxy: every tool is a REST call, with the tool's sender
//     argument forwarded as X-Sender
//   - Plain-text results meant to be read by a model
//
// The client holds no game state, so it can run in-process next to the API
// (served on /mcp) or as a stdio server pointing at a remote one.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// stdio
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP
//	mux.Handle("/mcp", client.Handler())
package mcp
