// Package websocket pushes game events to connected accounts.
//
// The websocket package implements:
//   - Per-account subscriptions over gorilla/websocket
//   - Fan-out of committed game events to the host and the opponent
//   - Ping/pong keepalive and cleanup of slow or closed connections
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub owns every
// subscription. Each connection gets a read goroutine, which only drains
// control frames, and a write goroutine fed by a buffered channel. Hub
// implements service.Notifier, so the contract hands it events after each
// successful transaction.
//
// Message Protocol:
//
// Clients subscribe with GET /ws?account=<id> and never send data. Each event
// arrives as one text frame:
//
//	{"account":"first_player","event":"game_resolved",
//	 "game":{"host":"creator","opponent":"first_player","host_move":"Rock",
//	         "opp_move":"Paper","result":"OpponentWins"},
//	 "outcome":"OpponentWins","label":"Opponent Won","tx_id":"..."}
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	contract := service.NewContract(store, service.WithNotifier(hub))
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, account.ID(r.URL.Query().Get("account")))
//	})
package websocket
