// Package service runs Rock-Paper-Scissors games between pairs of accounts.
//
// The service package implements:
//   - GameEngine: starting a game and resolving it when the opponent responds
//   - Queries: read-only projections (owner, admin, games, blacklist)
//   - Contract: the instantiate/execute/query entry points that decode tagged
//     messages, run each call in one storage transaction and report audit
//     attributes
//
// Core Types:
//
// ExecuteMsg and QueryMsg are closed sets of message structs. Contract.Execute
// dispatches on the concrete type with a type switch. On the wire every
// message is a JSON object with exactly one snake_case key naming the variant:
//
//	{"start_game":{"opponent":"first_player","host_move":"Rock"}}
//	{"respond":{"host":"creator","opponent":"first_player","opp_move":"Paper"}}
//	{"get_games_by_host":{"address":"creator"}}
//
// Architecture:
//
// The contract sits between the transports (HTTP, WebSocket, MCP) and the
// game state. GameEngine consults the access package before it touches the
// session store; neither access nor session calls back into the engine.
// A failed call returns its error unchanged and, because the storage
// transaction is discarded, leaves the admin, the blacklist and every game
// exactly as they were.
//
// Usage:
//
//	contract := service.NewContract(memory.New(), service.WithLogger(logger))
//	if _, err := contract.Instantiate(ctx, "creator"); err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := contract.Execute(ctx, "creator", service.StartGame{
//		Opponent: "first_player",
//		HostMove: engine.Rock,
//	})
//
//	resp, err = contract.Execute(ctx, "first_player", service.Respond{
//		Host:     "creator",
//		Opponent: "first_player",
//		OppMove:  engine.Scissors,
//	})
//	label, _ := resp.Attr("result") // "Host Won"
//
// Concurrency:
//
// Calls are admitted under a read-write lock: executes run one at a time,
// queries may overlap each other but never an execute. Events are delivered
// to the Notifier after the transaction commits and outside the lock.
package service
