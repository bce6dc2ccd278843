// Package api provides the HTTP REST surface of the Rock Paper Scissors
// server.
//
// The api package implements:
//   - The raw contract boundary (tagged execute and query messages)
//   - Resource routes for games, the admin slot and the blacklist
//   - Per-sender rate limiting of mutating routes
//   - WebSocket upgrade handling for event subscriptions
//
// Endpoints:
//
// Contract:
//   - POST /api/execute - Run a tagged ExecuteMsg as X-Sender
//   - POST /api/query - Answer a tagged QueryMsg
//
// Access control:
//   - GET /api/owner - Owner account
//   - GET /api/admin - Admin account, or null
//   - PUT /api/admin - Transfer or give up the admin role
//   - GET /api/blacklist - Blacklisted accounts
//   - PUT /api/blacklist/{address} - Bar an account from hosting
//   - DELETE /api/blacklist/{address} - Lift the bar
//
// Games:
//   - POST /api/games - Start a game hosted by X-Sender
//   - GET /api/games?host=|opponent= - Open games of one account
//   - GET /api/games/{host}/{opponent} - One open game
//   - POST /api/games/{host}/{opponent}/respond - Resolve a game as its opponent
//
// Every execute answers with its audit attributes and a tx_id, which is also
// sent as X-Request-ID and stamped on the events the call produced:
//
//	{
//	  "tx_id": "5f0c...",
//	  "attributes": [{"key": "method", "value": "response"},
//	                 {"key": "result", "value": "Opponent Won"}],
//	  "outcome": "OpponentWins"
//	}
//
// Error Handling:
//
// Errors are returned as {"error": "..."} with 400 for malformed input, 403
// for authorization and blacklist failures, 404 for missing games, 409 for a
// second game between the same pair, 429 when the rate limit is hit and 500
// for storage failures.
package api
