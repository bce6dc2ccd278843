// Package session stores open Rock-Paper-Scissors games.
//
// The session package implements:
//   - One record per ordered (host, opponent) pair
//   - Exact lookups, inserts that refuse an occupied pair, and deletes
//   - Transactional read-modify-write via Update
//   - Listings by host (a prefix scan) and by opponent (a full scan)
//
// Core Types:
//
// Session is a single game. HostMove is fixed at creation; OpponentMove and
// Result are nil until the opponent responds and are always set together.
// Store reads and writes sessions inside the storage transaction passed to
// each call and holds no state of its own.
//
// Key Layout:
//
// Sessions live in the "game" pair collection keyed by (host, opponent), so
// every game hosted by one account is contiguous and ordered by opponent.
// There is no index on the opponent; ScanByOpponent walks every open game and
// its cost grows with the total number of games, not the number of matches.
//
// Usage:
//
//	games := session.NewStore()
//	err := store.Update(ctx, func(rw storage.ReadWriter) error {
//		return games.Put(rw, session.Session{
//			Host:     "creator",
//			Opponent: "first_player",
//			HostMove: engine.Rock,
//		})
//	})
//
// Wire Format:
//
// Records are JSON objects with the fields host, opponent, host_move,
// opp_move and result. Unresolved fields are encoded as null.
package session
