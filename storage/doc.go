// Package storage defines the key-value substrate the game state lives in.
//
// The substrate is small: byte-string keys, get/set/delete, and
// ordered prefix scans, all inside a transaction that either commits every
// write or none of them. The game packages never talk to a database directly;
// they encode their records into keys laid out by the helpers in keys.go and
// run each external action as one Update (or View for reads).
//
// Implementations:
//
//   - storage/memory: in-process maps, used by tests and the default server mode
//   - storage/bolt: a single bbolt file
//   - storage/sqlite: a single SQLite database via modernc.org/sqlite
//
// Usage:
//
//	store := memory.New()
//	err := store.Update(ctx, func(rw storage.ReadWriter) error {
//		return rw.Set(storage.SlotKey("owner"), []byte(`{"owner":"creator"}`))
//	})
//
// Errors:
//
// Failures of the substrate itself are reported as *storage.Error so callers
// can tell them apart from domain errors returned by their own transaction
// functions, which pass through unchanged.
package storage
