// Package sqlite provides a SQLite-backed storage.Store.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/wricardo/rps-game/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   BLOB PRIMARY KEY,
	value BLOB
) WITHOUT ROWID`

var _ storage.Store = (*Store)(nil)

var errReadOnly = errors.New("write in read-only transaction")

// Store keeps every key as a row of the kv table.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at path and creates the kv table if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection serializes writers; SQLite would reject a second one with SQLITE_BUSY anyway
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// View runs fn in a transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(r storage.Reader) error) error {
	return s.run(ctx, "view", false, func(t *tx) error { return fn(t) })
}

// Update runs fn in a transaction that commits when fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(rw storage.ReadWriter) error) error {
	return s.run(ctx, "update", true, func(t *tx) error { return fn(t) })
}

func (s *Store) run(ctx context.Context, op string, writable bool, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return storage.Wrap(op, err)
	}
	if s == nil || s.sqlDB == nil {
		return storage.Wrap(op, storage.ErrClosed)
	}

	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Wrap(op, err)
	}

	if err := fn(&tx{ctx: ctx, sqlTx: sqlTx, writable: writable}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if !writable {
		return storage.Wrap(op, sqlTx.Rollback())
	}
	return storage.Wrap("commit", sqlTx.Commit())
}

type tx struct {
	ctx      context.Context
	sqlTx    *sql.Tx
	writable bool
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := t.sqlTx.QueryRowContext(t.ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storage.Wrap("get", err)
	}
	return value, true, nil
}

func (t *tx) Range(prefix []byte, fn func(key, value []byte) error) error {
	query := `SELECT key, value FROM kv ORDER BY key`
	var args []any
	if len(prefix) > 0 {
		if end := prefixEnd(prefix); end != nil {
			query = `SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key`
			args = []any{prefix, end}
		} else {
			query = `SELECT key, value FROM kv WHERE key >= ? ORDER BY key`
			args = []any{prefix}
		}
	}

	rows, err := t.sqlTx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return storage.Wrap("range", err)
	}

	// drain before calling fn so fn may issue its own queries on the transaction
	type entry struct{ key, value []byte }
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.value); err != nil {
			_ = rows.Close()
			return storage.Wrap("range", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return storage.Wrap("range", err)
	}
	if err := rows.Close(); err != nil {
		return storage.Wrap("range", err)
	}

	for _, e := range entries {
		if !bytes.HasPrefix(e.key, prefix) {
			continue
		}
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) Set(key, value []byte) error {
	if !t.writable {
		return storage.Wrap("set", errReadOnly)
	}
	if value == nil {
		value = []byte{}
	}
	_, err := t.sqlTx.ExecContext(t.ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return storage.Wrap("set", err)
}

func (t *tx) Delete(key []byte) error {
	if !t.writable {
		return storage.Wrap("delete", errReadOnly)
	}
	_, err := t.sqlTx.ExecContext(t.ctx, `DELETE FROM kv WHERE key = ?`, key)
	return storage.Wrap("delete", err)
}

// prefixEnd returns the smallest key greater than every key with the given
// prefix, or nil when no such key exists (prefix is all 0xff).
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
