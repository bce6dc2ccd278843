// Package bolt provides a storage.Store in a single bbolt file.
package bolt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/wricardo/rps-game/storage"
)

const bucketName = "rps"

var _ storage.Store = (*Store)(nil)

var errReadOnly = errors.New("write in read-only transaction")

// Store keeps every key in one bucket of a bbolt database.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	return open(path, &bbolt.Options{Timeout: time.Second})
}

// OpenReadOnly opens an existing database without taking the write lock.
func OpenReadOnly(path string) (*Store, error) {
	return open(path, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
}

func open(path string, opts *bbolt.Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, opts)
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if !opts.ReadOnly {
		if err := store.ensureBucket(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// View runs fn in a read-only bbolt transaction.
func (s *Store) View(ctx context.Context, fn func(r storage.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return storage.Wrap("view", err)
	}
	if s == nil || s.db == nil {
		return storage.Wrap("view", storage.ErrClosed)
	}

	var fnErr error
	err := s.db.View(func(btx *bbolt.Tx) error {
		fnErr = fn(&tx{bucket: btx.Bucket([]byte(bucketName))})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return storage.Wrap("view", err)
}

// Update runs fn in a read-write bbolt transaction.
func (s *Store) Update(ctx context.Context, fn func(rw storage.ReadWriter) error) error {
	if err := ctx.Err(); err != nil {
		return storage.Wrap("update", err)
	}
	if s == nil || s.db == nil {
		return storage.Wrap("update", storage.ErrClosed)
	}

	var fnErr error
	err := s.db.Update(func(btx *bbolt.Tx) error {
		bucket := btx.Bucket([]byte(bucketName))
		if bucket == nil {
			return errors.New("bucket is missing")
		}
		if fnErr = fn(&tx{bucket: bucket}); fnErr != nil {
			return fnErr
		}
		// rolled back if the caller gave up while fn ran
		return ctx.Err()
	})
	if fnErr != nil {
		return fnErr
	}
	return storage.Wrap("update", err)
}

func (s *Store) ensureBucket() error {
	return s.db.Update(func(btx *bbolt.Tx) error {
		if _, err := btx.CreateBucketIfNotExists([]byte(bucketName)); err != nil {
			return fmt.Errorf("create %s bucket: %w", bucketName, err)
		}
		return nil
	})
}

// tx adapts a bucket to storage.ReadWriter. A nil bucket means a read-only
// view of a database that has never been written.
type tx struct {
	bucket *bbolt.Bucket
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	if t.bucket == nil {
		return nil, false, nil
	}
	// Seek distinguishes an empty value from a missing key
	k, v := t.bucket.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Range must not be combined with writes from inside fn; bbolt cursors are
// invalidated by mutation.
func (t *tx) Range(prefix []byte, fn func(key, value []byte) error) error {
	if t.bucket == nil {
		return nil
	}
	c := t.bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(bytes.Clone(k), bytes.Clone(v)); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) Set(key, value []byte) error {
	if t.bucket == nil || !t.bucket.Writable() {
		return storage.Wrap("set", errReadOnly)
	}
	// bbolt keeps references to both slices until commit
	return storage.Wrap("set", t.bucket.Put(bytes.Clone(key), append([]byte{}, value...)))
}

func (t *tx) Delete(key []byte) error {
	if t.bucket == nil || !t.bucket.Writable() {
		return storage.Wrap("delete", errReadOnly)
	}
	return storage.Wrap("delete", t.bucket.Delete(key))
}
