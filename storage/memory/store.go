// Package memory provides an in-process storage.Store backed by a map.
package memory

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/rps-game/storage"
)

var _ storage.Store = (*Store)(nil)

var errReadOnly = errors.New("write in read-only transaction")

// Store keeps every key in memory. Update transactions are serialized and
// buffer their writes until fn returns nil.
type Store struct {
	data   map[string][]byte
	closed bool
	mu     sync.RWMutex
}

// New creates an empty store
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// View runs fn against the committed state.
func (s *Store) View(ctx context.Context, fn func(r storage.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return storage.Wrap("view", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return storage.Wrap("view", storage.ErrClosed)
	}
	return fn(&tx{base: s.data})
}

// Update runs fn in a write transaction and commits its writes if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(rw storage.ReadWriter) error) error {
	if err := ctx.Err(); err != nil {
		return storage.Wrap("update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.Wrap("update", storage.ErrClosed)
	}

	t := &tx{base: s.data, writes: make(map[string][]byte), writable: true}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return storage.Wrap("commit", err)
	}

	for k, v := range t.writes {
		if v == nil {
			delete(s.data, k)
			continue
		}
		s.data[k] = v
	}
	return nil
}

// Close releases the data. Later calls fail with storage.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = nil
	return nil
}

// Len returns the number of committed keys
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// tx overlays buffered writes on the committed map. A nil value in writes
// marks a deletion.
type tx struct {
	base     map[string][]byte
	writes   map[string][]byte
	writable bool
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	k := string(key)
	if v, ok := t.writes[k]; ok {
		if v == nil {
			return nil, false, nil
		}
		return bytes.Clone(v), true, nil
	}
	v, ok := t.base[k]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (t *tx) Range(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)

	keys := make([]string, 0)
	for k := range t.base {
		if strings.HasPrefix(k, p) {
			if _, shadowed := t.writes[k]; !shadowed {
				keys = append(keys, k)
			}
		}
	}
	for k, v := range t.writes {
		if v != nil && strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := t.writes[k]
		if !ok {
			v = t.base[k]
		}
		if err := fn([]byte(k), bytes.Clone(v)); err != nil {
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
	t.writes[string(key)] = bytes.Clone(value)
	return nil
}

func (t *tx) Delete(key []byte) error {
	if !t.writable {
		return storage.Wrap("delete", errReadOnly)
	}
	t.writes[string(key)] = nil
	return nil
}
