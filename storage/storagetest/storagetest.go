// Package storagetest holds the behaviour every storage.Store implementation
// must share. Backends call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/rps-game/storage"
)

// Factory returns a fresh, empty store. The test closes it.
type Factory func(t *testing.T) storage.Store

// Run exercises store semantics against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("get missing key", func(t *testing.T) {
		s := open(t, newStore)
		err := s.View(context.Background(), func(r storage.Reader) error {
			v, ok, err := r.Get([]byte("missing"))
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, v)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t, newStore)
		put(t, s, "k", "v")

		assert.Equal(t, "v", get(t, s, "k"))
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := open(t, newStore)
		put(t, s, "k", "")

		err := s.View(context.Background(), func(r storage.Reader) error {
			_, ok, err := r.Get([]byte("k"))
			require.NoError(t, err)
			assert.True(t, ok)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := open(t, newStore)
		put(t, s, "k", "one")
		put(t, s, "k", "two")

		assert.Equal(t, "two", get(t, s, "k"))
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t, newStore)
		put(t, s, "k", "v")

		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			return rw.Delete([]byte("k"))
		})
		require.NoError(t, err)
		assert.False(t, has(t, s, "k"))

		// deleting an absent key is not an error
		err = s.Update(context.Background(), func(rw storage.ReadWriter) error {
			return rw.Delete([]byte("never-there"))
		})
		require.NoError(t, err)
	})

	t.Run("range is ordered and prefix bound", func(t *testing.T) {
		s := open(t, newStore)
		put(t, s, "b/2", "x")
		put(t, s, "a/1", "x")
		put(t, s, "b/1", "x")
		put(t, s, "b/3", "x")
		put(t, s, "c/1", "x")

		assert.Equal(t, []string{"b/1", "b/2", "b/3"}, keys(t, s, "b/"))
		assert.Equal(t, []string{"a/1", "b/1", "b/2", "b/3", "c/1"}, keys(t, s, ""))
		assert.Empty(t, keys(t, s, "d/"))
	})

	t.Run("range sees uncommitted writes", func(t *testing.T) {
		s := open(t, newStore)
		put(t, s, "p/1", "x")
		put(t, s, "p/3", "x")

		var seen []string
		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			if err := rw.Set([]byte("p/2"), []byte("x")); err != nil {
				return err
			}
			if err := rw.Delete([]byte("p/3")); err != nil {
				return err
			}
			return rw.Range([]byte("p/"), func(k, _ []byte) error {
				seen = append(seen, string(k))
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"p/1", "p/2"}, seen)
	})

	t.Run("range callback error stops scan", func(t *testing.T) {
		s := open(t, newStore)
		put(t, s, "p/1", "x")
		put(t, s, "p/2", "x")

		stop := errors.New("stop")
		visited := 0
		err := s.View(context.Background(), func(r storage.Reader) error {
			return r.Range([]byte("p/"), func(_, _ []byte) error {
				visited++
				return stop
			})
		})
		assert.ErrorIs(t, err, stop)
		assert.False(t, storage.IsStorageError(err))
		assert.Equal(t, 1, visited)
	})

	t.Run("failed update leaves no trace", func(t *testing.T) {
		s := open(t, newStore)
		put(t, s, "keep", "original")

		boom := errors.New("boom")
		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			if err := rw.Set([]byte("keep"), []byte("changed")); err != nil {
				return err
			}
			if err := rw.Set([]byte("new"), []byte("x")); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.False(t, storage.IsStorageError(err))

		assert.Equal(t, "original", get(t, s, "keep"))
		assert.False(t, has(t, s, "new"))
	})

	t.Run("values are copies", func(t *testing.T) {
		s := open(t, newStore)
		value := []byte("abc")
		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			return rw.Set([]byte("k"), value)
		})
		require.NoError(t, err)
		value[0] = 'z'

		assert.Equal(t, "abc", get(t, s, "k"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t, newStore)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Update(ctx, func(rw storage.ReadWriter) error {
			return rw.Set([]byte("k"), []byte("v"))
		})
		require.Error(t, err)
		assert.True(t, storage.IsStorageError(err))
		assert.False(t, has(t, s, "k"))
	})
}

func open(t *testing.T, newStore Factory) storage.Store {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func put(t *testing.T, s storage.Store, k, v string) {
	t.Helper()
	err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
		return rw.Set([]byte(k), []byte(v))
	})
	require.NoError(t, err)
}

func get(t *testing.T, s storage.Store, k string) string {
	t.Helper()
	var out string
	err := s.View(context.Background(), func(r storage.Reader) error {
		v, ok, err := r.Get([]byte(k))
		if err != nil {
			return err
		}
		require.True(t, ok, "key %q missing", k)
		out = string(v)
		return nil
	})
	require.NoError(t, err)
	return out
}

func has(t *testing.T, s storage.Store, k string) bool {
	t.Helper()
	var found bool
	err := s.View(context.Background(), func(r storage.Reader) error {
		_, ok, err := r.Get([]byte(k))
		found = ok
		return err
	})
	require.NoError(t, err)
	return found
}

func keys(t *testing.T, s storage.Store, prefix string) []string {
	t.Helper()
	var out []string
	err := s.View(context.Background(), func(r storage.Reader) error {
		return r.Range([]byte(prefix), func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	require.NoError(t, err)
	return out
}
