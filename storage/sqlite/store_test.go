package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/rps-game/storage"
	"github.com/wricardo/rps-game/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := Open(filepath.Join(t.TempDir(), "rps.sqlite"))
		require.NoError(t, err)
		return s
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("b"), prefixEnd([]byte("a")))
	assert.Equal(t, []byte{0x01, 0x01}, prefixEnd([]byte{0x01, 0x00, 0xff}))
	assert.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}

func TestRangeWithBinaryKeys(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "rps.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	keys := [][]byte{
		storage.PairKey("game", "creator", "b_player"),
		storage.PairKey("game", "creator", "a_player"),
		storage.PairKey("game", "creatorx", "a_player"),
		storage.SetKey("blacklist", "creator"),
	}
	err = s.Update(context.Background(), func(rw storage.ReadWriter) error {
		for _, k := range keys {
			if err := rw.Set(k, []byte("{}")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var got [][]byte
	err = s.View(context.Background(), func(r storage.Reader) error {
		return r.Range(storage.PairPrefix("game", "creator"), func(k, _ []byte) error {
			got = append(got, append([]byte(nil), k...))
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{keys[1], keys[0]}, got)
}

func TestViewIsReadOnly(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "rps.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	err = s.View(context.Background(), func(r storage.Reader) error {
		return r.(storage.ReadWriter).Set([]byte("k"), []byte("v"))
	})
	assert.True(t, storage.IsStorageError(err))
}
