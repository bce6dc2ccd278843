package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/storage"
	"github.com/wricardo/rps-game/storage/memory"
	"github.com/wricardo/rps-game/storage/mock"
)

func open(host, opponent account.ID, move engine.Move) Session {
	return Session{Host: host, Opponent: opponent, HostMove: move}
}

func seed(t *testing.T, st *Store, s storage.Store, sessions ...Session) {
	t.Helper()
	err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
		for _, sess := range sessions {
			if err := st.Put(rw, sess); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestStore_PutGet(t *testing.T) {
	st, s := NewStore(), memory.New()
	seed(t, st, s, open("creator", "first_player", engine.Rock))

	err := s.View(context.Background(), func(r storage.Reader) error {
		got, ok, err := st.Get(r, "creator", "first_player")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, open("creator", "first_player", engine.Rock), *got)
		assert.False(t, got.Resolved())

		// direction matters
		_, ok, err = st.Get(r, "first_player", "creator")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_PutOccupiedPair(t *testing.T) {
	st, s := NewStore(), memory.New()
	seed(t, st, s, open("creator", "first_player", engine.Rock))

	err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
		return st.Put(rw, open("creator", "first_player", engine.Paper))
	})
	assert.ErrorIs(t, err, ErrGameExists)

	err = s.View(context.Background(), func(r storage.Reader) error {
		got, _, err := st.Get(r, "creator", "first_player")
		assert.Equal(t, engine.Rock, got.HostMove)
		return err
	})
	require.NoError(t, err)
}

func TestStore_Update(t *testing.T) {
	t.Run("missing pair", func(t *testing.T) {
		st, s := NewStore(), memory.New()
		called := false
		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			return st.Update(rw, "creator", "first_player", func(sess Session) (Session, error) {
				called = true
				return sess, nil
			})
		})
		assert.ErrorIs(t, err, ErrNoGameFound)
		assert.False(t, called)
	})

	t.Run("resolves in place", func(t *testing.T) {
		st, s := NewStore(), memory.New()
		seed(t, st, s, open("creator", "first_player", engine.Rock))

		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			return st.Update(rw, "creator", "first_player", func(sess Session) (Session, error) {
				return sess.Resolve(engine.Scissors), nil
			})
		})
		require.NoError(t, err)

		err = s.View(context.Background(), func(r storage.Reader) error {
			got, _, err := st.Get(r, "creator", "first_player")
			require.NoError(t, err)
			require.True(t, got.Resolved())
			assert.Equal(t, engine.Scissors, *got.OpponentMove)
			assert.Equal(t, engine.HostWins, *got.Result)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("transform error writes nothing", func(t *testing.T) {
		st, s := NewStore(), memory.New()
		seed(t, st, s, open("creator", "first_player", engine.Rock))

		boom := errors.New("boom")
		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			return st.Update(rw, "creator", "first_player", func(sess Session) (Session, error) {
				return sess.Resolve(engine.Paper), boom
			})
		})
		assert.ErrorIs(t, err, boom)

		err = s.View(context.Background(), func(r storage.Reader) error {
			got, _, err := st.Get(r, "creator", "first_player")
			assert.False(t, got.Resolved())
			return err
		})
		require.NoError(t, err)
	})

	t.Run("half-resolved session is rejected", func(t *testing.T) {
		st, s := NewStore(), memory.New()
		seed(t, st, s, open("creator", "first_player", engine.Rock))

		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			return st.Update(rw, "creator", "first_player", func(sess Session) (Session, error) {
				move := engine.Paper
				sess.OpponentMove = &move
				return sess, nil
			})
		})
		assert.ErrorIs(t, err, errInconsistentGame)
	})
}

func TestStore_Delete(t *testing.T) {
	st, s := NewStore(), memory.New()
	seed(t, st, s, open("creator", "first_player", engine.Rock))

	for i := 0; i < 2; i++ {
		err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
			return st.Delete(rw, "creator", "first_player")
		})
		require.NoError(t, err)
	}

	err := s.View(context.Background(), func(r storage.Reader) error {
		_, ok, err := st.Get(r, "creator", "first_player")
		assert.False(t, ok)
		return err
	})
	require.NoError(t, err)
}

func TestStore_Scans(t *testing.T) {
	st, s := NewStore(), memory.New()
	seed(t, st, s,
		open("creator", "third_player", engine.Rock),
		open("creator", "first_player", engine.Paper),
		open("creator_man", "first_player", engine.Scissors),
		open("first_player", "creator", engine.Rock),
		open("second_player", "first_player", engine.Rock),
	)

	err := s.View(context.Background(), func(r storage.Reader) error {
		byHost, err := st.ScanByHost(r, "creator")
		require.NoError(t, err)
		require.Len(t, byHost, 2)
		// ordered by opponent; "creator_man" is a different host
		assert.Equal(t, account.ID("first_player"), byHost[0].Opponent)
		assert.Equal(t, account.ID("third_player"), byHost[1].Opponent)

		byOpponent, err := st.ScanByOpponent(r, "first_player")
		require.NoError(t, err)
		var hosts []account.ID
		for _, sess := range byOpponent {
			hosts = append(hosts, sess.Host)
		}
		assert.Equal(t, []account.ID{"creator", "creator_man", "second_player"}, hosts)

		all, err := st.ScanAll(r)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		none, err := st.ScanByHost(r, "not_a_real_player")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
		return nil
	})
	require.NoError(t, err)
}

func TestSessionWireFormat(t *testing.T) {
	data, err := json.Marshal(open("creator", "first_player", engine.Rock))
	require.NoError(t, err)
	assert.JSONEq(t, `{"host":"creator","opponent":"first_player","host_move":"Rock","opp_move":null,"result":null}`, string(data))

	data, err = json.Marshal(open("creator", "first_player", engine.Rock).Resolve(engine.Paper))
	require.NoError(t, err)
	assert.JSONEq(t, `{"host":"creator","opponent":"first_player","host_move":"Rock","opp_move":"Paper","result":"OpponentWins"}`, string(data))
}

func TestStore_SubstrateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	rw := mock.NewMockReadWriter(ctrl)
	failure := storage.Wrap("get", errors.New("disk on fire"))
	rw.EXPECT().Get(gomock.Any()).Return(nil, false, failure)

	st := NewStore()
	err := st.Put(rw, open("creator", "first_player", engine.Rock))
	assert.ErrorIs(t, err, failure)
	assert.True(t, storage.IsStorageError(err))
}

func TestStore_CorruptRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mock.NewMockReader(ctrl)
	r.EXPECT().Get(storage.PairKey(Namespace, "creator", "first_player")).Return([]byte("{"), true, nil)

	_, _, err := NewStore().Get(r, "creator", "first_player")
	assert.True(t, storage.IsStorageError(err))
}
