package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/storage"
	"github.com/wricardo/rps-game/storage/memory"
)

func newInitialized(t *testing.T) (*Control, storage.Store) {
	t.Helper()
	c := New()
	s := memory.New()
	require.NoError(t, s.Update(context.Background(), func(rw storage.ReadWriter) error {
		return c.Initialize(rw, "creator")
	}))
	return c, s
}

func update(s storage.Store, fn func(rw storage.ReadWriter) error) error {
	return s.Update(context.Background(), fn)
}

func view(t *testing.T, s storage.Store, fn func(r storage.Reader) error) {
	t.Helper()
	require.NoError(t, s.View(context.Background(), fn))
}

func adminOf(t *testing.T, c *Control, s storage.Store) (account.ID, bool) {
	t.Helper()
	var (
		admin account.ID
		ok    bool
	)
	view(t, s, func(r storage.Reader) error {
		var err error
		admin, ok, err = c.Admin(r)
		return err
	})
	return admin, ok
}

func TestControl_Initialize(t *testing.T) {
	c := New()
	s := memory.New()

	view(t, s, func(r storage.Reader) error {
		ok, err := c.Initialized(r)
		assert.False(t, ok)
		return err
	})

	require.NoError(t, update(s, func(rw storage.ReadWriter) error {
		return c.Initialize(rw, "creator")
	}))

	view(t, s, func(r storage.Reader) error {
		ok, err := c.Initialized(r)
		require.NoError(t, err)
		assert.True(t, ok)

		owner, ok, err := c.Owner(r)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, account.ID("creator"), owner)
		return nil
	})

	admin, ok := adminOf(t, c, s)
	assert.True(t, ok)
	assert.Equal(t, account.ID("creator"), admin)
}

func TestControl_TransferAdmin(t *testing.T) {
	t.Run("admin hands over the role", func(t *testing.T) {
		c, s := newInitialized(t)
		next := account.ID("updated_man")

		require.NoError(t, update(s, func(rw storage.ReadWriter) error {
			return c.TransferAdmin(rw, "creator", &next)
		}))

		admin, ok := adminOf(t, c, s)
		assert.True(t, ok)
		assert.Equal(t, next, admin)

		// the previous admin lost the role; the owner is unchanged
		err := update(s, func(rw storage.ReadWriter) error {
			return c.TransferAdmin(rw, "creator", nil)
		})
		assert.ErrorIs(t, err, ErrUnauthorized)
		view(t, s, func(r storage.Reader) error {
			owner, _, err := c.Owner(r)
			assert.Equal(t, account.ID("creator"), owner)
			return err
		})
	})

	t.Run("non-admin is rejected and admin is unchanged", func(t *testing.T) {
		c, s := newInitialized(t)
		intruder := account.ID("creator_man")

		err := update(s, func(rw storage.ReadWriter) error {
			return c.TransferAdmin(rw, intruder, &intruder)
		})
		assert.ErrorIs(t, err, ErrUnauthorized)

		admin, ok := adminOf(t, c, s)
		assert.True(t, ok)
		assert.Equal(t, account.ID("creator"), admin)
	})

	t.Run("transfer to nobody closes every admin action", func(t *testing.T) {
		c, s := newInitialized(t)

		require.NoError(t, update(s, func(rw storage.ReadWriter) error {
			return c.TransferAdmin(rw, "creator", nil)
		}))

		_, ok := adminOf(t, c, s)
		assert.False(t, ok)

		err := update(s, func(rw storage.ReadWriter) error {
			return c.AddToBlacklist(rw, "creator", "first_player")
		})
		assert.ErrorIs(t, err, ErrUnauthorized)

		restored := account.ID("creator")
		err = update(s, func(rw storage.ReadWriter) error {
			return c.TransferAdmin(rw, "creator", &restored)
		})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestControl_Blacklist(t *testing.T) {
	c, s := newInitialized(t)

	for _, target := range []account.ID{"third_player", "first_player", "first_player"} {
		require.NoError(t, update(s, func(rw storage.ReadWriter) error {
			return c.AddToBlacklist(rw, "creator", target)
		}))
	}

	view(t, s, func(r storage.Reader) error {
		list, err := c.ListBlacklisted(r)
		require.NoError(t, err)
		assert.Equal(t, []account.ID{"first_player", "third_player"}, list)

		banned, err := c.IsBlacklisted(r, "first_player")
		require.NoError(t, err)
		assert.True(t, banned)

		banned, err = c.IsBlacklisted(r, "second_player")
		require.NoError(t, err)
		assert.False(t, banned)
		return nil
	})

	// removing an absent entry is a no-op
	for _, target := range []account.ID{"first_player", "other_player"} {
		require.NoError(t, update(s, func(rw storage.ReadWriter) error {
			return c.RemoveFromBlacklist(rw, "creator", target)
		}))
	}

	view(t, s, func(r storage.Reader) error {
		list, err := c.ListBlacklisted(r)
		require.NoError(t, err)
		assert.Equal(t, []account.ID{"third_player"}, list)
		return nil
	})
}

func TestControl_BlacklistRequiresAdmin(t *testing.T) {
	c, s := newInitialized(t)

	err := update(s, func(rw storage.ReadWriter) error {
		return c.AddToBlacklist(rw, "first_player", "second_player")
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, update(s, func(rw storage.ReadWriter) error {
		return c.AddToBlacklist(rw, "creator", "second_player")
	}))

	err = update(s, func(rw storage.ReadWriter) error {
		return c.RemoveFromBlacklist(rw, "second_player", "second_player")
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	view(t, s, func(r storage.Reader) error {
		banned, err := c.IsBlacklisted(r, "second_player")
		assert.True(t, banned)
		return err
	})
}

func TestControl_EmptyBlacklist(t *testing.T) {
	c, s := newInitialized(t)

	view(t, s, func(r storage.Reader) error {
		list, err := c.ListBlacklisted(r)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
		return nil
	})
}

func TestControl_CorruptAdminSlot(t *testing.T) {
	c, s := newInitialized(t)
	require.NoError(t, update(s, func(rw storage.ReadWriter) error {
		return rw.Set(storage.SlotKey(adminSlot), []byte("{not json"))
	}))

	err := s.View(context.Background(), func(r storage.Reader) error {
		_, _, err := c.Admin(r)
		return err
	})
	assert.True(t, storage.IsStorageError(err))
}
