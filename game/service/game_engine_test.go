package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/access"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/game/session"
	"github.com/wricardo/rps-game/storage"
	"github.com/wricardo/rps-game/storage/memory"
)

func newEngine(t *testing.T) (*GameEngine, storage.Store) {
	t.Helper()
	ac := access.New()
	s := memory.New()
	require.NoError(t, s.Update(context.Background(), func(rw storage.ReadWriter) error {
		return ac.Initialize(rw, "creator")
	}))
	return NewGameEngine(ac, session.NewStore(), nil), s
}

func TestGameEngine_RespondChecksCallerFirst(t *testing.T) {
	e, s := newEngine(t)

	tests := []struct {
		name     string
		caller   account.ID
		host     string
		opponent string
		wantErr  error
	}{
		{"caller is not the opponent, even if malformed", "first_player", "creator", "NOT VALID", ErrUnauthorized},
		{"malformed host", "first_player", "X", "first_player", account.ErrInvalidAddress},
		{"no such game", "first_player", "creator", "first_player", session.ErrNoGameFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
				_, err := e.Respond(rw, tt.caller, tt.host, tt.opponent, engine.Rock)
				return err
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGameEngine_StartChecksOpponentBeforeBlacklist(t *testing.T) {
	e, s := newEngine(t)
	require.NoError(t, s.Update(context.Background(), func(rw storage.ReadWriter) error {
		return e.access.AddToBlacklist(rw, "creator", "host_black_listed")
	}))

	err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
		_, err := e.Start(rw, "host_black_listed", "??", engine.Rock)
		return err
	})
	assert.ErrorIs(t, err, account.ErrInvalidAddress)

	err = s.Update(context.Background(), func(rw storage.ReadWriter) error {
		_, err := e.Start(rw, "host_black_listed", "first_player", engine.Rock)
		return err
	})
	assert.ErrorIs(t, err, ErrHostAddressBlacklisted)
}

func TestGameEngine_RespondReturnsResolvedGame(t *testing.T) {
	e, s := newEngine(t)

	err := s.Update(context.Background(), func(rw storage.ReadWriter) error {
		if _, err := e.Start(rw, "creator", "first_player", engine.Scissors); err != nil {
			return err
		}
		game, err := e.Respond(rw, "first_player", "creator", "first_player", engine.Paper)
		if err != nil {
			return err
		}
		assert.True(t, game.Resolved())
		assert.Equal(t, engine.Paper, *game.OpponentMove)
		assert.Equal(t, engine.HostWins, *game.Result)

		_, ok, err := e.games.Get(rw, "creator", "first_player")
		assert.False(t, ok)
		return err
	})
	require.NoError(t, err)
}
