package service

import (
	"errors"
	"fmt"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/access"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/game/session"
	"github.com/wricardo/rps-game/storage"
)

// GameEngine runs the game lifecycle: a host starts a game against an
// opponent, the opponent responds, and the resolved game is removed.
type GameEngine struct {
	access    *access.Control
	games     *session.Store
	validator account.Validator
}

// NewGameEngine wires an engine over the given access controller and session store.
func NewGameEngine(ac *access.Control, games *session.Store, validator account.Validator) *GameEngine {
	if validator == nil {
		validator = account.DefaultValidator
	}
	return &GameEngine{access: ac, games: games, validator: validator}
}

// Start opens a game hosted by caller against opponent.
func (e *GameEngine) Start(rw storage.ReadWriter, caller account.ID, opponent string, hostMove engine.Move) (*session.Session, error) {
	opp, err := e.validator.Validate(opponent)
	if err != nil {
		return nil, err
	}
	if !hostMove.Valid() {
		return nil, fmt.Errorf("%w: %q", engine.ErrInvalidMove, hostMove)
	}

	banned, err := e.access.IsBlacklisted(rw, caller)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, ErrHostAddressBlacklisted
	}

	_, exists, err := e.games.Get(rw, caller, opp)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrOnlyOneGameAtATime
	}

	game := session.Session{Host: caller, Opponent: opp, HostMove: hostMove}
	if err := e.games.Put(rw, game); err != nil {
		if errors.Is(err, session.ErrGameExists) {
			return nil, ErrOnlyOneGameAtATime
		}
		return nil, err
	}
	return &game, nil
}

// Respond plays the opponent's move, resolves the game and removes it. The
// caller must be the opponent named in the request.
func (e *GameEngine) Respond(rw storage.ReadWriter, caller account.ID, host, opponent string, opponentMove engine.Move) (*session.Session, error) {
	if caller.String() != opponent {
		return nil, ErrUnauthorized
	}
	h, err := e.validator.Validate(host)
	if err != nil {
		return nil, err
	}
	opp, err := e.validator.Validate(opponent)
	if err != nil {
		return nil, err
	}
	if !opponentMove.Valid() {
		return nil, fmt.Errorf("%w: %q", engine.ErrInvalidMove, opponentMove)
	}

	var resolved session.Session
	err = e.games.Update(rw, h, opp, func(current session.Session) (session.Session, error) {
		resolved = current.Resolve(opponentMove)
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.games.Delete(rw, h, opp); err != nil {
		return nil, err
	}
	return &resolved, nil
}
