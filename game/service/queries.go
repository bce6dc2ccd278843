package service

import (
	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/access"
	"github.com/wricardo/rps-game/game/session"
	"github.com/wricardo/rps-game/storage"
)

// Queries holds the read-only projections over the game state.
type Queries struct {
	access    *access.Control
	games     *session.Store
	validator account.Validator
}

// NewQueries wires the read side over the given access controller and session store.
func NewQueries(ac *access.Control, games *session.Store, validator account.Validator) *Queries {
	if validator == nil {
		validator = account.DefaultValidator
	}
	return &Queries{access: ac, games: games, validator: validator}
}

// Owner returns the account recorded at instantiation.
func (q *Queries) Owner(r storage.Reader) (account.ID, error) {
	owner, ok, err := q.access.Owner(r)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotInstantiated
	}
	return owner, nil
}

// Admin returns the current admin, or nil once the role has been given up.
func (q *Queries) Admin(r storage.Reader) (*account.ID, error) {
	admin, ok, err := q.access.Admin(r)
	if err != nil || !ok {
		return nil, err
	}
	return &admin, nil
}

// Game returns the open game between host and opponent.
func (q *Queries) Game(r storage.Reader, host, opponent string) (*session.Session, error) {
	h, err := q.validator.Validate(host)
	if err != nil {
		return nil, err
	}
	opp, err := q.validator.Validate(opponent)
	if err != nil {
		return nil, err
	}
	game, ok, err := q.games.Get(r, h, opp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// GamesByHost lists the games hosted by host, ordered by opponent.
func (q *Queries) GamesByHost(r storage.Reader, host string) ([]session.Session, error) {
	h, err := q.validator.Validate(host)
	if err != nil {
		return nil, err
	}
	return q.games.ScanByHost(r, h)
}

// GamesByOpponent lists the games in which opponent has yet to respond.
func (q *Queries) GamesByOpponent(r storage.Reader, opponent string) ([]session.Session, error) {
	opp, err := q.validator.Validate(opponent)
	if err != nil {
		return nil, err
	}
	return q.games.ScanByOpponent(r, opp)
}

// Blacklist lists the accounts barred from hosting.
func (q *Queries) Blacklist(r storage.Reader) ([]account.ID, error) {
	return q.access.ListBlacklisted(r)
}

// AllGames lists every open game in key order.
func (q *Queries) AllGames(r storage.Reader) ([]session.Session, error) {
	return q.games.ScanAll(r)
}
