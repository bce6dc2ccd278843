package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/storage"
)

var (
	ErrNoGameFound      = errors.New("no game found")
	ErrGameExists       = errors.New("game already exists")
	errInconsistentGame = errors.New("opponent move and result must be set together")
)

// Namespace is the pair collection sessions are stored under.
const Namespace = "game"

// Session is one game between a host and an opponent
type Session struct {
	Host         account.ID      `json:"host"`
	Opponent     account.ID      `json:"opponent"`
	HostMove     engine.Move     `json:"host_move"`
	OpponentMove *engine.Move    `json:"opp_move"`
	Result       *engine.Outcome `json:"result"`
}

// Resolved reports whether the opponent has responded.
func (s Session) Resolved() bool {
	return s.OpponentMove != nil
}

// Resolve returns a copy of s with the opponent's move and the outcome set.
func (s Session) Resolve(opponentMove engine.Move) Session {
	outcome := engine.Resolve(s.HostMove, opponentMove)
	s.OpponentMove = &opponentMove
	s.Result = &outcome
	return s
}

func (s Session) check() error {
	if (s.OpponentMove == nil) != (s.Result == nil) {
		return errInconsistentGame
	}
	return nil
}

// Store maps (host, opponent) pairs to sessions.
type Store struct {
	namespace string
}

// NewStore creates a session store over the default namespace.
func NewStore() *Store {
	return &Store{namespace: Namespace}
}

// Get returns the session for the exact (host, opponent) pair.
func (st *Store) Get(r storage.Reader, host, opponent account.ID) (*Session, bool, error) {
	raw, ok, err := r.Get(st.key(host, opponent))
	if err != nil || !ok {
		return nil, false, err
	}
	s, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

// Put inserts s under (s.Host, s.Opponent). It fails with ErrGameExists if
// that pair already has a session.
func (st *Store) Put(rw storage.ReadWriter, s Session) error {
	key := st.key(s.Host, s.Opponent)
	_, exists, err := rw.Get(key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s vs %s", ErrGameExists, s.Host, s.Opponent)
	}
	return st.write(rw, key, s)
}

// Delete removes the session for (host, opponent) if there is one.
func (st *Store) Delete(rw storage.ReadWriter, host, opponent account.ID) error {
	return rw.Delete(st.key(host, opponent))
}

// Update replaces the session for (host, opponent) with transform's result.
// An error from transform is returned unchanged and nothing is written.
func (st *Store) Update(rw storage.ReadWriter, host, opponent account.ID, transform func(Session) (Session, error)) error {
	key := st.key(host, opponent)
	raw, ok, err := rw.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoGameFound
	}
	current, err := decode(raw)
	if err != nil {
		return err
	}
	next, err := transform(current)
	if err != nil {
		return err
	}
	// the key is the identity of a session
	next.Host, next.Opponent = current.Host, current.Opponent
	return st.write(rw, key, next)
}

// ScanByHost returns every session hosted by host, ordered by opponent.
func (st *Store) ScanByHost(r storage.Reader, host account.ID) ([]Session, error) {
	return st.scan(r, storage.PairPrefix(st.namespace, host.String()), func(Session) bool { return true })
}

// ScanByOpponent returns every session whose opponent is opponent, in key
// order. It reads every stored session.
func (st *Store) ScanByOpponent(r storage.Reader, opponent account.ID) ([]Session, error) {
	return st.scan(r, storage.CollectionPrefix(st.namespace), func(s Session) bool {
		return s.Opponent == opponent
	})
}

// ScanAll returns every stored session in key order.
func (st *Store) ScanAll(r storage.Reader) ([]Session, error) {
	return st.scan(r, storage.CollectionPrefix(st.namespace), func(Session) bool { return true })
}

func (st *Store) scan(r storage.Reader, prefix []byte, keep func(Session) bool) ([]Session, error) {
	sessions := []Session{}
	err := r.Range(prefix, func(_, value []byte) error {
		s, err := decode(value)
		if err != nil {
			return err
		}
		if keep(s) {
			sessions = append(sessions, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (st *Store) key(host, opponent account.ID) []byte {
	return storage.PairKey(st.namespace, host.String(), opponent.String())
}

func (st *Store) write(rw storage.ReadWriter, key []byte, s Session) error {
	if err := s.check(); err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return storage.Wrap("encode game", err)
	}
	return rw.Set(key, raw)
}

func decode(raw []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, storage.Wrap("decode game", err)
	}
	return s, nil
}
