package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMove    = errors.New("invalid move")
	ErrInvalidOutcome = errors.New("invalid outcome")
)

// Move is a hand played by one side of a game
type Move string

const (
	Rock     Move = "Rock"
	Paper    Move = "Paper"
	Scissors Move = "Scissors"
)

// Moves lists every valid move.
var Moves = []Move{Rock, Paper, Scissors}

// Valid reports whether m is one of the three moves.
func (m Move) Valid() bool {
	switch m {
	case Rock, Paper, Scissors:
		return true
	}
	return false
}

func (m Move) String() string {
	return string(m)
}

// ParseMove accepts a move name in any letter case.
func ParseMove(s string) (Move, error) {
	for _, m := range Moves {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMove, s)
}

func (m *Move) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMove, data)
	}
	if !Move(s).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	*m = Move(s)
	return nil
}

// Outcome is the resolved result of a game
type Outcome string

const (
	HostWins     Outcome = "HostWins"
	OpponentWins Outcome = "OpponentWins"
	Tie          Outcome = "Tie"
)

// Valid reports whether o is one of the three outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case HostWins, OpponentWins, Tie:
		return true
	}
	return false
}

func (o Outcome) String() string {
	return string(o)
}

// Label is the human-readable form reported in the "result" attribute.
func (o Outcome) Label() string {
	switch o {
	case HostWins:
		return "Host Won"
	case OpponentWins:
		return "Opponent Won"
	case Tie:
		return "Tie"
	}
	return ""
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOutcome, data)
	}
	if !Outcome(s).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
	*o = Outcome(s)
	return nil
}
