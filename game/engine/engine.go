package engine

// beats maps each move to the one move it defeats
var beats = map[Move]Move{
	Rock:     Scissors,
	Paper:    Rock,
	Scissors: Paper,
}

// Beats reports whether m defeats other.
func (m Move) Beats(other Move) bool {
	return beats[m] == other
}

// Resolve decides a game from the host's and the opponent's move. Both moves
// must be valid.
func Resolve(host, opponent Move) Outcome {
	switch {
	case host == opponent:
		return Tie
	case host.Beats(opponent):
		return HostWins
	default:
		return OpponentWins
	}
}
