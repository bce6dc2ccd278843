// Package engine holds the rules of Rock-Paper-Scissors.
//
// The package has no state and no dependencies. It defines:
//   - Move, one of Rock, Paper or Scissors
//   - Outcome, one of HostWins, OpponentWins or Tie
//   - Resolve, the 3x3 decision table between a host move and an opponent move
//
// Core Types:
//
// Moves and outcomes are string types whose values are the names used on the
// wire ("Rock", "HostWins", ...). Their JSON decoders reject anything else, so
// a decoded value is always one of the constants. ParseMove is the lenient
// entry point for human input and accepts any letter case.
//
// Usage:
//
//	host, err := engine.ParseMove("rock")
//	if err != nil {
//		return err
//	}
//
//	outcome := engine.Resolve(host, engine.Scissors)
//	fmt.Println(outcome.Label()) // Host Won
//
// Game Rules:
//
// Rock beats Scissors, Paper beats Rock, Scissors beats Paper. Equal moves
// tie. Every pair of moves maps to exactly one outcome.
package engine
