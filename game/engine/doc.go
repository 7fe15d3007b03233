// Package engine provides the match state for the Rock Paper Scissors relay.
//
// The engine package implements:
//   - Two-seat games with an asymmetric creator and joiner
//   - Per-round choice tracking and round resets
//   - An explicit lifecycle phase for every game
//   - Deep-copied snapshots for broadcasting
//
// Core Types:
//
// Game holds one match. GameState is the snapshot that is serialized to
// clients as "gameState", and PlayerSlot is one of its two seats.
//
// Lifecycle:
//
//	awaiting_opponent -> choosing <-> revealed -> ... -> terminated
//
// A game enters "choosing" once slot 2 is filled and "revealed" once both
// seated players have a choice. Reset clears the choices, bumps the round and
// returns to "choosing". Terminate is final.
//
// Usage:
//
//	game := engine.NewGame("ABC234", connID, "Alice")
//	if err := game.Join(otherConnID, "Bob"); err != nil {
//		return err
//	}
//	game.Choose(engine.PlayerOne, "rock")
//	state := game.State()
//
// The engine never decides who won a round; clients compare the choices.
//
// Concurrency:
//
// Game is not safe for concurrent use. The session manager holds a
// per-game lock around every call.
package engine
