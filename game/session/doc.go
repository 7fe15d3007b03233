// Package session provides the live game registry for the Rock Paper Scissors relay.
//
// The session package implements:
//   - Thread-safe game storage keyed by game code
//   - Collision-checked 6-character code generation
//   - Per-game locking for read-modify-broadcast sequences
//   - Whole-game deletion, explicit or by connection
//
// Core Types:
//
// Manager is the registry. It owns every engine.Game; callers only reach a
// game through a callback that runs while the game's lock is held, and only
// keep the GameState snapshots that come back.
//
// Game Codes:
//
// Codes are 6 characters drawn uniformly from a 32-symbol alphabet with the
// ambiguous 0, O, 1 and I removed. A code is unique among live games only;
// it may be reissued once its game is deleted. Allocation retries on
// collision and gives up with ErrCodeSpaceExhausted after a bounded number
// of attempts.
//
// Concurrency:
//
// Each game has its own mutex, held from lookup until the callback returns,
// so two choices on the same game never lose a write and a deletion racing a
// mutation is observed either before or after, never during. The registry
// map has a separate RWMutex, held only briefly and never while waiting on a
// game lock.
//
// Usage:
//
//	manager := session.NewManager()
//
//	state, err := manager.Create(connID, "Alice", nil)
//	if err != nil {
//		return err
//	}
//
//	err = manager.With(state.ID, func(g *engine.Game) error {
//		return g.Join(otherConnID, "Bob")
//	})
//
//	manager.DeleteByConnection(connID, func(s *engine.GameState) {
//		// notify the remaining player
//	})
package session
