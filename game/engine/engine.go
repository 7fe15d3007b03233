package engine

import (
	"errors"
	"fmt"
)

var (
	ErrGameFull            = errors.New("game is full")
	ErrInvalidPlayerNumber = errors.New("invalid player number")
	ErrGameTerminated      = errors.New("game terminated")
)

// Game holds the state of one two-player match.
// It is not safe for concurrent use; the session manager serializes access.
type Game struct {
	id      string
	player1 PlayerSlot
	player2 PlayerSlot
	round   int
	phase   Phase
}

// NewGame creates a game with the creator seated in slot 1
func NewGame(id, connID, name string) *Game {
	return &Game{
		id: id,
		player1: PlayerSlot{
			ConnectionID: connID,
			Name:         name,
		},
		round: FirstRound,
		phase: PhaseAwaitingOpponent,
	}
}

// ID returns the game code
func (g *Game) ID() string {
	return g.id
}

// Round returns the current round number
func (g *Game) Round() int {
	return g.round
}

// Phase returns the current lifecycle phase
func (g *Game) Phase() Phase {
	return g.phase
}

// Full reports whether slot 2 is taken
func (g *Game) Full() bool {
	return g.player2.Occupied()
}

// Join seats a second player in slot 2
func (g *Game) Join(connID, name string) error {
	if g.phase == PhaseTerminated {
		return ErrGameTerminated
	}
	if g.player2.Occupied() {
		return ErrGameFull
	}

	g.player2.ConnectionID = connID
	g.player2.Name = name
	g.updatePhase()
	return nil
}

// Choose records a choice for the given player number.
// The caller's identity is not checked against the slot.
func (g *Game) Choose(playerNumber int, choice string) error {
	if g.phase == PhaseTerminated {
		return ErrGameTerminated
	}

	slot, err := g.slot(playerNumber)
	if err != nil {
		return err
	}

	c := choice
	slot.Choice = &c
	g.updatePhase()
	return nil
}

// Reset clears both choices and advances to the next round
func (g *Game) Reset() error {
	if g.phase == PhaseTerminated {
		return ErrGameTerminated
	}

	g.player1.Choice = nil
	g.player2.Choice = nil
	g.round++
	g.updatePhase()
	return nil
}

// Terminate marks the game as finished; later mutations fail
func (g *Game) Terminate() {
	g.phase = PhaseTerminated
}

// HasConnection reports whether either slot is held by connID
func (g *Game) HasConnection(connID string) bool {
	if connID == "" {
		return false
	}
	return g.player1.ConnectionID == connID || g.player2.ConnectionID == connID
}

// State returns a deep copy of the game suitable for serialization
func (g *Game) State() *GameState {
	return &GameState{
		ID:      g.id,
		Player1: copySlot(g.player1),
		Player2: copySlot(g.player2),
		Round:   g.round,
		Phase:   g.phase,
	}
}

func (g *Game) slot(playerNumber int) (*PlayerSlot, error) {
	switch playerNumber {
	case PlayerOne:
		return &g.player1, nil
	case PlayerTwo:
		return &g.player2, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayerNumber, playerNumber)
	}
}

// updatePhase derives the phase from seating and choices after a mutation
func (g *Game) updatePhase() {
	switch {
	case g.phase == PhaseTerminated:
	case !g.player2.Occupied():
		g.phase = PhaseAwaitingOpponent
	case g.player1.Choice != nil && g.player2.Choice != nil:
		g.phase = PhaseRevealed
	default:
		g.phase = PhaseChoosing
	}
}

func copySlot(p PlayerSlot) PlayerSlot {
	out := PlayerSlot{
		ConnectionID: p.ConnectionID,
		Name:         p.Name,
	}
	if p.Choice != nil {
		c := *p.Choice
		out.Choice = &c
	}
	return out
}
