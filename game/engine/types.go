package engine

import "encoding/json"

// Phase represents where a game is in its lifecycle
type Phase string

const (
	// PhaseAwaitingOpponent means slot 2 has not been filled yet
	PhaseAwaitingOpponent Phase = "awaiting_opponent"
	// PhaseChoosing means both players are seated and at least one choice is missing
	PhaseChoosing Phase = "choosing"
	// PhaseRevealed means both seated players have chosen for the current round
	PhaseRevealed Phase = "revealed"
	// PhaseTerminated means the game was removed from the registry
	PhaseTerminated Phase = "terminated"

	// Player numbers used on the wire
	PlayerOne = 1
	PlayerTwo = 2

	// Validation constants
	MaxPlayerNameLength = 32
	MaxChoiceLength     = 32
	FirstRound          = 1
)

// PlayerSlot is one of the two seats in a game
type PlayerSlot struct {
	ConnectionID string  `json:"socketId"`
	Name         string  `json:"name"`
	Choice       *string `json:"choice"`
}

// Occupied reports whether a connection holds the slot
func (p PlayerSlot) Occupied() bool {
	return p.ConnectionID != ""
}

// MarshalJSON writes socketId and name as null while the slot is empty
func (p PlayerSlot) MarshalJSON() ([]byte, error) {
	type wireSlot struct {
		ConnectionID *string `json:"socketId"`
		Name         *string `json:"name"`
		Choice       *string `json:"choice"`
	}

	w := wireSlot{Choice: p.Choice}
	if p.Occupied() {
		w.ConnectionID = &p.ConnectionID
		w.Name = &p.Name
	}
	return json.Marshal(w)
}

// GameState is the serializable snapshot sent to clients as gameState
type GameState struct {
	ID      string     `json:"id"`
	Player1 PlayerSlot `json:"player1"`
	Player2 PlayerSlot `json:"player2"`
	Round   int        `json:"round"`
	Phase   Phase      `json:"phase"`
}

// Occupants returns the connection IDs of the filled slots
func (s *GameState) Occupants() []string {
	ids := make([]string, 0, 2)
	if s.Player1.Occupied() {
		ids = append(ids, s.Player1.ConnectionID)
	}
	if s.Player2.Occupied() {
		ids = append(ids, s.Player2.ConnectionID)
	}
	return ids
}
