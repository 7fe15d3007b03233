package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPhaseConstants(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseAwaitingOpponent, "awaiting_opponent"},
		{PhaseChoosing, "choosing"},
		{PhaseRevealed, "revealed"},
		{PhaseTerminated, "terminated"},
	}

	for _, test := range tests {
		if string(test.phase) != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, string(test.phase))
		}
	}
}

func TestGameStateJSON(t *testing.T) {
	game := NewGame("XYZ789", "conn-1", "Alice")
	game.Choose(PlayerOne, "rock")

	data, err := json.Marshal(game.State())
	if err != nil {
		t.Fatalf("Failed to marshal state: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal state: %v", err)
	}

	for _, key := range []string{"id", "player1", "player2", "round", "phase"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected key %q in gameState", key)
		}
	}

	p1 := raw["player1"].(map[string]any)
	if p1["socketId"] != "conn-1" || p1["name"] != "Alice" || p1["choice"] != "rock" {
		t.Errorf("Unexpected player1 encoding: %v", p1)
	}

	p2 := raw["player2"].(map[string]any)
	if p2["choice"] != nil {
		t.Errorf("Expected player2 choice to encode as null, got %v", p2["choice"])
	}
	for _, key := range []string{"socketId", "name", "choice"} {
		v, ok := p2[key]
		if !ok {
			t.Errorf("Expected key %q in empty player2", key)
		}
		if v != nil {
			t.Errorf("Expected empty player2 %s to encode as null, got %v", key, v)
		}
	}
}

func TestPlayerSlotJSON_EmptySlotRoundTrip(t *testing.T) {
	data, err := json.Marshal(NewGame("ABC234", "c1", "Alice").State())
	if err != nil {
		t.Fatalf("Failed to marshal state: %v", err)
	}

	want := `"player2":{"socketId":null,"name":null,"choice":null}`
	if !strings.Contains(string(data), want) {
		t.Errorf("Expected %s in %s", want, data)
	}

	var decoded GameState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal state: %v", err)
	}
	if decoded.Player2.Occupied() || decoded.Player2.Name != "" || decoded.Player2.Choice != nil {
		t.Errorf("Expected empty player2 after decode, got %+v", decoded.Player2)
	}
	if decoded.Player1.ConnectionID != "c1" || decoded.Player1.Name != "Alice" {
		t.Errorf("Unexpected player1 after decode: %+v", decoded.Player1)
	}
}

func TestGameState_Occupants(t *testing.T) {
	game := NewGame("XYZ789", "conn-1", "Alice")
	if got := game.State().Occupants(); len(got) != 1 || got[0] != "conn-1" {
		t.Errorf("Expected [conn-1], got %v", got)
	}

	game.Join("conn-2", "Bob")
	if got := game.State().Occupants(); len(got) != 2 || got[1] != "conn-2" {
		t.Errorf("Expected [conn-1 conn-2], got %v", got)
	}
}
