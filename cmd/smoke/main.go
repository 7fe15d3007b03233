// Command smoke plays scripted games against a running relay server.
//
// Two WebSocket clients create and join a game, play a number of rounds,
// reset between them, and finally one leaves. Every reply is checked against
// the protocol; the first mismatch fails the run with a non-zero exit.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"
)

var choices = []string{"rock", "paper", "scissors"}

// beats maps a choice to the one it defeats
var beats = map[string]string{
	"rock":     "scissors",
	"paper":    "rock",
	"scissors": "paper",
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type slot struct {
	SocketID string  `json:"socketId"`
	Name     string  `json:"name"`
	Choice   *string `json:"choice"`
}

type gameState struct {
	ID      string `json:"id"`
	Player1 slot   `json:"player1"`
	Player2 slot   `json:"player2"`
	Round   int    `json:"round"`
}

// player is one scripted WebSocket client
type player struct {
	name    string
	conn    *websocket.Conn
	timeout time.Duration
}

func dialPlayer(ctx context.Context, url, name string, timeout time.Duration) (*player, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: dial %s: %w", name, url, err)
	}
	return &player{name: name, conn: conn, timeout: timeout}, nil
}

func (p *player) send(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := p.conn.WriteJSON(envelope{Event: event, Data: raw}); err != nil {
		return fmt.Errorf("%s: send %s: %w", p.name, event, err)
	}
	return nil
}

// expect reads the next frame and fails unless it is event
func (p *player) expect(event string) (json.RawMessage, error) {
	p.conn.SetReadDeadline(time.Now().Add(p.timeout))
	var msg envelope
	if err := p.conn.ReadJSON(&msg); err != nil {
		return nil, fmt.Errorf("%s: waiting for %s: %w", p.name, event, err)
	}
	if msg.Event != event {
		return nil, fmt.Errorf("%s: expected %s, got %s %s", p.name, event, msg.Event, msg.Data)
	}
	return msg.Data, nil
}

func (p *player) expectState(event string) (*gameState, error) {
	data, err := p.expect(event)
	if err != nil {
		return nil, err
	}
	var payload struct {
		GameState *gameState `json:"gameState"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.GameState == nil {
		return nil, fmt.Errorf("%s: bad %s payload %s", p.name, event, data)
	}
	return payload.GameState, nil
}

func (p *player) close() {
	p.conn.Close()
}

// outcome describes a revealed round from player 1's side
func outcome(c1, c2 string) string {
	switch {
	case c1 == c2:
		return "draw"
	case beats[c1] == c2:
		return "player 1 wins"
	default:
		return "player 2 wins"
	}
}

// runSmoke plays rounds between two clients and verifies every reply
func runSmoke(ctx context.Context, url string, rounds int, timeout time.Duration) error {
	alice, err := dialPlayer(ctx, url, "Alice", timeout)
	if err != nil {
		return err
	}
	defer alice.close()

	bob, err := dialPlayer(ctx, url, "Bob", timeout)
	if err != nil {
		return err
	}
	defer bob.close()

	if err := alice.send("createGame", map[string]string{"playerName": alice.name}); err != nil {
		return err
	}
	data, err := alice.expect("gameCreated")
	if err != nil {
		return err
	}
	var created struct {
		GameID string `json:"gameId"`
	}
	if err := json.Unmarshal(data, &created); err != nil || len(created.GameID) != 6 {
		return fmt.Errorf("bad gameCreated payload %s", data)
	}
	code := created.GameID
	log.Printf("Game created: %s", code)

	if err := bob.send("joinGame", map[string]string{"gameId": code, "playerName": bob.name}); err != nil {
		return err
	}
	joined, err := bob.expectState("gameJoined")
	if err != nil {
		return err
	}
	if joined.Player1.Name != alice.name || joined.Player2.Name != bob.name {
		return fmt.Errorf("unexpected players after join: %q vs %q", joined.Player1.Name, joined.Player2.Name)
	}
	if _, err := alice.expectState("playerJoined"); err != nil {
		return err
	}
	log.Printf("Player joined game: %s", code)

	for round := 1; round <= rounds; round++ {
		c1 := choices[round%len(choices)]
		c2 := choices[(round*2)%len(choices)]

		if err := alice.send("makeChoice", map[string]interface{}{"gameId": code, "playerNumber": 1, "choice": c1}); err != nil {
			return err
		}
		for _, p := range []*player{alice, bob} {
			if _, err := p.expectState("choiceMade"); err != nil {
				return err
			}
		}

		if err := bob.send("makeChoice", map[string]interface{}{"gameId": code, "playerNumber": 2, "choice": c2}); err != nil {
			return err
		}
		var final *gameState
		for _, p := range []*player{alice, bob} {
			if final, err = p.expectState("choiceMade"); err != nil {
				return err
			}
		}
		if final.Round != round || final.Player1.Choice == nil || final.Player2.Choice == nil ||
			*final.Player1.Choice != c1 || *final.Player2.Choice != c2 {
			return fmt.Errorf("round %d: unexpected state %+v", round, final)
		}
		log.Printf("Round %d: %s %s vs %s %s, %s", round, alice.name, c1, bob.name, c2, outcome(c1, c2))

		if round == rounds {
			break
		}
		if err := alice.send("playAgain", map[string]string{"gameId": code}); err != nil {
			return err
		}
		for _, p := range []*player{alice, bob} {
			if _, err := p.expect("gameReset"); err != nil {
				return err
			}
		}
	}

	if err := bob.send("leaveGame", map[string]string{"gameId": code}); err != nil {
		return err
	}
	if _, err := alice.expect("opponentLeft"); err != nil {
		return err
	}

	// The code is gone once a player leaves
	if err := bob.send("joinGame", map[string]string{"gameId": code, "playerName": bob.name}); err != nil {
		return err
	}
	data, err = bob.expect("error")
	if err != nil {
		return err
	}
	var failure struct {
		Message string `json:"message"`
	}
	json.Unmarshal(data, &failure)
	if failure.Message != "Game not found" {
		return fmt.Errorf("expected Game not found after leave, got %q", failure.Message)
	}

	log.Printf("Smoke test passed: %d rounds on %s", rounds, code)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "smoke",
		Usage: "Play scripted games against a running relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "WebSocket endpoint", Value: "ws://localhost:3000/ws"},
			&cli.IntFlag{Name: "rounds", Usage: "Rounds to play", Value: 3},
			&cli.DurationFlag{Name: "timeout", Usage: "Per-reply timeout", Value: 5 * time.Second},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rounds := cmd.Int("rounds")
			if rounds < 1 {
				return fmt.Errorf("rounds must be at least 1, got %d", rounds)
			}
			return runSmoke(ctx, cmd.String("url"), rounds, cmd.Duration("timeout"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
