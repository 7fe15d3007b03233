package service

import (
	"context"

	"github.com/wricardo/mcp-training/rpsrelay/game/engine"
)

// GameService defines the relay protocol operations
type GameService interface {
	// Protocol operations, one per inbound event
	CreateGame(ctx context.Context, connID string, req CreateGameRequest) error
	JoinGame(ctx context.Context, connID string, req JoinGameRequest) error
	MakeChoice(ctx context.Context, connID string, req MakeChoiceRequest) error
	PlayAgain(ctx context.Context, connID string, req PlayAgainRequest) error
	LeaveGame(ctx context.Context, connID string, req LeaveGameRequest) error

	// Disconnect cleans up every game held by a lost connection
	Disconnect(ctx context.Context, connID string)

	// Inspection
	ActiveGames() int
	ListGames(ctx context.Context) ([]*engine.GameState, error)
	GetGame(ctx context.Context, gameID string) (*engine.GameState, error)
	Stats(ctx context.Context) (*Stats, error)
}

// SessionManager defines game registry operations
type SessionManager interface {
	Create(connID, name string, fn func(*engine.Game) error) (*engine.GameState, error)
	With(code string, fn func(*engine.Game) error) error
	Delete(code string, fn func(*engine.GameState)) bool
	DeleteByConnection(connID string, fn func(*engine.GameState)) []string
	Get(code string) (*engine.GameState, error)
	List() []*engine.GameState
	Count() int
}

// Broadcaster delivers outbound events to connections and rooms.
// Implementations must not block and must not call back into the service.
type Broadcaster interface {
	// Emit sends an event to a single connection
	Emit(connID, event string, data any)

	// EmitToRoom sends an event to every member of room except the
	// connection named by except (empty for all members)
	EmitToRoom(room, event string, data any, except string)

	// JoinRoom adds a connection to a room
	JoinRoom(connID, room string)

	// LeaveRoom removes a connection from a room
	LeaveRoom(connID, room string)

	// CloseRoom removes every member from a room
	CloseRoom(room string)
}
