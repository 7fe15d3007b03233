package service

import (
	"github.com/wricardo/mcp-training/rpsrelay/game/engine"
)

// Inbound event names
const (
	EventCreateGame = "createGame"
	EventJoinGame   = "joinGame"
	EventMakeChoice = "makeChoice"
	EventPlayAgain  = "playAgain"
	EventLeaveGame  = "leaveGame"
)

// Outbound event names
const (
	EventGameCreated  = "gameCreated"
	EventGameJoined   = "gameJoined"
	EventPlayerJoined = "playerJoined"
	EventChoiceMade   = "choiceMade"
	EventGameReset    = "gameReset"
	EventOpponentLeft = "opponentLeft"
	EventError        = "error"
)

// CreateGameRequest is the createGame payload
type CreateGameRequest struct {
	PlayerName string `json:"playerName"`
}

// JoinGameRequest is the joinGame payload
type JoinGameRequest struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

// MakeChoiceRequest is the makeChoice payload
type MakeChoiceRequest struct {
	GameID       string `json:"gameId"`
	PlayerNumber int    `json:"playerNumber"`
	Choice       string `json:"choice"`
}

// PlayAgainRequest is the playAgain payload
type PlayAgainRequest struct {
	GameID string `json:"gameId"`
}

// LeaveGameRequest is the leaveGame payload
type LeaveGameRequest struct {
	GameID string `json:"gameId"`
}

// GameCreatedPayload is sent to the creator of a game
type GameCreatedPayload struct {
	GameID string `json:"gameId"`
}

// GameStatePayload carries a snapshot for gameJoined, playerJoined and choiceMade
type GameStatePayload struct {
	GameState *engine.GameState `json:"gameState"`
}

// ErrorPayload is the error event body
type ErrorPayload struct {
	Message string `json:"message"`
}

// Stats summarizes the registry
type Stats struct {
	ActiveGames      int `json:"active_games"`
	AwaitingOpponent int `json:"awaiting_opponent"`
	InProgress       int `json:"in_progress"`
	TotalRounds      int `json:"total_rounds"`
}
