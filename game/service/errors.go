package service

import (
	"errors"

	"github.com/wricardo/mcp-training/rpsrelay/game/engine"
	"github.com/wricardo/mcp-training/rpsrelay/game/session"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownEvent   = errors.New("unknown event")
)

// Wire messages for the error event
const (
	MessageGameNotFound        = "Game not found"
	MessageGameFull            = "Game is full"
	MessageCodeSpaceExhausted  = "Unable to create game, try again"
	MessageInvalidPlayerNumber = "Invalid player number"
	MessageInvalidRequest      = "Invalid request"
	MessageUnknownEvent        = "Unknown event"
	MessageInternal            = "Internal error"
)

// ErrorMessage maps an operation error to the message sent to the client
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, engine.ErrGameTerminated):
		return MessageGameNotFound
	case errors.Is(err, engine.ErrGameFull):
		return MessageGameFull
	case errors.Is(err, session.ErrCodeSpaceExhausted):
		return MessageCodeSpaceExhausted
	case errors.Is(err, engine.ErrInvalidPlayerNumber):
		return MessageInvalidPlayerNumber
	case errors.Is(err, ErrInvalidRequest):
		return MessageInvalidRequest
	case errors.Is(err, ErrUnknownEvent):
		return MessageUnknownEvent
	default:
		return MessageInternal
	}
}
