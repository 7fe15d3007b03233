package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wricardo/mcp-training/rpsrelay/game/engine"
	"github.com/wricardo/mcp-training/rpsrelay/game/session"
	"github.com/wricardo/mcp-training/rpsrelay/metrics"
)

const tracerName = "github.com/wricardo/mcp-training/rpsrelay/game/service"

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions    SessionManager
	broadcaster Broadcaster
	metrics     *metrics.Collector
	tracer      trace.Tracer
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithMetrics records game lifecycle metrics on c
func WithMetrics(c *metrics.Collector) Option {
	return func(s *gameServiceImpl) {
		s.metrics = c
	}
}

// WithTracer overrides the tracer taken from the global provider
func WithTracer(t trace.Tracer) Option {
	return func(s *gameServiceImpl) {
		s.tracer = t
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, broadcaster Broadcaster, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:    sessions,
		broadcaster: broadcaster,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame allocates a game with the caller in slot 1
func (s *gameServiceImpl) CreateGame(ctx context.Context, connID string, req CreateGameRequest) error {
	_, span := s.tracer.Start(ctx, "service.CreateGame")
	defer span.End()

	name, err := validatePlayerName(req.PlayerName)
	if err != nil {
		return s.fail(span, connID, err)
	}

	state, err := s.sessions.Create(connID, name, func(g *engine.Game) error {
		s.broadcaster.JoinRoom(connID, g.ID())
		s.broadcaster.Emit(connID, EventGameCreated, GameCreatedPayload{GameID: g.ID()})
		return nil
	})
	if err != nil {
		return s.fail(span, connID, fmt.Errorf("failed to create game: %w", err))
	}

	span.SetAttributes(attribute.String("game.id", state.ID))
	s.metrics.GameCreated()
	log.Printf("Game created: %s", state.ID)
	return nil
}

// JoinGame seats the caller in slot 2
func (s *gameServiceImpl) JoinGame(ctx context.Context, connID string, req JoinGameRequest) error {
	code := session.NormalizeCode(req.GameID)
	_, span := s.tracer.Start(ctx, "service.JoinGame", trace.WithAttributes(attribute.String("game.id", code)))
	defer span.End()

	err := s.with(code, func(g *engine.Game) error {
		if g.Full() {
			return engine.ErrGameFull
		}
		name, err := validatePlayerName(req.PlayerName)
		if err != nil {
			return err
		}
		if err := g.Join(connID, name); err != nil {
			return err
		}

		s.broadcaster.JoinRoom(connID, code)
		payload := GameStatePayload{GameState: g.State()}
		s.broadcaster.Emit(connID, EventGameJoined, payload)
		s.broadcaster.EmitToRoom(code, EventPlayerJoined, payload, connID)
		return nil
	})
	if err != nil {
		return s.fail(span, connID, err)
	}

	log.Printf("Player joined game: %s", code)
	return nil
}

// MakeChoice records the choice for the slot named in the request
func (s *gameServiceImpl) MakeChoice(ctx context.Context, connID string, req MakeChoiceRequest) error {
	code := session.NormalizeCode(req.GameID)
	_, span := s.tracer.Start(ctx, "service.MakeChoice", trace.WithAttributes(
		attribute.String("game.id", code),
		attribute.Int("player.number", req.PlayerNumber),
	))
	defer span.End()

	err := s.with(code, func(g *engine.Game) error {
		choice, err := validateChoice(req.Choice)
		if err != nil {
			return err
		}
		if err := g.Choose(req.PlayerNumber, choice); err != nil {
			return err
		}

		s.broadcaster.EmitToRoom(code, EventChoiceMade, GameStatePayload{GameState: g.State()}, "")
		return nil
	})
	if err != nil {
		return s.fail(span, connID, err)
	}

	log.Printf("Choice made in game: %s", code)
	return nil
}

// PlayAgain clears both choices and starts the next round.
// A missing game is ignored since resets may race with teardown.
func (s *gameServiceImpl) PlayAgain(ctx context.Context, connID string, req PlayAgainRequest) error {
	code := session.NormalizeCode(req.GameID)
	_, span := s.tracer.Start(ctx, "service.PlayAgain", trace.WithAttributes(attribute.String("game.id", code)))
	defer span.End()

	var round int
	err := s.with(code, func(g *engine.Game) error {
		if err := g.Reset(); err != nil {
			return err
		}
		round = g.Round()
		s.broadcaster.EmitToRoom(code, EventGameReset, nil, "")
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil
		}
		return s.fail(span, connID, err)
	}

	log.Printf("Game reset: %s (round %d)", code, round)
	return nil
}

// LeaveGame deletes the game and tells the remaining player.
// The caller always leaves the room, whether or not the game existed.
func (s *gameServiceImpl) LeaveGame(ctx context.Context, connID string, req LeaveGameRequest) error {
	code := session.NormalizeCode(req.GameID)
	_, span := s.tracer.Start(ctx, "service.LeaveGame", trace.WithAttributes(attribute.String("game.id", code)))
	defer span.End()

	if code != "" {
		deleted := s.sessions.Delete(code, func(state *engine.GameState) {
			s.broadcaster.EmitToRoom(state.ID, EventOpponentLeft, nil, connID)
			s.broadcaster.CloseRoom(state.ID)
		})
		if deleted {
			s.metrics.GameEnded(metrics.ReasonLeft)
			log.Printf("Game deleted: %s", code)
		}
	}

	s.broadcaster.LeaveRoom(connID, code)
	return nil
}

// Disconnect removes every game the connection occupies
func (s *gameServiceImpl) Disconnect(ctx context.Context, connID string) {
	_, span := s.tracer.Start(ctx, "service.Disconnect", trace.WithAttributes(attribute.String("connection.id", connID)))
	defer span.End()

	deleted := s.sessions.DeleteByConnection(connID, func(state *engine.GameState) {
		s.broadcaster.EmitToRoom(state.ID, EventOpponentLeft, nil, connID)
		s.broadcaster.CloseRoom(state.ID)
	})

	for _, code := range deleted {
		s.metrics.GameEnded(metrics.ReasonDisconnect)
		log.Printf("Game cleaned up: %s", code)
	}
	span.SetAttributes(attribute.Int("games.deleted", len(deleted)))
}

// ActiveGames returns the number of live games
func (s *gameServiceImpl) ActiveGames() int {
	return s.sessions.Count()
}

// ListGames returns snapshots of all live games
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*engine.GameState, error) {
	return s.sessions.List(), nil
}

// GetGame returns a snapshot of one game
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID string) (*engine.GameState, error) {
	state, err := s.sessions.Get(session.NormalizeCode(gameID))
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", gameID, err)
	}
	return state, nil
}

// Stats summarizes the live games by phase
func (s *gameServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	games := s.sessions.List()
	stats := &Stats{ActiveGames: len(games)}

	for _, g := range games {
		switch g.Phase {
		case engine.PhaseAwaitingOpponent:
			stats.AwaitingOpponent++
		case engine.PhaseChoosing, engine.PhaseRevealed:
			stats.InProgress++
		}
		stats.TotalRounds += g.Round
	}

	return stats, nil
}

// with runs fn under the lock of the game addressed by code.
// Codes that cannot have been generated are reported as not found.
func (s *gameServiceImpl) with(code string, fn func(*engine.Game) error) error {
	if !session.ValidCode(code) {
		return session.ErrSessionNotFound
	}
	return s.sessions.With(code, fn)
}

// fail reports err to the caller as an error event and on the span
func (s *gameServiceImpl) fail(span trace.Span, connID string, err error) error {
	message := ErrorMessage(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	s.broadcaster.Emit(connID, EventError, ErrorPayload{Message: message})
	return err
}

func validatePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: player name is required", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(name) > engine.MaxPlayerNameLength {
		return "", fmt.Errorf("%w: player name exceeds %d characters", ErrInvalidRequest, engine.MaxPlayerNameLength)
	}
	return name, nil
}

func validateChoice(choice string) (string, error) {
	if strings.TrimSpace(choice) == "" {
		return "", fmt.Errorf("%w: choice is required", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(choice) > engine.MaxChoiceLength {
		return "", fmt.Errorf("%w: choice exceeds %d characters", ErrInvalidRequest, engine.MaxChoiceLength)
	}
	return choice, nil
}
