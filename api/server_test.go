package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wricardo/mcp-training/rpsrelay/game/engine"
	"github.com/wricardo/mcp-training/rpsrelay/game/service"
	"github.com/wricardo/mcp-training/rpsrelay/game/session"
	"github.com/wricardo/mcp-training/rpsrelay/metrics"
	"github.com/wricardo/mcp-training/rpsrelay/transport/mcp"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Inspection
	ActiveGamesFunc func() int
	ListGamesFunc   func(ctx context.Context) ([]*engine.GameState, error)
	GetGameFunc     func(ctx context.Context, gameID string) (*engine.GameState, error)
	StatsFunc       func(ctx context.Context) (*service.Stats, error)
}

// Protocol operations are not reachable over HTTP
func (m *MockGameService) CreateGame(ctx context.Context, connID string, req service.CreateGameRequest) error {
	return nil
}

func (m *MockGameService) JoinGame(ctx context.Context, connID string, req service.JoinGameRequest) error {
	return nil
}

func (m *MockGameService) MakeChoice(ctx context.Context, connID string, req service.MakeChoiceRequest) error {
	return nil
}

func (m *MockGameService) PlayAgain(ctx context.Context, connID string, req service.PlayAgainRequest) error {
	return nil
}

func (m *MockGameService) LeaveGame(ctx context.Context, connID string, req service.LeaveGameRequest) error {
	return nil
}

func (m *MockGameService) Disconnect(ctx context.Context, connID string) {}

// Inspection
func (m *MockGameService) ActiveGames() int {
	if m.ActiveGamesFunc != nil {
		return m.ActiveGamesFunc()
	}
	return 0
}

func (m *MockGameService) ListGames(ctx context.Context) ([]*engine.GameState, error) {
	if m.ListGamesFunc != nil {
		return m.ListGamesFunc(ctx)
	}
	return []*engine.GameState{}, nil
}

func (m *MockGameService) GetGame(ctx context.Context, gameID string) (*engine.GameState, error) {
	if m.GetGameFunc != nil {
		return m.GetGameFunc(ctx, gameID)
	}
	return &engine.GameState{ID: gameID, Round: 1, Phase: engine.PhaseAwaitingOpponent}, nil
}

func (m *MockGameService) Stats(ctx context.Context) (*service.Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &service.Stats{}, nil
}

// mockHub records WebSocket requests
type mockHub struct {
	served      int
	connections int
}

func (h *mockHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.served++
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (h *mockHub) ConnectionCount() int {
	return h.connections
}

// Test helpers
func setupTestServer(mockService *MockGameService, opts ...Option) (*Server, *mockHub) {
	hub := &mockHub{}
	return NewServer(mockService, hub, opts...), hub
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	mockService := &MockGameService{
		ActiveGamesFunc: func() int { return 3 },
	}
	server, _ := setupTestServer(mockService)

	w := doRequest(server, "GET", "/")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain, got %s", ct)
	}
	expected := "Rock Paper Scissors Server is running! Active games: 3"
	if w.Body.String() != expected {
		t.Errorf("Expected %q, got %q", expected, w.Body.String())
	}
}

func TestListGames(t *testing.T) {
	tests := []struct {
		name          string
		mockFunc      func(ctx context.Context) ([]*engine.GameState, error)
		expectedCode  int
		expectedCount int
	}{
		{
			name: "multiple games",
			mockFunc: func(ctx context.Context) ([]*engine.GameState, error) {
				return []*engine.GameState{
					{ID: "ABC234", Round: 1, Phase: engine.PhaseAwaitingOpponent},
					{ID: "XYZ789", Round: 2, Phase: engine.PhaseChoosing},
				}, nil
			},
			expectedCode:  http.StatusOK,
			expectedCount: 2,
		},
		{
			name: "nil list encodes as empty",
			mockFunc: func(ctx context.Context) ([]*engine.GameState, error) {
				return nil, nil
			},
			expectedCode:  http.StatusOK,
			expectedCount: 0,
		},
		{
			name: "service error",
			mockFunc: func(ctx context.Context) ([]*engine.GameState, error) {
				return nil, errors.New("boom")
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := setupTestServer(&MockGameService{ListGamesFunc: tt.mockFunc})

			w := doRequest(server, "GET", "/api/games")

			if w.Code != tt.expectedCode {
				t.Fatalf("Expected status %d, got %d", tt.expectedCode, w.Code)
			}
			if tt.expectedCode != http.StatusOK {
				return
			}

			var raw map[string]json.RawMessage
			parseResponse(t, w, &raw)
			if string(raw["games"]) == "null" {
				t.Error("Expected games to be an array, got null")
			}

			var list mcp.GameList
			json.Unmarshal(raw["games"], &list.Games)
			json.Unmarshal(raw["count"], &list.Count)
			if list.Count != tt.expectedCount || len(list.Games) != tt.expectedCount {
				t.Errorf("Expected %d games, got count=%d len=%d", tt.expectedCount, list.Count, len(list.Games))
			}
		})
	}
}

func TestGetGame(t *testing.T) {
	tests := []struct {
		name         string
		gameID       string
		mockFunc     func(ctx context.Context, gameID string) (*engine.GameState, error)
		expectedCode int
		expectedBody string
	}{
		{
			name:   "existing game",
			gameID: "ABC234",
			mockFunc: func(ctx context.Context, gameID string) (*engine.GameState, error) {
				return &engine.GameState{
					ID:      gameID,
					Player1: engine.PlayerSlot{ConnectionID: "conn-1", Name: "Alice"},
					Round:   1,
					Phase:   engine.PhaseAwaitingOpponent,
				}, nil
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "missing game",
			gameID: "ZZZZZZ",
			mockFunc: func(ctx context.Context, gameID string) (*engine.GameState, error) {
				return nil, fmt.Errorf("game %s: %w", gameID, session.ErrSessionNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: service.MessageGameNotFound,
		},
		{
			name:   "service error",
			gameID: "ABC234",
			mockFunc: func(ctx context.Context, gameID string) (*engine.GameState, error) {
				return nil, errors.New("boom")
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := setupTestServer(&MockGameService{GetGameFunc: tt.mockFunc})

			w := doRequest(server, "GET", "/api/games/"+tt.gameID)

			if w.Code != tt.expectedCode {
				t.Fatalf("Expected status %d, got %d", tt.expectedCode, w.Code)
			}

			if tt.expectedCode == http.StatusOK {
				var state engine.GameState
				parseResponse(t, w, &state)
				if state.ID != tt.gameID || state.Player1.Name != "Alice" {
					t.Errorf("Unexpected game state: %+v", state)
				}
				return
			}

			var errResp map[string]string
			parseResponse(t, w, &errResp)
			if errResp["error"] != tt.expectedBody {
				t.Errorf("Expected error %q, got %q", tt.expectedBody, errResp["error"])
			}
		})
	}
}

func TestStats(t *testing.T) {
	mockService := &MockGameService{
		StatsFunc: func(ctx context.Context) (*service.Stats, error) {
			return &service.Stats{ActiveGames: 2, AwaitingOpponent: 1, InProgress: 1, TotalRounds: 5}, nil
		},
	}
	server, hub := setupTestServer(mockService)
	hub.connections = 3

	w := doRequest(server, "GET", "/api/stats")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var stats mcp.ServerStats
	parseResponse(t, w, &stats)
	if stats.ActiveGames != 2 || stats.TotalRounds != 5 || stats.Connections != 3 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestWebSocketRoute(t *testing.T) {
	server, hub := setupTestServer(&MockGameService{})

	doRequest(server, "GET", "/ws")

	if hub.served != 1 {
		t.Errorf("Expected /ws to reach the hub once, got %d", hub.served)
	}
}

func TestMetricsRoute(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(metrics.WithRegistry(registry))
	collector.GameCreated()

	server, _ := setupTestServer(&MockGameService{}, WithGatherer(registry))

	w := doRequest(server, "GET", "/metrics")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "rps_games_created_total 1") {
		t.Errorf("Expected rps_games_created_total in exposition, got:\n%s", w.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/"},
		{"POST", "/api/games"},
		{"DELETE", "/api/games/ABC234"},
		{"POST", "/api/stats"},
		{"POST", "/metrics"},
	}

	server, _ := setupTestServer(&MockGameService{})

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := doRequest(server, tt.method, tt.path)

			if w.Code != http.StatusMethodNotAllowed {
				t.Fatalf("Expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
			}
			var body map[string]string
			parseResponse(t, w, &body)
			if body["error"] != "Method not allowed" {
				t.Errorf("Expected method not allowed error, got %v", body)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	server, _ := setupTestServer(&MockGameService{})

	w := doRequest(server, "GET", "/api/unknown")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
