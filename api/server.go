package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wricardo/mcp-training/rpsrelay/game/engine"
	"github.com/wricardo/mcp-training/rpsrelay/game/service"
	"github.com/wricardo/mcp-training/rpsrelay/game/session"
	"github.com/wricardo/mcp-training/rpsrelay/transport/mcp"
)

// Hub is the WebSocket side of the server
type Hub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	ConnectionCount() int
}

// Server represents the HTTP server
type Server struct {
	service  service.GameService
	hub      Hub
	gatherer prometheus.Gatherer
	router   *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithGatherer sets the registry served at /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a new HTTP server
func NewServer(gameService service.GameService, hub Hub, opts ...Option) *Server {
	s := &Server{
		service:  gameService,
		hub:      hub,
		gatherer: prometheus.DefaultGatherer,
		router:   mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	s.router.HandleFunc("/", s.handleHealth).Methods("GET")

	// Kept off a PathPrefix subrouter so a method mismatch answers 405
	s.router.HandleFunc("/api/games", s.handleListGames).Methods("GET")
	s.router.HandleFunc("/api/games/{id}", s.handleGetGame).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.hub.ServeWS)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Rock Paper Scissors Server is running! Active games: %d", s.service.ActiveGames())
}

// Game Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if games == nil {
		games = []*engine.GameState{}
	}

	respondJSON(w, http.StatusOK, mcp.GameList{
		Count: len(games),
		Games: games,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID := vars["id"]

	game, err := s.service.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, service.MessageGameNotFound)
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, mcp.ServerStats{
		Stats:       *stats,
		Connections: s.hub.ConnectionCount(),
	})
}
