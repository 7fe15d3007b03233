// Package api provides the HTTP surface of the Rock Paper Scissors server.
//
// The api package implements:
//   - A plaintext liveness line with the active game count
//   - Read-only JSON inspection of live games
//   - The WebSocket upgrade route
//   - Prometheus metrics exposition
//
// Endpoints:
//
//	GET /                  Rock Paper Scissors Server is running! Active games: N
//	GET /api/games         {"count": N, "games": [...]}
//	GET /api/games/{id}    one game, or 404 {"error": "Game not found"}
//	GET /api/stats         games by phase, rounds played, open connections
//	GET /ws                WebSocket upgrade, handled by the hub
//	GET /metrics           Prometheus text format
//
// Games are created and played only over the WebSocket; nothing here mutates
// the registry.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, api.WithGatherer(registry))
//	http.ListenAndServe(":3000", server)
package api
