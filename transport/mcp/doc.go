// Package mcp provides a Model Context Protocol interface to the Rock Paper Scissors server.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Read-only tools backed by the REST API
//   - Text summaries of games and server load
//
// MCP Tools:
//
//   - list_games: List every live game
//   - get_game: Get one game by code (game_id)
//   - server_stats: Games by phase, rounds played and open connections
//
// None of the tools create, join or change a game; play happens only over
// the WebSocket protocol. get_game reports the same choices as the REST
// state and marks a pick made before the reveal as pending.
//
// Transport Modes:
//
//   - HTTP: the server mounts GetMCPServer().HandleMessage at POST /mcp
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP clients
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:3000")
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
