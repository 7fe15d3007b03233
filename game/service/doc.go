// Package service provides the relay protocol for the Rock Paper Scissors server.
//
// The service package implements:
//   - Game creation, joining, choices, round resets and leaving
//   - Disconnect cleanup for every game a lost connection occupied
//   - Request validation and error event messages
//   - Read-only inspection of live games
//
// Core Interfaces:
//
// GameService is the protocol handler, one method per inbound event.
// SessionManager is the game registry it reads and writes.
// Broadcaster delivers outbound events to a connection or to a room keyed by
// game code; the WebSocket hub implements it.
//
// Protocol:
//
//	createGame {playerName}                   -> gameCreated {gameId} (caller)
//	joinGame   {gameId, playerName}           -> gameJoined {gameState} (caller)
//	                                             playerJoined {gameState} (opponent)
//	makeChoice {gameId, playerNumber, choice} -> choiceMade {gameState} (room)
//	playAgain  {gameId}                       -> gameReset (room)
//	leaveGame  {gameId}                       -> opponentLeft (room minus caller)
//	disconnect                                -> opponentLeft (remaining player)
//
// Failures are sent back to the caller only, as error {message} with
// "Game not found" or "Game is full" among the messages. playAgain and
// leaveGame on a missing game are silent.
//
// Trust Model:
//
// The service does not check that the caller occupies the game or slot
// named in a request; gameId and playerNumber are taken as given.
//
// Concurrency:
//
// Every lookup, mutation and broadcast for one game runs under that game's
// lock in the session manager, so concurrent events for the same game are
// applied one at a time.
package service
