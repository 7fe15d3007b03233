// Package websocket provides WebSocket transport for the Rock Paper Scissors server.
//
// The websocket package implements:
//   - Connection registration with a UUID identity per socket
//   - Rooms keyed by game code for fan-out to both players
//   - Event routing from inbound frames to the game service
//   - Disconnect detection and cleanup
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub tracks every
// connection and room. Each client has a read pump that decodes frames and
// dispatches them to the service, and a write pump that drains a bounded
// send queue. A client whose queue fills up is disconnected.
//
// Message Protocol:
//
// Every frame in both directions is one JSON object:
//
//	{"event": "joinGame", "data": {"gameId": "ABC234", "playerName": "Bob"}}
//
// Frames that are not valid JSON, or whose payload does not match the event,
// get an error event with "Invalid request". Unrecognized events get
// "Unknown event".
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithMetrics(collector))
//	hub.SetHandler(service.NewGameService(manager, hub))
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", hub.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects and is registered under a fresh connection ID
// 2. Client sends events, the service replies through Emit and EmitToRoom
// 3. The read pump fails on close or timeout and queues an unregister
// 4. Run removes the client from its rooms and calls Disconnect on the service
//
// Concurrency:
//
// Hub methods are safe for concurrent use. Events from one connection are
// handled in order on its read pump; ordering across games is not defined.
package websocket
