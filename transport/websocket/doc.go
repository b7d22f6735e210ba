// Package websocket pushes board updates to browsers watching a session.
//
// A central Hub tracks clients by session ID. Each connection gets a read
// pump, which only detects disconnects, and a write pump that forwards
// queued messages and keeps the connection alive with pings. Clients that
// fall behind are dropped.
//
// Messages are JSON envelopes:
//
//	{"session_id": "a1b2", "event": "state_update", "state": {...}}
//	{"session_id": "a1b2", "event": "run_complete", "state": {...}, "result": {...}}
//	{"session_id": "a1b2", "event": "comparison_complete", "results": [...]}
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	hub.ServeWS(w, r, sessionID, snapshot)
//	hub.BroadcastState(sessionID, snapshot)
package websocket
