// Package api provides the HTTP REST API for the pathfinder.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session, optionally {"map_id": "maze"}
//   - GET /api/sessions - List sessions, oldest first (?limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Board:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - PUT /api/sessions/{id}/tiles - {"x": 1, "y": 2, "kind": "swamp"}
//   - PUT /api/sessions/{id}/start - {"x": 0, "y": 0}
//   - PUT /api/sessions/{id}/goal - {"x": 4, "y": 4}
//   - PUT /api/sessions/{id}/settings - {"strategy": "astar", "heuristic": "euclidean"}
//   - POST /api/sessions/{id}/run - Search with the configured strategy
//   - POST /api/sessions/{id}/compare - Search with every strategy
//   - POST /api/sessions/{id}/reset - All tiles open, selection cleared
//   - POST /api/sessions/{id}/grid - {"width": 8, "height": 6}
//
// Maps:
//   - GET /api/maps - List the map library
//   - GET /api/maps/{name} - Get one map
//   - POST /api/maps - Save a map, {"map_id": "mine", "name": "Mine", "layout": [...]}
//
// Other:
//   - GET /health
//   - GET /metrics - Prometheus metrics, when a gatherer is configured
//   - GET /ws?session={id} - WebSocket push updates
//
// Board mutations and runs are pushed to the session's WebSocket clients.
//
// Errors are returned as JSON. Not found maps to 404, invalid input to 400
// and a run in progress to 409:
//
//	{"error": "invalid input: engine: goal tile not selected"}
package api
