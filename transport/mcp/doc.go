// Package mcp exposes the pathfinder to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, and the JSON response is rendered as plain text with an ASCII
// board (O open, T swamp, W wall, S start, G goal, * path).
//
// MCP Tools:
//   - create_session, list_sessions, get_state
//   - edit_tile, select_start, select_goal, configure
//   - find_path, compare_strategies
//   - reset_grid, regenerate_grid
//   - list_maps
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
