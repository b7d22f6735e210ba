package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/policy"
	"github.com/wricardo/tile-pathfinder/game/search"
	"github.com/wricardo/tile-pathfinder/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tile Pathfinder",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tile Pathfinder - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session holds a grid of tiles. Open tiles cost 1 to enter, swamp tiles
cost 2, walls cannot be entered. Movement is up/down/left/right only.
Coordinates are (x, y) with (0, 0) at the bottom-left corner.

Typical flow: create_session, edit_tile to shape the board, select_start and
select_goal, configure a strategy (dfs, bfs, dijkstra, astar) and heuristic
(manhattan, euclidean, diagonal), then find_path or compare_strategies.

Board legend in responses: O open, T swamp, W wall, S start, G goal, * path.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordProperties() map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionProperty(),
		"x": map[string]interface{}{
			"type":        "integer",
			"description": "X coordinate (column, 0-based from the left)",
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": "Y coordinate (row, 0-based from the bottom)",
		},
	}
}

func sessionOnly() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProperty(),
		},
		Required: []string{"session_id"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new pathfinding session, optionally from a library map",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"map_id": map[string]interface{}{
					"type":        "string",
					"description": "Map to load (optional, see list_maps)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_state",
		Description: "Show the board, selection, settings and last result of a session",
		InputSchema: sessionOnly(),
	}, c.handleGetState)

	// Board editing
	editProps := coordProperties()
	editProps["kind"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"open", "swamp", "wall"},
		"description": "Terrain to paint",
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "edit_tile",
		Description: "Change the terrain of one tile",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: editProps,
			Required:   []string{"session_id", "x", "y", "kind"},
		},
	}, c.handleEditTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_start",
		Description: "Select the start tile. Walls cannot be selected.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: coordProperties(),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleSelectStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_goal",
		Description: "Select the goal tile. Walls cannot be selected.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: coordProperties(),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleSelectGoal)

	strategies := make([]string, 0, 4)
	for _, s := range search.Strategies() {
		strategies = append(strategies, string(s))
	}
	heuristics := make([]string, 0, 3)
	for _, h := range policy.Kinds() {
		heuristics = append(heuristics, string(h))
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "configure",
		Description: "Choose the search strategy and the A* heuristic for the next run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"strategy": map[string]interface{}{
					"type":        "string",
					"enum":        strategies,
					"description": "Search strategy",
				},
				"heuristic": map[string]interface{}{
					"type":        "string",
					"enum":        heuristics,
					"description": "Heuristic used by astar",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleConfigure)

	// Runs
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Run the configured strategy from start to goal",
		InputSchema: sessionOnly(),
	}, c.handleFindPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "compare_strategies",
		Description: "Run every strategy on the current board and compare cost, length and nodes explored",
		InputSchema: sessionOnly(),
	}, c.handleCompare)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_grid",
		Description: "Make every tile open and clear the selection and last result",
		InputSchema: sessionOnly(),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "regenerate_grid",
		Description: "Replace the board with an open grid of the given size",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"width": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Columns (%d-%d)", grid.MinSize, grid.MaxSize),
				},
				"height": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Rows (%d-%d)", grid.MinSize, grid.MaxSize),
				},
			},
			Required: []string{"session_id", "width", "height"},
		},
	}, c.handleRegenerate)

	// Map library
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List the maps available to create_session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMaps)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// arguments returns the tool call arguments as a map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	}
	return 0, fmt.Errorf("%s must be an integer", name)
}

func sessionPath(sessionID, suffix string) string {
	return fmt.Sprintf("/api/sessions/%s%s", sessionID, suffix)
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	mapID, _ := args["map_id"].(string)

	body := map[string]string{}
	if mapID != "" {
		body["map_id"] = mapID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nMap: %s\n\n%s", session.ID, session.MapID, formatState(session.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		state := "unknown"
		if s.State != nil {
			state = fmt.Sprintf("%dx%d, %s", s.State.Width, s.State.Height, s.State.State)
		}
		fmt.Fprintf(&b, "- %s (Map: %s, %s, Created: %s)\n", s.ID, s.MapID, state, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatState(&state)), nil
}

func (c *Client) handleEditTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	kind, _ := args["kind"].(string)

	x, y, err := coordArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{"x": x, "y": y, "kind": kind}
	return c.stateCall(ctx, "PUT", sessionPath(sessionID, "/tiles"), body,
		fmt.Sprintf("Tile (%d,%d) is now %s", x, y, kind))
}

func (c *Client) handleSelectStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.handleSelect(ctx, request, "/start", "Start")
}

func (c *Client) handleSelectGoal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.handleSelect(ctx, request, "/goal", "Goal")
}

func (c *Client) handleSelect(ctx context.Context, request mcp.CallToolRequest, suffix, label string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	x, y, err := coordArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]int{"x": x, "y": y}
	return c.stateCall(ctx, "PUT", sessionPath(sessionID, suffix), body,
		fmt.Sprintf("%s set to (%d,%d)", label, x, y))
}

func coordArgs(args map[string]interface{}) (int, int, error) {
	x, err := intArg(args, "x")
	if err != nil {
		return 0, 0, err
	}
	y, err := intArg(args, "y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (c *Client) handleConfigure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	strategy, _ := args["strategy"].(string)
	heuristic, _ := args["heuristic"].(string)

	body := service.Settings{Strategy: strategy, Heuristic: heuristic}
	return c.stateCall(ctx, "PUT", sessionPath(sessionID, "/settings"), body, "Settings updated")
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var resp service.RunResponse
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/run"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatRunReport(resp.Result) + "\n\n" + formatState(resp.State)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleCompare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var resp service.CompareResponse
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/compare"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatComparison(&resp)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	return c.stateCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, "Grid reset")
}

func (c *Client) handleRegenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	width, err := intArg(args, "width")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	height, err := intArg(args, "height")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]int{"width": width, "height": height}
	return c.stateCall(ctx, "POST", sessionPath(sessionID, "/grid"), body,
		fmt.Sprintf("New %dx%d grid", width, height))
}

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []service.MapInfo
	if err := c.apiCall(ctx, "GET", "/api/maps", nil, &maps); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Maps:\n\n")
	for _, m := range maps {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Grid: %dx%d", m.MapID, m.Name, m.Description, m.Width, m.Height)
		if m.Strategy != "" {
			fmt.Fprintf(&b, ", Strategy: %s", m.Strategy)
		}
		b.WriteString("\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// stateCall runs a board mutation and renders the returned snapshot
func (c *Client) stateCall(ctx context.Context, method, path string, body interface{}, headline string) (*mcp.CallToolResult, error) {
	var state engine.Snapshot
	if err := c.apiCall(ctx, method, path, body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(headline + "\n\n" + formatState(&state)), nil
}

// Formatting

// renderBoard draws the layout with the selection and last path overlaid
func renderBoard(state *engine.Snapshot) string {
	rows := make([][]byte, len(state.Layout))
	for i, row := range state.Layout {
		rows[i] = []byte(row)
	}
	mark := func(c grid.Coord, ch byte) {
		if c.X < 0 || c.Y < 0 || c.X >= state.Width || c.Y >= state.Height {
			return
		}
		rows[state.Height-1-c.Y][c.X] = ch
	}

	if r := state.LastResult; r != nil && r.Found {
		for _, t := range r.Path {
			mark(t.Coord, '*')
		}
	}
	if state.Start != nil {
		mark(*state.Start, 'S')
	}
	if state.Goal != nil {
		mark(*state.Goal, 'G')
	}

	var b strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&b, "%3d %s\n", state.Height-1-i, row)
	}
	return b.String()
}

func formatCoord(c *grid.Coord) string {
	if c == nil {
		return "not selected"
	}
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

func formatState(state *engine.Snapshot) string {
	if state == nil {
		return "State: unavailable"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Map: %s (%dx%d)  State: %s\n", state.MapName, state.Width, state.Height, state.State)
	fmt.Fprintf(&b, "Start: %s  Goal: %s\n", formatCoord(state.Start), formatCoord(state.Goal))
	fmt.Fprintf(&b, "Strategy: %s  Heuristic: %s\n\n", state.Strategy, state.Heuristic)
	b.WriteString(renderBoard(state))
	if r := state.LastResult; r != nil {
		b.WriteString("\nLast run: ")
		b.WriteString(r.Summary())
		b.WriteString("\n")
	}
	return b.String()
}

func formatRunReport(r *service.RunReport) string {
	if r == nil {
		return "No result"
	}
	return r.Message
}

func formatComparison(resp *service.CompareResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Strategy comparison (%d,%d) -> (%d,%d)\n\n", resp.Start.X, resp.Start.Y, resp.Goal.X, resp.Goal.Y)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tFOUND\tCOST\tLENGTH\tEXPLORED\tTIME (ms)")
	for _, r := range resp.Results {
		name := r.Strategy
		if r.Heuristic != "" {
			name += "/" + r.Heuristic
		}
		if r.Found {
			fmt.Fprintf(tw, "%s\tyes\t%g\t%d\t%d\t%.3f\n", name, r.TotalCost, r.PathLength, r.NodesExplored, r.ElapsedMS)
		} else {
			fmt.Fprintf(tw, "%s\tno\t-\t-\t%d\t%.3f\n", name, r.NodesExplored, r.ElapsedMS)
		}
	}
	tw.Flush()
	return b.String()
}
