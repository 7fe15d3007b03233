package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/rpsrelay/game/engine"
	"github.com/wricardo/mcp-training/rpsrelay/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// GameList is the body of GET /api/games
type GameList struct {
	Count int                 `json:"count"`
	Games []*engine.GameState `json:"games"`
}

// ServerStats is the body of GET /api/stats
type ServerStats struct {
	service.Stats
	Connections int `json:"connections"`
}

// Client is a thin MCP client that proxies to the REST API.
// Every tool is read-only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rock Paper Scissors Server",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rock Paper Scissors Server - MCP Interface

This is a read-only view of the live games on a relay server. Players
connect over WebSocket; these tools only inspect what they are doing.

AVAILABLE TOOLS:
- list_games: List every live game with players, round and phase
- get_game: Show one game by its 6 character code
- server_stats: Count games by phase and open connections

Choices are relayed verbatim; the server never decides a winner.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all live games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get the state of a specific game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "6 character game code",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Summarize live games and connections",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiGet fetches path and decodes the JSON body into result
func (c *Client) apiGet(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
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
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}
	return nil
}

// Tool handlers

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var list GameList
	if err := c.apiGet(ctx, "/api/games", &list); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if list.Count == 0 {
		return mcp.NewToolResultText("No active games"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active Games (%d):\n\n", list.Count)
	for _, g := range list.Games {
		fmt.Fprintf(&sb, "- %s: %s vs %s (round %d, %s)\n",
			g.ID, playerLabel(g.Player1), playerLabel(g.Player2), g.Round, g.Phase)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	var state engine.GameState
	if err := c.apiGet(ctx, "/api/games/"+url.PathEscape(gameID), &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats ServerStats
	if err := c.apiGet(ctx, "/api/stats", &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf(`Server Stats:
Active games: %d
Awaiting opponent: %d
In progress: %d
Rounds played: %d
Connections: %d`,
		stats.ActiveGames, stats.AwaitingOpponent, stats.InProgress, stats.TotalRounds, stats.Connections)
	return mcp.NewToolResultText(result), nil
}

// formatGameState renders one game for a human reader
func formatGameState(state *engine.GameState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Game %s\n", state.ID)
	fmt.Fprintf(&sb, "Round: %d\n", state.Round)
	fmt.Fprintf(&sb, "Phase: %s\n", state.Phase)
	fmt.Fprintf(&sb, "Player 1: %s\n", slotLine(state.Player1, state.Phase))
	fmt.Fprintf(&sb, "Player 2: %s", slotLine(state.Player2, state.Phase))
	return sb.String()
}

// slotLine shows the same choice the REST state carries; a pick made
// before the round is revealed is marked pending
func slotLine(p engine.PlayerSlot, phase engine.Phase) string {
	if !p.Occupied() {
		return "(waiting)"
	}
	switch {
	case p.Choice == nil:
		return p.Name + " - no choice yet"
	case phase == engine.PhaseRevealed:
		return fmt.Sprintf("%s - chose %s", p.Name, *p.Choice)
	default:
		return fmt.Sprintf("%s - chose %s (pending)", p.Name, *p.Choice)
	}
}

func playerLabel(p engine.PlayerSlot) string {
	if !p.Occupied() {
		return "(waiting)"
	}
	return p.Name
}
