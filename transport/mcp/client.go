package mcp

import (
	"bytes"
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

	"github.com/wricardo/treasure-hunt/game/engine"
	"github.com/wricardo/treasure-hunt/game/render"
	"github.com/wricardo/treasure-hunt/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

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
		"Treasure Hunt Simulator",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Treasure Hunt Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A player starts on a grid of treasures, traps, rewards and obstacles and
automatically collects every treasure along A* shortest paths. Traps and
rewards change its energy cost and speed as it walks.

AVAILABLE TOOLS:
- list_configs: List available world configurations
- get_config: Show a configuration and its initial world
- find_path: Plan a shortest path on a configuration's initial world
- run_simulation: Run the full collection on a configuration
- get_run: Show the report of a stored run
- list_runs: List stored runs, newest first
- delete_run: Delete a stored run
- simulation_rules: Explain the movement, trap and reward rules`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	configArg := map[string]interface{}{
		"type":        "string",
		"description": "Configuration ID (see list_configs). Empty means the default configuration",
	}
	cellArg := func(description string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "object",
			"description": description,
			"properties": map[string]interface{}{
				"row": map[string]interface{}{"type": "integer"},
				"col": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"row", "col"},
		}
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available world configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_config",
		Description: "Show a world configuration and draw its initial grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": configArg,
			},
		},
	}, c.handleGetConfig)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Find the shortest path between two cells on a configuration's initial world",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": configArg,
				"from":      cellArg("Start cell (optional, defaults to the player start)"),
				"to":        cellArg("Target cell"),
			},
			Required: []string{"to"},
		},
	}, c.handleFindPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_simulation",
		Description: "Run the treasure collection on a configuration and report every leg",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": configArg,
				"replan_limit": map[string]interface{}{
					"type":        "integer",
					"description": "How many times a leg may replan after being knocked off course (default 0)",
				},
				"ephemeral": map[string]interface{}{
					"type":        "boolean",
					"description": "Do not keep the run in history",
				},
			},
		},
	}, c.handleRunSimulation)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Show the report of a stored run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID to retrieve",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List stored runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Only runs of this configuration",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_run",
		Description: "Delete a stored run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID to delete",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleDeleteRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "simulation_rules",
		Description: "Explain the grid symbols and the movement, trap and reward rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleSimulationRules)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the input closes
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// HTTPHandler answers single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}

// apiCall makes an HTTP call to the REST API
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

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// cellArgument reads a {row, col} object; JSON numbers arrive as float64
func cellArgument(args map[string]interface{}, key string) (*engine.Cell, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an object with row and col", key)
	}
	row, rowOK := obj["row"].(float64)
	col, colOK := obj["col"].(float64)
	if !rowOK || !colOK {
		return nil, fmt.Errorf("%s must have numeric row and col", key)
	}
	return &engine.Cell{Row: int(row), Col: int(col)}, nil
}

func configPath(configID, suffix string) string {
	if configID == "" {
		configID = "default"
	}
	return "/api/configs/" + url.PathEscape(configID) + suffix
}

// Tool handlers

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(configs) == 0 {
		return mcp.NewToolResultText("No configurations available"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available configurations (%d):\n", len(configs))
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s (%dx%d, %d treasures, %d traps, %d rewards, %d obstacles)\n",
			cfg.ConfigID, cfg.Name, cfg.Rows, cfg.Cols, cfg.Treasures, cfg.Traps, cfg.Rewards, cfg.Obstacles)
		if cfg.Description != "" {
			fmt.Fprintf(&b, "  %s\n", cfg.Description)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID, _ := arguments(request)["config_id"].(string)

	var view service.GridView
	if err := c.apiCall(ctx, "GET", configPath(configID, "/grid"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGridView(&view)), nil
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	to, err := cellArgument(args, "to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if to == nil {
		return mcp.NewToolResultError("to is required"), nil
	}
	from, err := cellArgument(args, "from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.PathResult
	body := service.PathRequest{From: from, To: *to}
	if err := c.apiCall(ctx, "POST", configPath(configID, "/path"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPathResult(&result)), nil
}

func (c *Client) handleRunSimulation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	replanLimit, _ := args["replan_limit"].(float64)
	ephemeral, _ := args["ephemeral"].(bool)

	body := map[string]interface{}{
		"config_id":    configID,
		"replan_limit": int(replanLimit),
		"ephemeral":    ephemeral,
	}

	var info service.RunInfo
	if err := c.apiCall(ctx, "POST", "/api/runs", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunInfo(&info)), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, _ := arguments(request)["run_id"].(string)
	if runID == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	var info service.RunInfo
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(runID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunInfo(&info)), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	limit, _ := args["limit"].(float64)

	query := url.Values{}
	if configID != "" {
		query.Set("config", configID)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	path := "/api/runs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp struct {
		Count int                   `json:"count"`
		Runs  []*service.RunSummary `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if resp.Count == 0 {
		return mcp.NewToolResultText("No runs recorded"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Runs (%d):\n", resp.Count)
	for _, run := range resp.Runs {
		fmt.Fprintf(&b, "- %s [%s] %s: %d/%d treasures, %d steps, energy %g\n",
			run.ID, run.ConfigID, run.CreatedAt.Format(time.RFC3339),
			run.TreasuresCollected, run.TreasuresTotal, run.TotalSteps, run.FinalEnergy)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDeleteRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, _ := arguments(request)["run_id"].(string)
	if runID == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	if err := c.apiCall(ctx, "DELETE", "/api/runs/"+url.PathEscape(runID), nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Run %s deleted", runID)), nil
}

func (c *Client) handleSimulationRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(rules), nil
}

const rules = `Treasure Hunt Simulator - Rules

GRID LEGEND:
` + "EE empty, PS player, XX treasure, OO obstacle, T1-T4 traps, R1/R2 rewards" + `

MOVEMENT:
- Coordinates are (row, col) with (0, 0) at the top left.
- The player visits treasures in configuration order, walking an A* shortest
  path (4-neighbour, Manhattan heuristic) to each one.
- A step moves speed cells in one direction, truncated toward zero. Moves that
  would leave the grid are dropped but still cost energy.
- Every step costs energy_per_step. Energy may go negative; runs never stop
  for lack of energy.
- A treasure is collected when the player stands on it after a step.

TRAPS (fire every time the player ends a step on them):
- T1 slow_energy: energy_per_step doubles.
- T2 slow_speed: speed halves.
- T3 pushback: the player is pushed two cells back along its last direction,
  if that cell is inside the grid.
- T4 clear_treasures: every remaining treasure disappears.

REWARDS (consumed on first pickup):
- R1 halve_energy_cost: energy_per_step becomes 0.5.
- R2 double_speed: speed doubles.

LEG OUTCOMES:
- collected: the player reached the treasure.
- unreachable: no path exists from the player's position.
- skipped: the treasure vanished before its leg started.
- missed: the player was knocked off course or the treasure was cleared mid-leg.`

// Formatting helpers

func formatGridView(view *service.GridView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Configuration: %s (%s)\n", view.ConfigID, view.Name)
	fmt.Fprintf(&b, "Size: %d rows x %d cols, start %s\n\n", view.Rows, view.Cols, view.Start)
	b.WriteString(strings.Join(view.Legend, "\n"))
	b.WriteString("\n\n")
	b.WriteString(view.Text)
	return b.String()
}

func formatPathResult(result *service.PathResult) string {
	if !result.Reachable {
		return fmt.Sprintf("No path from %s to %s on %s", result.From, result.To, result.ConfigID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Path from %s to %s: %d steps\n", result.From, result.To, result.Length)
	fmt.Fprintf(&b, "Directions: %s\n", strings.Join(result.Directions, ", "))

	cells := make([]string, len(result.Path))
	for i, cell := range result.Path {
		cells[i] = cell.String()
	}
	fmt.Fprintf(&b, "Cells: %s\n", strings.Join(cells, " -> "))

	for _, trap := range result.Traps {
		fmt.Fprintf(&b, "Warning: trap %s (%s) on the path\n", trap.Cell, trap.Type)
	}
	for _, reward := range result.Rewards {
		fmt.Fprintf(&b, "Reward %s (%s) on the path\n", reward.Cell, reward.Type)
	}
	return b.String()
}

func formatRunInfo(info *service.RunInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s on %s\n\n", info.ID, info.ConfigID)

	result := info.Result
	if result == nil {
		return b.String()
	}

	b.WriteString("Initial World:\n")
	b.WriteString(render.Text(result.InitialGrid))
	b.WriteString("\n\n")

	for _, leg := range result.Legs {
		fmt.Fprintf(&b, "%s %d steps, %g energy, energy now %g\n",
			render.LegSummary(leg), leg.Steps, leg.EnergyConsumed, leg.EnergyAfter)
	}

	b.WriteString("\nFinal World:\n")
	b.WriteString(render.Text(result.FinalGrid))
	b.WriteString("\n\n")
	b.WriteString(render.Totals(result))
	return b.String()
}
