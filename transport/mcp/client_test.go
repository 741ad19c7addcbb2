package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/treasure-hunt/game/engine"
	"github.com/wricardo/treasure-hunt/game/service"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleResult(t *testing.T) *engine.RunResult {
	t.Helper()
	result, err := engine.Run(&engine.WorldConfig{
		Name:     "single",
		Rows:     6,
		Cols:     10,
		Registry: engine.Registry{Treasures: []engine.Cell{{Row: 2, Col: 5}}},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return result
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]string
	if err := client.apiCall(context.Background(), "GET", "/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Unexpected response: %v", response)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/json" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "run not found"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "GET", "/json", nil, nil)
	if err == nil || err.Error() != "run not found" {
		t.Errorf("Expected the API error message, got %v", err)
	}

	err = client.apiCall(context.Background(), "GET", "/plain", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error', got %v", err)
	}

	unreachable := NewClient("http://invalid-url-that-does-not-exist:9999")
	if err := unreachable.apiCall(context.Background(), "GET", "/health", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_handleListConfigs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/configs" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]*service.ConfigInfo{
			{ConfigID: "classic", Name: "Classic", Rows: 6, Cols: 10, Treasures: 3, Description: "The original world"},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListConfigs(context.Background(), callRequest("list_configs", nil))
	if err != nil {
		t.Fatalf("handleListConfigs failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"classic: Classic (6x10, 3 treasures", "The original world"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %s", want, text)
		}
	}
}

func TestClient_handleGetConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/configs/default/grid" {
			t.Errorf("Expected the default grid path, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(service.GridView{
			ConfigID: "classic",
			Name:     "Classic",
			Rows:     1,
			Cols:     2,
			Legend:   []string{"Legend:"},
			Text:     "PS XX",
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleGetConfig(context.Background(), callRequest("get_config", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGetConfig failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "PS XX") || !strings.Contains(text, "Configuration: classic") {
		t.Errorf("Unexpected output: %s", text)
	}
}

func TestClient_handleFindPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/configs/classic/path" {
			t.Errorf("Expected POST /api/configs/classic/path, got %s %s", r.Method, r.URL.Path)
		}

		var req service.PathRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.From == nil || *req.From != (engine.Cell{Row: 0, Col: 0}) || req.To != (engine.Cell{Row: 0, Col: 2}) {
			t.Errorf("Unexpected request: %+v", req)
		}

		json.NewEncoder(w).Encode(service.PathResult{
			ConfigID:   "classic",
			From:       *req.From,
			To:         req.To,
			Reachable:  true,
			Length:     2,
			Path:       []engine.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}},
			Directions: []string{"right", "right"},
			Traps:      []engine.Trap{{Cell: engine.Cell{Row: 0, Col: 1}, Type: engine.SlowEnergy}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	args := map[string]interface{}{
		"config_id": "classic",
		"from":      map[string]interface{}{"row": float64(0), "col": float64(0)},
		"to":        map[string]interface{}{"row": float64(0), "col": float64(2)},
	}

	result, err := client.handleFindPath(context.Background(), callRequest("find_path", args))
	if err != nil {
		t.Fatalf("handleFindPath failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"2 steps", "right, right", "(0, 0) -> (0, 1) -> (0, 2)", "trap (0, 1) (slow_energy)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %s", want, text)
		}
	}
}

func TestClient_handleFindPath_BadArguments(t *testing.T) {
	client := NewClient("http://localhost:0")

	tests := []map[string]interface{}{
		{},
		{"to": "2,5"},
		{"to": map[string]interface{}{"row": "two", "col": float64(5)}},
	}

	for _, args := range tests {
		result, err := client.handleFindPath(context.Background(), callRequest("find_path", args))
		if err != nil {
			t.Fatalf("handleFindPath returned a Go error: %v", err)
		}
		if !result.IsError {
			t.Errorf("Expected a tool error for %v", args)
		}
	}
}

func TestClient_handleRunSimulation(t *testing.T) {
	runResult := sampleResult(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["config_id"] != "single" || body["replan_limit"] != float64(1) {
			t.Errorf("Unexpected body: %v", body)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(service.RunInfo{
			ID:        "run-1",
			ConfigID:  "single",
			CreatedAt: time.Now(),
			Result:    runResult,
		})
	}))
	defer server.Close()

	args := map[string]interface{}{"config_id": "single", "replan_limit": float64(1)}
	result, err := NewClient(server.URL).handleRunSimulation(context.Background(), callRequest("run_simulation", args))
	if err != nil {
		t.Fatalf("handleRunSimulation failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Run run-1 on single", "Treasure at (2, 5) collected. 7 steps", "Treasures collected: 1/1", "Final World:"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %s", want, text)
		}
	}
}

func TestClient_handleGetRun_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "run not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleGetRun(context.Background(), callRequest("get_run", map[string]interface{}{"run_id": "nope"}))
	if err != nil {
		t.Fatalf("handleGetRun failed: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "run not found") {
		t.Error("Expected a run not found tool error")
	}

	result, _ = client.handleGetRun(context.Background(), callRequest("get_run", map[string]interface{}{}))
	if !result.IsError {
		t.Error("Expected a tool error without run_id")
	}
}

func TestClient_handleListRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("config"); got != "classic" {
			t.Errorf("Expected config filter, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("Expected limit 2, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"runs": []*service.RunSummary{
				{ID: "run-1", ConfigID: "classic", TreasuresCollected: 3, TreasuresTotal: 3, TotalSteps: 19, FinalEnergy: 81},
			},
		})
	}))
	defer server.Close()

	args := map[string]interface{}{"config_id": "classic", "limit": float64(2)}
	result, err := NewClient(server.URL).handleListRuns(context.Background(), callRequest("list_runs", args))
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "run-1 [classic]") || !strings.Contains(text, "3/3 treasures, 19 steps, energy 81") {
		t.Errorf("Unexpected output: %s", text)
	}
}

func TestClient_handleDeleteRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" || r.URL.Path != "/api/runs/run-1" {
			t.Errorf("Expected DELETE /api/runs/run-1, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleDeleteRun(context.Background(), callRequest("delete_run", map[string]interface{}{"run_id": "run-1"}))
	if err != nil {
		t.Fatalf("handleDeleteRun failed: %v", err)
	}
	if !strings.Contains(resultText(t, result), "Run run-1 deleted") {
		t.Error("Expected deletion message")
	}
}

func TestClient_handleSimulationRules(t *testing.T) {
	result, err := NewClient("http://localhost:8080").handleSimulationRules(context.Background(), callRequest("simulation_rules", nil))
	if err != nil {
		t.Fatalf("handleSimulationRules failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"GRID LEGEND:", "T3 pushback", "R1 halve_energy_cost", "LEG OUTCOMES:"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in rules", want)
		}
	}
}

func TestClient_HTTPHandler(t *testing.T) {
	handler := NewClient("http://localhost:8080").HTTPHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", w.Code)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	for _, tool := range []string{"list_configs", "run_simulation", "simulation_rules"} {
		if !strings.Contains(w.Body.String(), tool) {
			t.Errorf("Expected tool %s in tools/list response", tool)
		}
	}
}
