// Package mcp exposes the treasure hunt simulator to AI agents over the
// Model Context Protocol.
//
// Client is a thin MCP server whose tools proxy to the REST API, so the MCP
// surface always reflects what the HTTP service does:
//   - list_configs, get_config: browse world configurations
//   - find_path: A* path between two cells of an initial world
//   - run_simulation: run the full collection and report every leg
//   - get_run, list_runs, delete_run: run history
//   - simulation_rules: the movement, trap and reward rules
//
// Transport Modes:
//   - Stdio: ServeStdio for local MCP clients
//   - HTTP: HTTPHandler, mounted at /mcp by the serve command
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
