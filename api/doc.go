// Package api provides the HTTP REST API for the treasure hunt simulator.
//
// Endpoints:
//
// Configuration:
//   - GET  /api/configs             - List available configurations
//   - POST /api/configs[?id=name]   - Validate and save a configuration
//   - GET  /api/configs/{name}      - Get a configuration
//   - GET  /api/configs/{name}/grid - Initial world as symbol rows and text
//   - POST /api/configs/{name}/path - Shortest path on the initial world
//
// Runs:
//   - POST   /api/runs      - Run a simulation ({config_id, replan_limit, include_steps, ephemeral})
//   - GET    /api/runs      - List runs, newest first (?config=&limit=)
//   - GET    /api/runs/{id} - Get a run report
//   - DELETE /api/runs/{id} - Delete a run
//
// Other:
//   - GET /ws?config={name} - Live run events, see package websocket
//   - GET /health           - Liveness probe
//
// Errors are returned as JSON with an HTTP status derived from the service
// sentinel errors: not found maps to 404, invalid configs and requests to 400.
//
//	{"error": "configuration not found: 'nope'. Available configs: [classic]"}
//
// Usage:
//
//	server := api.NewServer(svc, hub, api.WithLogger(logger))
//	http.ListenAndServe(":8080", server)
package api
