// Package service provides the business logic layer for the treasure hunt.
//
// The service package implements:
//   - Configuration listing, loading, saving and rendering
//   - Path planning on a configuration's initial world
//   - Simulation runs with live event publishing
//   - Run history lookup and deletion
//
// Core Interfaces:
//
// SimulationService is the main service interface used by the HTTP API and,
// through it, by the MCP tools. RunStore keeps finished run reports and
// ConfigManager loads world configurations. StepPublisher receives the
// run_started, step, leg and run_finished events of every run.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the engine. Every run builds its own engine.World from an immutable
// configuration, so runs never share state and may execute concurrently.
//
// Usage:
//
//	runMgr := runs.NewManager(logger)
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewSimulationService(runMgr, configMgr, service.WithPublisher(hub))
//
//	info, err := svc.Run(ctx, "classic", service.RunOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(info.Result.TreasuresCollected)
package service
