// Package websocket streams simulation run events to browsers and tools.
//
// A central Hub owns every connection. Clients subscribe to one topic, the
// configuration ID, by connecting to /ws?config=<id>; connecting without a
// config subscribes to all topics.
//
// Message Protocol:
//
// Each frame is one JSON object:
//
//	{"topic": "classic", "event": "step", "run_id": "...", "data": {...}}
//
// Events are run_started, step, leg and run_finished. Incoming frames are
// ignored.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	go hub.Run(ctx)
//
//	svc := service.NewSimulationService(runs, configs, service.WithPublisher(hub))
//
// Publishing never blocks a run: when the hub's queue is full the event is
// dropped and a warning is logged. Slow clients are disconnected.
package websocket
