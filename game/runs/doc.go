// Package runs keeps the history of finished simulation runs.
//
// A Manager holds run records in memory and, when given a Persistence,
// writes every new record through to storage. Two persistence layers are
// provided: FilePersistence stores one JSON file per run and
// SQLitePersistence keeps all runs in a single SQLite database.
//
// Only reports are stored. A world is rebuilt from its configuration for
// every run and never persisted.
//
// Usage:
//
//	store, err := runs.OpenSQLite("~/.treasure-hunt/runs.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	manager := runs.NewManagerWithPersistence(store, logger)
//	if err := manager.LoadPersisted(); err != nil {
//		log.Fatal(err)
//	}
//	record, err := manager.Create("", "classic", result)
package runs
