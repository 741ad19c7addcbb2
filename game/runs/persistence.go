package runs

import "github.com/wricardo/treasure-hunt/game/service"

// Persistence defines the interface for persisting run records
type Persistence interface {
	// Save persists a run record to storage
	Save(record *service.RunRecord) error

	// Load retrieves a run record from storage by ID
	Load(id string) (*service.RunRecord, error)

	// Delete removes a run record from storage
	Delete(id string) error

	// ListAll returns all persisted run IDs
	ListAll() ([]string, error)

	// Exists checks if a run record exists in storage
	Exists(id string) bool
}
