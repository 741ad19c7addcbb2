package runs

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wricardo/treasure-hunt/game/engine"
	"github.com/wricardo/treasure-hunt/game/service"
)

var (
	ErrRunNotFound      = service.ErrRunNotFound
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrInvalidRunID     = errors.New("invalid run ID")
)

// Manager keeps run records in memory, backed by an optional persistence layer
type Manager struct {
	runs        map[string]*service.RunRecord
	persistence Persistence
	logger      *log.Logger
	now         func() time.Time
	mu          sync.RWMutex
}

// NewManager creates a new in-memory run manager
func NewManager(logger *log.Logger) *Manager {
	return NewManagerWithPersistence(nil, logger)
}

// NewManagerWithPersistence creates a new run manager with persistence
func NewManagerWithPersistence(persistence Persistence, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		runs:        make(map[string]*service.RunRecord),
		persistence: persistence,
		logger:      logger,
		now:         time.Now,
	}
}

// validID accepts the characters a run ID may contain so IDs are safe file names
func validID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Create records a finished run. An empty id generates a new UUID.
func (m *Manager) Create(id, configID string, result *engine.RunResult) (*service.RunRecord, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRunID, id)
	}
	id = strings.ToLower(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[id]; exists {
		return nil, ErrRunAlreadyExists
	}

	record := &service.RunRecord{
		ID:        id,
		ConfigID:  configID,
		CreatedAt: m.now(),
		Result:    result,
	}
	m.runs[id] = record

	// Persist, but keep the in-memory record on failure
	if m.persistence != nil {
		if err := m.persistence.Save(record); err != nil {
			m.logger.Warn("failed to persist run", "run", id, "err", err)
		}
	}

	return record, nil
}

// Get retrieves a run by ID (case-insensitive), falling back to persistence
func (m *Manager) Get(id string) (*service.RunRecord, error) {
	id = strings.ToLower(id)

	m.mu.RLock()
	record, exists := m.runs[id]
	m.mu.RUnlock()

	if exists {
		return record, nil
	}

	if m.persistence != nil && m.persistence.Exists(id) {
		record, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted run: %w", err)
		}

		m.mu.Lock()
		m.runs[id] = record
		m.mu.Unlock()

		return record, nil
	}

	return nil, ErrRunNotFound
}

// List returns all runs held in memory
func (m *Manager) List() []*service.RunRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.RunRecord, 0, len(m.runs))
	for _, record := range m.runs {
		result = append(result, record)
	}

	return result
}

// Delete removes a run from memory and persistence
func (m *Manager) Delete(id string) error {
	id = strings.ToLower(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.runs[id]
	delete(m.runs, id)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted run: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrRunNotFound
	}
	return nil
}

// Prune deletes runs older than maxAge and returns how many were removed
func (m *Manager) Prune(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0

	for id, record := range m.runs {
		if !record.CreatedAt.Before(cutoff) {
			continue
		}
		delete(m.runs, id)
		removed++
		if m.persistence != nil {
			if err := m.persistence.Delete(id); err != nil && !errors.Is(err, ErrRunNotFound) {
				m.logger.Warn("failed to delete pruned run", "run", id, "err", err)
			}
		}
	}

	return removed
}

// Count returns the number of runs held in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// LoadPersisted loads all persisted runs into memory
func (m *Manager) LoadPersisted() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted runs: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		key := strings.ToLower(id)
		if _, exists := m.runs[key]; exists {
			continue
		}

		record, err := m.persistence.Load(id)
		if err != nil {
			m.logger.Warn("failed to load persisted run", "run", id, "err", err)
			continue
		}

		m.runs[key] = record
		loaded++
	}

	if loaded > 0 {
		m.logger.Info("loaded persisted runs", "count", loaded)
	}

	return nil
}
