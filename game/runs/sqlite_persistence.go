package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/wricardo/treasure-hunt/game/engine"
	"github.com/wricardo/treasure-hunt/game/service"
)

// SQLitePersistence implements Persistence on a SQLite database
type SQLitePersistence struct {
	db *sql.DB
}

// OpenSQLite creates or opens the run database at dbPath, creating parent
// directories and the schema as needed
func OpenSQLite(dbPath string) (*SQLitePersistence, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	p := &SQLitePersistence{db: db}
	if err := p.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return p, nil
}

func (p *SQLitePersistence) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			config_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			collected INTEGER NOT NULL DEFAULT 0,
			total_steps INTEGER NOT NULL DEFAULT 0,
			final_energy REAL NOT NULL DEFAULT 0,
			result TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_config_id ON runs(config_id);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := p.db.Exec(schema)
	return err
}

// Close closes the database connection
func (p *SQLitePersistence) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Save inserts or replaces a run record
func (p *SQLitePersistence) Save(record *service.RunRecord) error {
	if record == nil {
		return fmt.Errorf("run record cannot be nil")
	}

	result, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("storage: cannot marshal result: %w", err)
	}

	var collected, steps int
	var energy float64
	if r := record.Result; r != nil {
		collected, steps, energy = r.TreasuresCollected, r.TotalSteps, r.FinalEnergy
	}

	_, err = p.db.Exec(
		`INSERT OR REPLACE INTO runs (id, config_id, created_at, collected, total_steps, final_energy, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.ConfigID, record.CreatedAt.UTC().Format(time.RFC3339Nano),
		collected, steps, energy, string(result),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save run: %w", err)
	}
	return nil
}

// Load retrieves a run record by ID
func (p *SQLitePersistence) Load(id string) (*service.RunRecord, error) {
	var (
		record    service.RunRecord
		createdAt string
		result    string
	)

	err := p.db.QueryRow(
		`SELECT id, config_id, created_at, result FROM runs WHERE id = ?`, id,
	).Scan(&record.ID, &record.ConfigID, &createdAt, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}

	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("storage: bad created_at %q: %w", createdAt, err)
	}

	var rr engine.RunResult
	if err := json.Unmarshal([]byte(result), &rr); err != nil {
		return nil, fmt.Errorf("storage: cannot unmarshal result: %w", err)
	}
	record.Result = &rr

	return &record, nil
}

// Delete removes a run record
func (p *SQLitePersistence) Delete(id string) error {
	res, err := p.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage: cannot delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot get affected rows: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// ListAll returns all stored run IDs, oldest first
func (p *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := p.db.Query("SELECT id FROM runs ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return ids, nil
}

// Exists checks if a run record is stored
func (p *SQLitePersistence) Exists(id string) bool {
	var one int
	err := p.db.QueryRow("SELECT 1 FROM runs WHERE id = ?", id).Scan(&one)
	return err == nil
}
