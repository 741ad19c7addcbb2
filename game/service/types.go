package service

import (
	"time"

	"github.com/wricardo/treasure-hunt/game/engine"
)

// ConfigInfo provides information about a world configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for runs
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Treasures   int    `json:"treasures"`
	Traps       int    `json:"traps"`
	Rewards     int    `json:"rewards"`
	Obstacles   int    `json:"obstacles"`
}

// NewConfigInfo summarises a config stored under filename
func NewConfigInfo(filename, configID string, config *engine.WorldConfig) *ConfigInfo {
	info := &ConfigInfo{
		Filename:    filename,
		ConfigID:    configID,
		Name:        config.Name,
		Description: config.Description,
		Rows:        config.Rows,
		Cols:        config.Cols,
	}
	if resolved, err := config.Resolve(); err == nil {
		info.Rows = resolved.Rows
		info.Cols = resolved.Cols
		info.Treasures = len(resolved.Treasures)
		info.Traps = len(resolved.Traps)
		info.Rewards = len(resolved.Rewards)
		info.Obstacles = len(resolved.Obstacles)
	}
	return info
}

// GridView is the initial world of a config as the console would draw it
type GridView struct {
	ConfigID string      `json:"config_id"`
	Name     string      `json:"name"`
	Rows     int         `json:"rows"`
	Cols     int         `json:"cols"`
	Start    engine.Cell `json:"start"`
	Grid     [][]string  `json:"grid"`
	Text     string      `json:"text"`
	Legend   []string    `json:"legend"`
}

// PathRequest asks for a shortest path on a config's initial world.
// A nil From means the player start.
type PathRequest struct {
	From *engine.Cell `json:"from,omitempty"`
	To   engine.Cell  `json:"to"`
}

// PathResult is the planned route between two cells
type PathResult struct {
	ConfigID   string          `json:"config_id"`
	From       engine.Cell     `json:"from"`
	To         engine.Cell     `json:"to"`
	Reachable  bool            `json:"reachable"`
	Length     int             `json:"length"`
	Path       []engine.Cell   `json:"path"`
	Directions []string        `json:"directions"`
	Traps      []engine.Trap   `json:"traps_on_path,omitempty"`
	Rewards    []engine.Reward `json:"rewards_on_path,omitempty"`
}

// RunOptions configures a simulation run
type RunOptions struct {
	ReplanLimit  int  `json:"replan_limit"`
	IncludeSteps bool `json:"include_steps"`
	Ephemeral    bool `json:"ephemeral"` // do not keep the run in history
}

// RunInfo is a run report with its history metadata
type RunInfo struct {
	ID        string            `json:"id"`
	ConfigID  string            `json:"config_id"`
	CreatedAt time.Time         `json:"created_at"`
	Result    *engine.RunResult `json:"result"`
}

// RunSummary is the compact listing form of a run
type RunSummary struct {
	ID                 string    `json:"id"`
	ConfigID           string    `json:"config_id"`
	ConfigName         string    `json:"config_name"`
	CreatedAt          time.Time `json:"created_at"`
	TreasuresCollected int       `json:"treasures_collected"`
	TreasuresTotal     int       `json:"treasures_total"`
	TotalSteps         int       `json:"total_steps"`
	FinalEnergy        float64   `json:"final_energy"`
}

// RunFilter narrows ListRuns
type RunFilter struct {
	ConfigID string `json:"config_id"`
	Limit    int    `json:"limit"`
}

// NewRunSummary summarises a stored run
func NewRunSummary(record *RunRecord) *RunSummary {
	summary := &RunSummary{
		ID:        record.ID,
		ConfigID:  record.ConfigID,
		CreatedAt: record.CreatedAt,
	}
	if r := record.Result; r != nil {
		summary.ConfigName = r.ConfigName
		summary.TreasuresCollected = r.TreasuresCollected
		summary.TreasuresTotal = r.TreasuresTotal
		summary.TotalSteps = r.TotalSteps
		summary.FinalEnergy = r.FinalEnergy
	}
	return summary
}
