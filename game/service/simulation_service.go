package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/treasure-hunt/game/engine"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrRunNotFound    = errors.New("run not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// SimulationService defines all simulation operations
type SimulationService interface {
	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.WorldConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.WorldConfig) error
	RenderConfig(ctx context.Context, configName string) (*GridView, error)

	// Planning
	FindPath(ctx context.Context, configName string, req PathRequest) (*PathResult, error)

	// Runs
	Run(ctx context.Context, configName string, opts RunOptions) (*RunInfo, error)
	GetRun(ctx context.Context, runID string) (*RunInfo, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunSummary, error)
	DeleteRun(ctx context.Context, runID string) error
}

// RunStore defines run history storage operations
type RunStore interface {
	Create(id, configID string, result *engine.RunResult) (*RunRecord, error)
	Get(id string) (*RunRecord, error)
	List() []*RunRecord
	Delete(id string) error
}

// ConfigManager handles world configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.WorldConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.WorldConfig
	SaveConfig(name string, config *engine.WorldConfig) error
}

// StepPublisher receives live run events. Topics are config IDs.
type StepPublisher interface {
	PublishRunEvent(topic, event, runID string, data any)
}

// DefaultConfigName addresses whichever configuration the ConfigManager treats as default
const DefaultConfigName = "default"

// Run event names sent to a StepPublisher
const (
	EventRunStarted  = "run_started"
	EventStep        = "step"
	EventLeg         = "leg"
	EventRunFinished = "run_finished"
)

// RunRecord is a stored run report
type RunRecord struct {
	ID        string            `json:"id"`
	ConfigID  string            `json:"config_id"`
	CreatedAt time.Time         `json:"created_at"`
	Result    *engine.RunResult `json:"result"`
}
