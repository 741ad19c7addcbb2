package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wricardo/treasure-hunt/game/engine"
	"github.com/wricardo/treasure-hunt/game/render"
)

// simulationServiceImpl implements the SimulationService interface
type simulationServiceImpl struct {
	runs      RunStore
	configs   ConfigManager
	publisher StepPublisher
	logger    *log.Logger
}

// Option configures the simulation service
type Option func(*simulationServiceImpl)

// WithPublisher streams run events to p
func WithPublisher(p StepPublisher) Option {
	return func(s *simulationServiceImpl) { s.publisher = p }
}

// WithLogger sets the service logger
func WithLogger(l *log.Logger) Option {
	return func(s *simulationServiceImpl) { s.logger = l }
}

// NewSimulationService creates a new simulation service instance
func NewSimulationService(runs RunStore, configs ConfigManager, opts ...Option) SimulationService {
	s := &simulationServiceImpl{
		runs:    runs,
		configs: configs,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a display name, used for consistent API responses
func (s *simulationServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return DefaultConfigName
	}
	return configName
}

// resolveConfig loads a config by ID, or the default when configName is empty or "default"
func (s *simulationServiceImpl) resolveConfig(configName string) (*engine.WorldConfig, string, error) {
	if configName == "" || configName == DefaultConfigName {
		config := s.configs.GetDefault()
		return config, s.getConfigID(config.Name), nil
	}

	config, err := s.configs.LoadConfig(configName)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			availableConfigs, listErr := s.configs.ListConfigs()
			if listErr == nil && len(availableConfigs) > 0 {
				var configIDs []string
				for _, cfg := range availableConfigs {
					configIDs = append(configIDs, cfg.ConfigID)
				}
				return nil, "", fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
			}
		}
		return nil, "", fmt.Errorf("failed to load config %s: %w", configName, err)
	}
	return config, configName, nil
}

// ListConfigs returns every available configuration
func (s *simulationServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	configs, err := s.configs.ListConfigs()
	if err != nil {
		return nil, err
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// LoadConfig returns a configuration by ID
func (s *simulationServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.WorldConfig, error) {
	config, _, err := s.resolveConfig(configName)
	return config, err
}

// SaveConfig validates and stores a configuration
func (s *simulationServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.WorldConfig) error {
	if configName == "" {
		return fmt.Errorf("%w: config name is required", ErrInvalidRequest)
	}
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.logger.Info("config saved", "config", configName)
	return nil
}

// RenderConfig draws the initial world of a configuration
func (s *simulationServiceImpl) RenderConfig(ctx context.Context, configName string) (*GridView, error) {
	config, configID, err := s.resolveConfig(configName)
	if err != nil {
		return nil, err
	}

	world, err := config.NewWorld()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &GridView{
		ConfigID: configID,
		Name:     config.Name,
		Rows:     world.Grid().Rows(),
		Cols:     world.Grid().Cols(),
		Start:    world.Player().Position,
		Grid:     world.Grid().Symbols(),
		Text:     world.Display(),
		Legend:   render.LegendLines[1:],
	}, nil
}

// FindPath plans a shortest path on the initial world of a configuration
func (s *simulationServiceImpl) FindPath(ctx context.Context, configName string, req PathRequest) (*PathResult, error) {
	config, configID, err := s.resolveConfig(configName)
	if err != nil {
		return nil, err
	}

	world, err := config.NewWorld()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	from := world.Player().Position
	if req.From != nil {
		from = *req.From
	}
	grid := world.Grid()
	if !grid.InBounds(from) {
		return nil, fmt.Errorf("%w: from %s is outside the %dx%d grid", ErrInvalidRequest, from, grid.Rows(), grid.Cols())
	}
	if !grid.InBounds(req.To) {
		return nil, fmt.Errorf("%w: to %s is outside the %dx%d grid", ErrInvalidRequest, req.To, grid.Rows(), grid.Cols())
	}

	path := world.Pathfinder().Search(from, req.To)
	result := &PathResult{
		ConfigID:   configID,
		From:       from,
		To:         req.To,
		Reachable:  from == req.To || len(path) > 0,
		Length:     len(path),
		Path:       path,
		Directions: make([]string, 0, len(path)),
	}

	registry := world.Registry()
	prev := from
	for _, cell := range path {
		result.Directions = append(result.Directions, engine.DirectionBetween(prev, cell).Name())
		result.Traps = append(result.Traps, registry.TrapsAt(cell)...)
		for _, r := range registry.Rewards {
			if r.Cell == cell {
				result.Rewards = append(result.Rewards, r)
			}
		}
		prev = cell
	}

	return result, nil
}

// Run simulates a configuration and records the report unless the run is ephemeral
func (s *simulationServiceImpl) Run(ctx context.Context, configName string, opts RunOptions) (*RunInfo, error) {
	config, configID, err := s.resolveConfig(configName)
	if err != nil {
		return nil, err
	}
	if err := engine.ValidateWorldConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	runID := uuid.NewString()
	worldOpts := []engine.WorldOption{engine.WithReplanLimit(opts.ReplanLimit)}
	if s.publisher != nil {
		worldOpts = append(worldOpts, engine.WithObserver(engine.ObserverFuncs{
			OnStep: func(step engine.StepRecord) {
				s.publisher.PublishRunEvent(configID, EventStep, runID, step)
			},
			OnLeg: func(leg engine.LegReport) {
				s.publisher.PublishRunEvent(configID, EventLeg, runID, leg)
			},
		}))
		s.publisher.PublishRunEvent(configID, EventRunStarted, runID, map[string]any{
			"config_name": config.Name,
		})
	}

	s.logger.Debug("run started", "run", runID, "config", configID)
	result, err := engine.RunContext(ctx, config, worldOpts...)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", configID, err)
	}
	if !opts.IncludeSteps {
		result.Steps = nil
	}

	info := &RunInfo{ID: runID, ConfigID: configID, Result: result}
	if !opts.Ephemeral {
		record, err := s.runs.Create(runID, configID, result)
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		info.CreatedAt = record.CreatedAt
	}

	if s.publisher != nil {
		s.publisher.PublishRunEvent(configID, EventRunFinished, runID, NewRunSummary(&RunRecord{
			ID:        runID,
			ConfigID:  configID,
			CreatedAt: info.CreatedAt,
			Result:    result,
		}))
	}
	s.logger.Info("run finished",
		"run", runID,
		"config", configID,
		"collected", result.TreasuresCollected,
		"total", result.TreasuresTotal,
		"steps", result.TotalSteps,
		"energy", result.FinalEnergy)

	return info, nil
}

// GetRun returns a stored run
func (s *simulationServiceImpl) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	record, err := s.runs.Get(runID)
	if err != nil {
		return nil, err
	}
	return &RunInfo{
		ID:        record.ID,
		ConfigID:  record.ConfigID,
		CreatedAt: record.CreatedAt,
		Result:    record.Result,
	}, nil
}

// ListRuns returns stored runs, newest first
func (s *simulationServiceImpl) ListRuns(ctx context.Context, filter RunFilter) ([]*RunSummary, error) {
	records := s.runs.List()
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })

	summaries := make([]*RunSummary, 0, len(records))
	for _, record := range records {
		if filter.ConfigID != "" && record.ConfigID != filter.ConfigID {
			continue
		}
		summaries = append(summaries, NewRunSummary(record))
		if filter.Limit > 0 && len(summaries) == filter.Limit {
			break
		}
	}
	return summaries, nil
}

// DeleteRun removes a stored run
func (s *simulationServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	return s.runs.Delete(runID)
}
