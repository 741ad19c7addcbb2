package engine

import "context"

// RunResult is the complete report of one simulation run
type RunResult struct {
	ConfigName string `json:"config_name"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	Start      Cell   `json:"start"`

	InitialGrid [][]string `json:"initial_grid"`
	FinalGrid   [][]string `json:"final_grid"`

	Legs       []LegReport `json:"legs"`
	TotalSteps int         `json:"total_steps"`

	StartingEnergy float64 `json:"starting_energy"`
	FinalEnergy    float64 `json:"final_energy"`
	FinalPosition  Cell    `json:"final_position"`
	FinalPlayer    Player  `json:"final_player"`

	TreasuresTotal     int `json:"treasures_total"`
	TreasuresCollected int `json:"treasures_collected"`
	TreasuresRemaining int `json:"treasures_remaining"`
	RewardsRemaining   int `json:"rewards_remaining"`

	Steps []StepRecord `json:"steps,omitempty"`
}

// Collected returns the legs that picked up their target
func (r *RunResult) Collected() []LegReport {
	var legs []LegReport
	for _, leg := range r.Legs {
		if leg.Outcome == OutcomeCollected {
			legs = append(legs, leg)
		}
	}
	return legs
}

// Run builds a world from config and collects every treasure in it
func Run(config *WorldConfig, opts ...WorldOption) (*RunResult, error) {
	return RunContext(context.Background(), config, opts...)
}

// RunContext is Run with cancellation checked between legs. A cancelled run
// returns the partial result together with the context error.
func RunContext(ctx context.Context, config *WorldConfig, opts ...WorldOption) (*RunResult, error) {
	world, err := config.NewWorld(opts...)
	if err != nil {
		return nil, err
	}

	player := world.Player()
	result := &RunResult{
		ConfigName:     config.Name,
		Rows:           world.Grid().Rows(),
		Cols:           world.Grid().Cols(),
		Start:          player.Position,
		InitialGrid:    world.Grid().Symbols(),
		StartingEnergy: player.Energy,
		TreasuresTotal: len(world.Registry().Treasures),
	}

	legs, runErr := world.CollectAllTreasuresContext(ctx)

	result.Legs = legs
	result.FinalGrid = world.Grid().Symbols()
	result.TotalSteps = world.Steps()
	result.FinalEnergy = player.Energy
	result.FinalPosition = player.Position
	result.FinalPlayer = *player.Clone()
	result.TreasuresCollected = len(world.collected)
	result.TreasuresRemaining = len(world.Registry().Treasures)
	result.RewardsRemaining = len(world.Registry().Rewards)
	result.Steps = world.History()

	return result, runErr
}
