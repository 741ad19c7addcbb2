package engine

import (
	"context"

	"github.com/charmbracelet/log"
)

// Observer receives progress notifications while a world is being played
type Observer interface {
	StepTaken(step StepRecord)
	LegFinished(leg LegReport)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	OnStep func(StepRecord)
	OnLeg  func(LegReport)
}

func (o ObserverFuncs) StepTaken(step StepRecord) {
	if o.OnStep != nil {
		o.OnStep(step)
	}
}

func (o ObserverFuncs) LegFinished(leg LegReport) {
	if o.OnLeg != nil {
		o.OnLeg(leg)
	}
}

// WorldOption configures a World
type WorldOption func(*World)

// WithObserver registers an observer notified after every step and leg
func WithObserver(o Observer) WorldOption {
	return func(w *World) { w.observer = o }
}

// WithLogger enables debug logging of steps and legs
func WithLogger(l *log.Logger) WorldOption {
	return func(w *World) { w.logger = l }
}

// WithReplanLimit allows up to n extra plans per treasure when replaying a
// path leaves the player short of its target
func WithReplanLimit(n int) WorldOption {
	return func(w *World) {
		if n > 0 {
			w.replanLimit = n
		}
	}
}

// World owns the grid, the entity registry and the player of one run.
// It is not safe for concurrent use.
type World struct {
	grid       *Grid
	registry   *Registry
	player     *Player
	pathfinder *Pathfinder

	steps     int
	history   []StepRecord
	collected map[Cell]bool

	observer    Observer
	logger      *log.Logger
	replanLimit int
}

// NewWorld creates an empty rows x cols world. Non-positive dimensions panic.
func NewWorld(rows, cols int, opts ...WorldOption) *World {
	grid := NewGrid(rows, cols)
	w := &World{
		grid:       grid,
		registry:   &Registry{},
		pathfinder: NewPathfinder(grid),
		collected:  make(map[Cell]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetPlayer places the player and marks its cell
func (w *World) SetPlayer(p *Player) {
	w.player = p
	w.grid.Set(p.Position, PlayerTag)
}

// SetRegistry replaces the entity registry. The world takes ownership of r.
func (w *World) SetRegistry(r *Registry) {
	w.registry = r
}

// ArrangeGrid writes treasures, traps, obstacles and rewards onto the grid in
// that order; a later write wins when two entities share a cell.
func (w *World) ArrangeGrid() {
	for _, t := range w.registry.Treasures {
		w.grid.Set(t, TreasureTag)
	}
	for _, t := range w.registry.Traps {
		w.grid.Set(t.Cell, TrapTag(t.Type))
	}
	for _, o := range w.registry.Obstacles {
		w.grid.Set(o, ObstacleTag)
	}
	for _, r := range w.registry.Rewards {
		w.grid.Set(r.Cell, RewardTag(r.Type))
	}
}

// Display renders the grid without mutating anything
func (w *World) Display() string {
	return w.grid.String()
}

// Grid returns the world grid
func (w *World) Grid() *Grid { return w.grid }

// Registry returns the live entity registry
func (w *World) Registry() *Registry { return w.registry }

// Player returns the player, nil until SetPlayer is called
func (w *World) Player() *Player { return w.player }

// Steps returns the number of moves made so far
func (w *World) Steps() int { return w.steps }

// History returns every step taken so far
func (w *World) History() []StepRecord { return w.history }

// Pathfinder returns the pathfinder bound to the world grid
func (w *World) Pathfinder() *Pathfinder { return w.pathfinder }

// CollectAllTreasures visits every treasure present when the call starts, in
// registry order, and returns one report per target.
//
// Targets are snapshotted before the first leg. A target removed before its
// leg starts (collected en route or cleared by a trap) is reported as skipped.
func (w *World) CollectAllTreasures() []LegReport {
	legs, _ := w.CollectAllTreasuresContext(context.Background())
	return legs
}

// CollectAllTreasuresContext is CollectAllTreasures with cancellation checked
// between legs. On cancellation the legs completed so far are returned.
func (w *World) CollectAllTreasuresContext(ctx context.Context) ([]LegReport, error) {
	targets := append([]Cell(nil), w.registry.Treasures...)
	legs := make([]LegReport, 0, len(targets))

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return legs, err
		}
		leg := w.collectTreasure(i+1, target)
		legs = append(legs, leg)

		if w.logger != nil {
			w.logger.Debug("leg finished",
				"target", target.String(),
				"outcome", leg.Outcome,
				"steps", leg.Steps,
				"energy", leg.EnergyConsumed)
		}
		if w.observer != nil {
			w.observer.LegFinished(leg)
		}
	}

	return legs, nil
}

// collectTreasure plans and replays the path to one target
func (w *World) collectTreasure(index int, target Cell) (leg LegReport) {
	p := w.player
	leg = LegReport{
		Index:         index,
		Target:        target,
		StartPosition: p.Position,
	}
	startSteps, startEnergy := w.steps, p.Energy

	defer func() {
		leg.Steps = w.steps - startSteps
		leg.EnergyConsumed = startEnergy - p.Energy
		leg.EndPosition = p.Position
		leg.EnergyAfter = p.Energy
	}()

	if !w.registry.HasTreasure(target) {
		leg.Outcome = OutcomeSkipped
		leg.Reason = ReasonCleared
		if w.collected[target] {
			leg.Reason = ReasonAlreadyCollected
		}
		return leg
	}

	for attempt := 0; attempt <= w.replanLimit; attempt++ {
		if p.Position == target {
			// Standing on the target: nothing to plan.
			w.collect(target)
			w.grid.Set(target, PlayerTag)
			break
		}

		path := w.pathfinder.Search(p.Position, target)
		if len(path) == 0 {
			break
		}
		if attempt == 0 {
			leg.PlannedLength = len(path)
		}
		leg.Plans++

		prev := p.Position
		for _, next := range path {
			w.MovePlayer(DirectionBetween(prev, next))
			prev = next
		}

		if !w.registry.HasTreasure(target) {
			break
		}
	}

	switch {
	case w.collected[target]:
		leg.Outcome = OutcomeCollected
	case leg.Plans == 0:
		leg.Outcome = OutcomeUnreachable
		leg.Reason = ReasonNoPath
	case !w.registry.HasTreasure(target):
		leg.Outcome = OutcomeMissed
		leg.Reason = ReasonCleared
	default:
		leg.Outcome = OutcomeMissed
		leg.Reason = ReasonOffCourse
	}

	return leg
}

// collect removes the treasure at c and remembers it was picked up
func (w *World) collect(c Cell) bool {
	if !w.registry.RemoveTreasure(c) {
		return false
	}
	w.collected[c] = true
	return true
}
