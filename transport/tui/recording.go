package tui

import (
	"context"
	"fmt"

	"github.com/wricardo/treasure-hunt/game/engine"
)

// Frame is the world as it looked after one step
type Frame struct {
	Grid   [][]string
	Step   *engine.StepRecord // nil for the initial frame
	Legs   []engine.LegReport // legs that finished on this step
	Player engine.Player
}

// Recording is a played world, one frame per step
type Recording struct {
	ConfigName string
	Frames     []Frame
	Legs       []engine.LegReport
}

// Record plays config to completion and keeps a frame after every step
func Record(ctx context.Context, config *engine.WorldConfig, opts ...engine.WorldOption) (*Recording, error) {
	var world *engine.World

	rec := &Recording{ConfigName: config.Name}
	observer := engine.ObserverFuncs{
		OnStep: func(step engine.StepRecord) {
			rec.Frames = append(rec.Frames, Frame{
				Grid:   world.Grid().Symbols(),
				Step:   &step,
				Player: *world.Player().Clone(),
			})
		},
		OnLeg: func(leg engine.LegReport) {
			last := &rec.Frames[len(rec.Frames)-1]
			last.Legs = append(last.Legs, leg)
		},
	}

	world, err := config.NewWorld(append(opts, engine.WithObserver(observer))...)
	if err != nil {
		return nil, err
	}

	rec.Frames = append(rec.Frames, Frame{
		Grid:   world.Grid().Symbols(),
		Player: *world.Player().Clone(),
	})

	legs, err := world.CollectAllTreasuresContext(ctx)
	rec.Legs = legs
	if err != nil {
		return rec, fmt.Errorf("recording %s: %w", config.Name, err)
	}
	return rec, nil
}

// Collected counts the legs that picked up their treasure up to frame i
func (r *Recording) Collected(i int) int {
	n := 0
	for _, frame := range r.Frames[:i+1] {
		for _, leg := range frame.Legs {
			if leg.Outcome == engine.OutcomeCollected {
				n++
			}
		}
	}
	return n
}
