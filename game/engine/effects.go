package engine

import "fmt"

// EffectSource tells whether an effect came from a trap or a reward
type EffectSource string

const (
	SourceTrap   EffectSource = "trap"
	SourceReward EffectSource = "reward"
)

// EffectEvent describes one trap or reward effect applied during a step
type EffectEvent struct {
	Source EffectSource `json:"source"`
	Kind   string       `json:"kind"`
	Symbol string       `json:"symbol"`
	At     Cell         `json:"at"`
	Detail string       `json:"detail"`
}

// applyEffects runs the trap pass and then the reward pass for the player's
// current position. Every trap at the cell fires; at most one reward does.
// Traps are looked up once, so a pushback landing cell's traps stay quiet,
// while the reward pass reads the position after any pushback.
func (w *World) applyEffects() []EffectEvent {
	var events []EffectEvent

	for _, trap := range w.registry.TrapsAt(w.player.Position) {
		events = append(events, w.applyTrap(trap))
	}

	if reward, ok := w.registry.TakeReward(w.player.Position); ok {
		events = append(events, w.applyReward(reward))
	}

	return events
}

func (w *World) applyTrap(trap Trap) EffectEvent {
	p := w.player
	event := EffectEvent{
		Source: SourceTrap,
		Kind:   trap.Type.String(),
		Symbol: trap.Type.Symbol(),
		At:     trap.Cell,
	}

	switch trap.Type {
	case SlowEnergy:
		p.EnergyPerStep *= 2
		event.Detail = fmt.Sprintf("energy per step now %g", p.EnergyPerStep)

	case SlowSpeed:
		p.Speed *= 0.5
		event.Detail = fmt.Sprintf("speed now %g", p.Speed)

	case Pushback:
		target := p.Position.Add(p.LastDirection.Scale(2))
		if w.grid.InBounds(target) {
			p.Position = target
			event.Detail = fmt.Sprintf("pushed to %s", target)
		} else {
			event.Detail = "pushback blocked by boundary"
		}

	case ClearTreasures:
		removed := w.registry.ClearTreasures()
		w.grid.Replace(TagTreasure, EmptyTag)
		event.Detail = fmt.Sprintf("%d uncollected treasures removed", len(removed))

	default:
		panic(fmt.Sprintf("engine: unhandled trap kind %v", trap.Type))
	}

	return event
}

func (w *World) applyReward(reward Reward) EffectEvent {
	p := w.player
	event := EffectEvent{
		Source: SourceReward,
		Kind:   reward.Type.String(),
		Symbol: reward.Type.Symbol(),
		At:     reward.Cell,
	}

	switch reward.Type {
	case HalveEnergyCost:
		p.EnergyPerStep = 0.5
		event.Detail = fmt.Sprintf("energy per step now %g", p.EnergyPerStep)

	case DoubleSpeed:
		p.Speed *= 2
		event.Detail = fmt.Sprintf("speed now %g", p.Speed)

	default:
		panic(fmt.Sprintf("engine: unhandled reward kind %v", reward.Type))
	}

	return event
}
