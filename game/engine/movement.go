package engine

// StepRecord describes one call to MovePlayer
type StepRecord struct {
	Step          int           `json:"step"`
	Direction     Direction     `json:"direction"`
	From          Cell          `json:"from"`
	To            Cell          `json:"to"`
	Moved         bool          `json:"moved"`
	EnergyBefore  float64       `json:"energy_before"`
	EnergyAfter   float64       `json:"energy_after"`
	EnergyPerStep float64       `json:"energy_per_step"`
	Speed         float64       `json:"speed"`
	Effects       []EffectEvent `json:"effects,omitempty"`
	Collected     bool          `json:"collected,omitempty"`
}

// LegOutcome is the result of trying to reach one treasure
type LegOutcome string

const (
	OutcomeCollected   LegOutcome = "collected"
	OutcomeUnreachable LegOutcome = "unreachable"
	OutcomeMissed      LegOutcome = "missed"
	OutcomeSkipped     LegOutcome = "skipped"
)

// Reasons attached to legs that did not collect their target
const (
	ReasonNoPath           = "no_path"
	ReasonCleared          = "cleared"
	ReasonAlreadyCollected = "already_collected"
	ReasonOffCourse        = "off_course"
)

// LegReport summarises the attempt to reach one treasure
type LegReport struct {
	Index          int        `json:"index"`
	Target         Cell       `json:"target"`
	Outcome        LegOutcome `json:"outcome"`
	Reason         string     `json:"reason,omitempty"`
	Steps          int        `json:"steps"`
	EnergyConsumed float64    `json:"energy_consumed"`
	EnergyAfter    float64    `json:"energy_after"`
	StartPosition  Cell       `json:"start_position"`
	EndPosition    Cell       `json:"end_position"`
	PlannedLength  int        `json:"planned_length"`
	Plans          int        `json:"plans"`
}

// MovePlayer moves the player one step in dir and resolves everything the
// step triggers: the old cell is cleared, the step counter advances, energy
// is charged at the current per-step cost, traps and then rewards apply, a
// treasure under the final position is collected and the player is drawn
// at its new cell.
func (w *World) MovePlayer(dir Direction) StepRecord {
	p := w.player
	record := StepRecord{
		Direction:    dir,
		From:         p.Position,
		EnergyBefore: p.Energy,
	}

	w.grid.Set(p.Position, EmptyTag)
	record.Moved = p.Move(dir, w.grid.Rows(), w.grid.Cols())
	w.steps++
	p.Energy -= p.EnergyPerStep

	record.Effects = w.applyEffects()
	record.Collected = w.collect(p.Position)

	w.grid.Set(p.Position, PlayerTag)

	record.Step = w.steps
	record.To = p.Position
	record.EnergyAfter = p.Energy
	record.EnergyPerStep = p.EnergyPerStep
	record.Speed = p.Speed

	w.history = append(w.history, record)

	if w.logger != nil {
		w.logger.Debug("step",
			"n", record.Step,
			"dir", dir.Name(),
			"from", record.From.String(),
			"to", record.To.String(),
			"energy", record.EnergyAfter,
			"effects", len(record.Effects))
	}
	if w.observer != nil {
		w.observer.StepTaken(record)
	}

	return record
}
