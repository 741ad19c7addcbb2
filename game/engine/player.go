package engine

// Player is the mutable agent state of a run
type Player struct {
	Position      Cell      `json:"position"`
	Energy        float64   `json:"energy"`
	EnergyPerStep float64   `json:"energy_per_step"`
	Speed         float64   `json:"speed"`
	LastDirection Direction `json:"last_direction"`
}

// NewPlayer creates a player at start with the default energy, cost and speed
func NewPlayer(start Cell) *Player {
	return &Player{
		Position:      start,
		Energy:        DefaultStartingEnergy,
		EnergyPerStep: DefaultEnergyPerStep,
		Speed:         DefaultSpeed,
	}
}

// Move records dir as the last direction and moves the player by dir scaled
// by its speed. The candidate is bounds-checked before truncation to integer
// coordinates; a move that would leave the rows x cols grid is dropped.
// Move reports whether the position was applied.
func (p *Player) Move(dir Direction, rows, cols int) bool {
	p.LastDirection = dir

	row := float64(p.Position.Row) + float64(dir.DRow)*p.Speed
	col := float64(p.Position.Col) + float64(dir.DCol)*p.Speed
	if row < 0 || row >= float64(rows) || col < 0 || col >= float64(cols) {
		return false
	}

	p.Position = Cell{Row: int(row), Col: int(col)}
	return true
}

// Clone returns a copy of the player
func (p *Player) Clone() *Player {
	cp := *p
	return &cp
}
