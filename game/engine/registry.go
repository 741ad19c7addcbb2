package engine

// Registry holds the entity positions of a world. Treasures and rewards
// shrink during a run; traps and obstacles never change.
type Registry struct {
	Treasures []Cell   `json:"treasures" yaml:"treasures"`
	Traps     []Trap   `json:"traps" yaml:"traps"`
	Rewards   []Reward `json:"rewards" yaml:"rewards"`
	Obstacles []Cell   `json:"obstacles" yaml:"obstacles"`
}

// Clone returns a deep copy so a run never mutates its configuration
func (r *Registry) Clone() *Registry {
	return &Registry{
		Treasures: append([]Cell(nil), r.Treasures...),
		Traps:     append([]Trap(nil), r.Traps...),
		Rewards:   append([]Reward(nil), r.Rewards...),
		Obstacles: append([]Cell(nil), r.Obstacles...),
	}
}

// HasTreasure reports whether c is still an uncollected treasure
func (r *Registry) HasTreasure(c Cell) bool {
	for _, t := range r.Treasures {
		if t == c {
			return true
		}
	}
	return false
}

// RemoveTreasure drops the first treasure at c and reports whether one was found
func (r *Registry) RemoveTreasure(c Cell) bool {
	for i, t := range r.Treasures {
		if t == c {
			r.Treasures = append(r.Treasures[:i], r.Treasures[i+1:]...)
			return true
		}
	}
	return false
}

// ClearTreasures empties the treasure list and returns what was removed
func (r *Registry) ClearTreasures() []Cell {
	removed := r.Treasures
	r.Treasures = []Cell{}
	return removed
}

// TrapsAt returns every trap located at c, in registry order
func (r *Registry) TrapsAt(c Cell) []Trap {
	var traps []Trap
	for _, t := range r.Traps {
		if t.Cell == c {
			traps = append(traps, t)
		}
	}
	return traps
}

// TakeReward removes and returns the first reward located at c
func (r *Registry) TakeReward(c Cell) (Reward, bool) {
	for i, rw := range r.Rewards {
		if rw.Cell == c {
			r.Rewards = append(r.Rewards[:i], r.Rewards[i+1:]...)
			return rw, true
		}
	}
	return Reward{}, false
}

// IsObstacle reports whether c is listed as an obstacle
func (r *Registry) IsObstacle(c Cell) bool {
	for _, o := range r.Obstacles {
		if o == c {
			return true
		}
	}
	return false
}
