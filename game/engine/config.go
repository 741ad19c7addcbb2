package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// WorldConfig describes a world layout and the player's starting state.
// Entities are given either as explicit lists or as a Layout, not both.
type WorldConfig struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Rows        int    `json:"rows" yaml:"rows"`
	Cols        int    `json:"cols" yaml:"cols"`
	Start       Cell   `json:"start" yaml:"start"`

	// Zero values select the defaults (100 energy, cost 1, speed 1).
	StartingEnergy float64 `json:"starting_energy,omitempty" yaml:"starting_energy,omitempty"`
	EnergyPerStep  float64 `json:"energy_per_step,omitempty" yaml:"energy_per_step,omitempty"`
	Speed          float64 `json:"speed,omitempty" yaml:"speed,omitempty"`

	Registry `yaml:",inline"`

	// Layout rows use one character per cell:
	//   . empty  S start  X treasure  O obstacle
	//   1-4 traps T1-T4   A reward R1  B reward R2
	Layout []string `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// LayoutLegend maps layout characters to their meaning
var LayoutLegend = map[rune]string{
	'.': "empty",
	'S': "player start",
	'X': "treasure",
	'O': "obstacle",
	'1': "trap T1 (slow_energy)",
	'2': "trap T2 (slow_speed)",
	'3': "trap T3 (pushback)",
	'4': "trap T4 (clear_treasures)",
	'A': "reward R1 (halve_energy_cost)",
	'B': "reward R2 (double_speed)",
}

// DefaultWorldConfig returns the canonical 6x10 world
func DefaultWorldConfig() *WorldConfig {
	return &WorldConfig{
		Name:        "classic",
		Description: "The original 6x10 treasure hunt",
		Rows:        DefaultRows,
		Cols:        DefaultCols,
		Start:       Cell{0, 0},
		Registry: Registry{
			Treasures: []Cell{{2, 5}, {4, 8}, {4, 9}, {5, 4}},
			Traps: []Trap{
				{Cell{1, 1}, SlowEnergy},
				{Cell{2, 3}, SlowSpeed},
				{Cell{3, 6}, Pushback},
				{Cell{4, 7}, ClearTreasures},
				{Cell{5, 2}, SlowEnergy},
				{Cell{0, 5}, SlowSpeed},
			},
			Rewards: []Reward{
				{Cell{0, 2}, HalveEnergyCost},
				{Cell{5, 9}, DoubleSpeed},
			},
			Obstacles: []Cell{{1, 4}, {1, 7}, {2, 6}, {3, 2}, {4, 4}, {5, 1}, {3, 3}, {2, 8}, {5, 5}},
		},
	}
}

// Resolve returns a copy of the config with the layout expanded into entity
// lists and defaults applied. The receiver is not modified.
func (c *WorldConfig) Resolve() (*WorldConfig, error) {
	out := *c
	out.Registry = *c.Registry.Clone()
	out.Layout = nil

	if len(c.Layout) > 0 {
		if len(c.Treasures)+len(c.Traps)+len(c.Rewards)+len(c.Obstacles) > 0 {
			return nil, fmt.Errorf("config validation: layout and entity lists are mutually exclusive")
		}
		if err := out.parseLayout(c.Layout); err != nil {
			return nil, err
		}
	}

	if out.StartingEnergy == 0 {
		out.StartingEnergy = DefaultStartingEnergy
	}
	if out.EnergyPerStep == 0 {
		out.EnergyPerStep = DefaultEnergyPerStep
	}
	if out.Speed == 0 {
		out.Speed = DefaultSpeed
	}
	return &out, nil
}

func (c *WorldConfig) parseLayout(layout []string) error {
	width := utf8.RuneCountInString(layout[0])
	if c.Rows == 0 {
		c.Rows = len(layout)
	}
	if c.Cols == 0 {
		c.Cols = width
	}
	if len(layout) != c.Rows {
		return fmt.Errorf("config validation: layout must have %d rows to match rows, got %d", c.Rows, len(layout))
	}

	hasStart := false
	for r, row := range layout {
		if n := utf8.RuneCountInString(row); n != c.Cols {
			return fmt.Errorf("config validation: layout row %d must have %d characters to match cols, got %d",
				r+1, c.Cols, n)
		}
		col := -1
		for _, char := range row {
			col++
			cell := Cell{Row: r, Col: col}
			switch char {
			case '.':
			case 'S':
				if hasStart {
					return fmt.Errorf("config validation: layout has more than one start (S) cell")
				}
				hasStart = true
				c.Start = cell
			case 'X':
				c.Treasures = append(c.Treasures, cell)
			case 'O':
				c.Obstacles = append(c.Obstacles, cell)
			case '1', '2', '3', '4':
				c.Traps = append(c.Traps, Trap{Cell: cell, Type: TrapKinds[char-'1']})
			case 'A', 'B':
				c.Rewards = append(c.Rewards, Reward{Cell: cell, Type: RewardKinds[char-'A']})
			default:
				return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", char, r+1, col+1)
			}
		}
	}
	return nil
}

// ValidateWorldConfig validates a world configuration for correctness
func ValidateWorldConfig(config *WorldConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	resolved, err := config.Resolve()
	if err != nil {
		return err
	}

	if resolved.Rows < MinGridSize || resolved.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, resolved.Rows)
	}
	if resolved.Cols < MinGridSize || resolved.Cols > MaxGridSize {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridSize, MaxGridSize, resolved.Cols)
	}
	for _, field := range []struct {
		name  string
		value float64
	}{
		{"starting_energy", resolved.StartingEnergy},
		{"energy_per_step", resolved.EnergyPerStep},
		{"speed", resolved.Speed},
	} {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return fmt.Errorf("config validation: %s must be a finite number, got %g", field.name, field.value)
		}
	}
	if resolved.EnergyPerStep < 0 {
		return fmt.Errorf("config validation: energy_per_step must be positive, got %g", resolved.EnergyPerStep)
	}
	if resolved.Speed < 0 {
		return fmt.Errorf("config validation: speed must be positive, got %g", resolved.Speed)
	}

	inBounds := func(c Cell) bool {
		return c.Row >= 0 && c.Row < resolved.Rows && c.Col >= 0 && c.Col < resolved.Cols
	}
	check := func(what string, c Cell) error {
		if !inBounds(c) {
			return fmt.Errorf("config validation: %s at %s is outside the %dx%d grid", what, c, resolved.Rows, resolved.Cols)
		}
		return nil
	}

	if err := check("start", resolved.Start); err != nil {
		return err
	}
	if resolved.IsObstacle(resolved.Start) {
		return fmt.Errorf("config validation: start %s is an obstacle", resolved.Start)
	}
	if len(resolved.Treasures) == 0 {
		return fmt.Errorf("config validation: at least one treasure is required")
	}
	for _, t := range resolved.Treasures {
		if err := check("treasure", t); err != nil {
			return err
		}
	}
	for _, t := range resolved.Traps {
		if err := check("trap", t.Cell); err != nil {
			return err
		}
		if !t.Type.Valid() {
			return fmt.Errorf("config validation: trap at %s has no valid type", t.Cell)
		}
	}
	for _, r := range resolved.Rewards {
		if err := check("reward", r.Cell); err != nil {
			return err
		}
		if !r.Type.Valid() {
			return fmt.Errorf("config validation: reward at %s has no valid type", r.Cell)
		}
	}
	for _, o := range resolved.Obstacles {
		if err := check("obstacle", o); err != nil {
			return err
		}
	}

	return nil
}

// NewWorld builds a ready-to-run world from the config: the player is placed
// first and the grid is arranged afterwards, so an entity on the start cell
// hides the player symbol until the first move.
func (c *WorldConfig) NewWorld(opts ...WorldOption) (*World, error) {
	if err := ValidateWorldConfig(c); err != nil {
		return nil, err
	}
	resolved, err := c.Resolve()
	if err != nil {
		return nil, err
	}

	w := NewWorld(resolved.Rows, resolved.Cols, opts...)

	player := NewPlayer(resolved.Start)
	player.Energy = resolved.StartingEnergy
	player.EnergyPerStep = resolved.EnergyPerStep
	player.Speed = resolved.Speed
	w.SetPlayer(player)

	w.SetRegistry(resolved.Registry.Clone())
	w.ArrangeGrid()
	return w, nil
}

// ParseWorldConfig decodes a config from JSON or YAML. format is "json",
// "yaml" or "yml".
func ParseWorldConfig(data []byte, format string) (*WorldConfig, error) {
	var config WorldConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return &config, nil
}

// FormatFromPath returns the config format implied by a file extension
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// LoadWorldConfig loads and validates a world configuration file
func LoadWorldConfig(filename string) (*WorldConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseWorldConfig(data, FormatFromPath(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateWorldConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", filename, err)
	}

	return config, nil
}
