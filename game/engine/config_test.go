package engine

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *WorldConfig {
	return &WorldConfig{
		Name:        "Test Config",
		Description: "A valid test configuration",
		Rows:        4,
		Cols:        5,
		Start:       Cell{0, 0},
		Registry: Registry{
			Treasures: []Cell{{3, 4}, {0, 4}},
			Traps:     []Trap{{Cell{2, 2}, SlowSpeed}},
			Rewards:   []Reward{{Cell{1, 0}, DoubleSpeed}},
			Obstacles: []Cell{{1, 1}, {1, 2}},
		},
	}
}

func TestValidateWorldConfig_ValidConfig(t *testing.T) {
	if err := ValidateWorldConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
}

func TestValidateWorldConfig_DefaultConfig(t *testing.T) {
	if err := ValidateWorldConfig(DefaultWorldConfig()); err != nil {
		t.Errorf("Expected default config to pass validation, got: %v", err)
	}
}

func TestValidateWorldConfig_Errors(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *WorldConfig)
		expectedError string
	}{
		{"missing name", func(c *WorldConfig) { c.Name = "" }, "name is required"},
		{"zero rows", func(c *WorldConfig) { c.Rows = 0 }, "rows must be between"},
		{"too many cols", func(c *WorldConfig) { c.Cols = MaxGridSize + 1 }, "cols must be between"},
		{"start outside", func(c *WorldConfig) { c.Start = Cell{4, 0} }, "start at (4, 0) is outside"},
		{"start on obstacle", func(c *WorldConfig) { c.Start = Cell{1, 1} }, "is an obstacle"},
		{"no treasures", func(c *WorldConfig) { c.Treasures = nil }, "at least one treasure"},
		{"treasure outside", func(c *WorldConfig) { c.Treasures = []Cell{{0, 5}} }, "treasure at (0, 5) is outside"},
		{"trap outside", func(c *WorldConfig) { c.Traps = []Trap{{Cell{-1, 0}, Pushback}} }, "trap at (-1, 0) is outside"},
		{"trap without type", func(c *WorldConfig) { c.Traps = []Trap{{Cell: Cell{2, 2}}} }, "has no valid type"},
		{"reward without type", func(c *WorldConfig) { c.Rewards = []Reward{{Cell: Cell{2, 2}}} }, "has no valid type"},
		{"obstacle outside", func(c *WorldConfig) { c.Obstacles = []Cell{{9, 9}} }, "obstacle at (9, 9) is outside"},
		{"negative cost", func(c *WorldConfig) { c.EnergyPerStep = -1 }, "energy_per_step must be positive"},
		{"negative speed", func(c *WorldConfig) { c.Speed = -2 }, "speed must be positive"},
		{"nan speed", func(c *WorldConfig) { c.Speed = math.NaN() }, "speed must be a finite number"},
		{"infinite speed", func(c *WorldConfig) { c.Speed = math.Inf(1) }, "speed must be a finite number"},
		{"nan cost", func(c *WorldConfig) { c.EnergyPerStep = math.NaN() }, "energy_per_step must be a finite number"},
		{"negative infinite cost", func(c *WorldConfig) { c.EnergyPerStep = math.Inf(-1) }, "energy_per_step must be a finite number"},
		{"nan energy", func(c *WorldConfig) { c.StartingEnergy = math.NaN() }, "starting_energy must be a finite number"},
		{"infinite energy", func(c *WorldConfig) { c.StartingEnergy = math.Inf(1) }, "starting_energy must be a finite number"},
		{"layout with lists", func(c *WorldConfig) { c.Layout = []string{"S.X"} }, "mutually exclusive"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidConfig()
			test.mutate(config)
			err := ValidateWorldConfig(config)
			if err == nil {
				t.Fatalf("Expected error containing '%s'", test.expectedError)
			}
			if !strings.Contains(err.Error(), test.expectedError) {
				t.Errorf("Expected error containing '%s', got: %v", test.expectedError, err)
			}
		})
	}
}

func TestValidateWorldConfig_Nil(t *testing.T) {
	if err := ValidateWorldConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func layoutConfig(layout ...string) *WorldConfig {
	return &WorldConfig{Name: "layout", Layout: layout}
}

func TestResolve_Layout(t *testing.T) {
	config := layoutConfig(
		"S.1O",
		".X2A",
		"B34X",
	)

	resolved, err := config.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if resolved.Rows != 3 || resolved.Cols != 4 {
		t.Errorf("Expected 3x4 grid from layout, got %dx%d", resolved.Rows, resolved.Cols)
	}
	if resolved.Start != (Cell{0, 0}) {
		t.Errorf("Expected start (0, 0), got %s", resolved.Start)
	}
	if len(resolved.Treasures) != 2 || resolved.Treasures[0] != (Cell{1, 1}) || resolved.Treasures[1] != (Cell{2, 3}) {
		t.Errorf("Unexpected treasures: %v", resolved.Treasures)
	}
	if len(resolved.Obstacles) != 1 || resolved.Obstacles[0] != (Cell{0, 3}) {
		t.Errorf("Unexpected obstacles: %v", resolved.Obstacles)
	}

	wantTraps := []Trap{
		{Cell{0, 2}, SlowEnergy},
		{Cell{1, 2}, SlowSpeed},
		{Cell{2, 1}, Pushback},
		{Cell{2, 2}, ClearTreasures},
	}
	if len(resolved.Traps) != len(wantTraps) {
		t.Fatalf("Expected %d traps, got %d", len(wantTraps), len(resolved.Traps))
	}
	for i, want := range wantTraps {
		if resolved.Traps[i] != want {
			t.Errorf("Trap %d: expected %v, got %v", i, want, resolved.Traps[i])
		}
	}

	if len(resolved.Rewards) != 2 ||
		resolved.Rewards[0] != (Reward{Cell{1, 3}, HalveEnergyCost}) ||
		resolved.Rewards[1] != (Reward{Cell{2, 0}, DoubleSpeed}) {
		t.Errorf("Unexpected rewards: %v", resolved.Rewards)
	}

	if resolved.StartingEnergy != DefaultStartingEnergy || resolved.EnergyPerStep != DefaultEnergyPerStep || resolved.Speed != DefaultSpeed {
		t.Errorf("Expected defaults to be applied, got energy=%g cost=%g speed=%g",
			resolved.StartingEnergy, resolved.EnergyPerStep, resolved.Speed)
	}

	if len(config.Treasures) != 0 || len(config.Layout) != 3 {
		t.Error("Resolve must not modify the receiver")
	}
}

func TestResolve_LayoutErrors(t *testing.T) {
	tests := []struct {
		name          string
		config        *WorldConfig
		expectedError string
	}{
		{"ragged row", layoutConfig("S.X", "..", "..."), "layout row 2 must have 3 characters"},
		{"bad character", layoutConfig("S.Z"), "invalid character 'Z'"},
		{"two starts", layoutConfig("S.S", "..X"), "more than one start"},
		{"row count mismatch", &WorldConfig{Name: "x", Rows: 3, Layout: []string{"SX"}}, "layout must have 3 rows"},
		{"multi-byte ragged row", layoutConfig("S.X", "é."), "layout row 2 must have 3 characters to match cols, got 2"},
		{"multi-byte bad character", layoutConfig("Sé.X"), "invalid character 'é' at row 1, col 2"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.config.Resolve()
			if err == nil {
				t.Fatalf("Expected error containing '%s'", test.expectedError)
			}
			if !strings.Contains(err.Error(), test.expectedError) {
				t.Errorf("Expected error containing '%s', got: %v", test.expectedError, err)
			}
		})
	}
}

func TestParseWorldConfig_YAMLNonFinite(t *testing.T) {
	tests := []struct {
		field string
		value string
	}{
		{"speed", ".nan"},
		{"speed", ".inf"},
		{"energy_per_step", "-.inf"},
		{"starting_energy", ".nan"},
	}

	for _, test := range tests {
		t.Run(test.field+"="+test.value, func(t *testing.T) {
			data := []byte("name: odd\n" + test.field + ": " + test.value + "\nlayout:\n  - \"S..X\"\n")
			config, err := ParseWorldConfig(data, "yaml")
			if err != nil {
				t.Fatalf("ParseWorldConfig failed: %v", err)
			}
			err = ValidateWorldConfig(config)
			if err == nil || !strings.Contains(err.Error(), test.field+" must be a finite number") {
				t.Fatalf("Expected a finite number error for %s, got %v", test.field, err)
			}
			if _, err := Run(config); err == nil {
				t.Error("Expected Run to refuse the config instead of simulating it")
			}
		})
	}
}

func TestParseWorldConfig_JSON(t *testing.T) {
	data := []byte(`{
		"name": "json",
		"rows": 2,
		"cols": 3,
		"start": {"row": 0, "col": 0},
		"starting_energy": 50,
		"treasures": [{"row": 1, "col": 2}],
		"traps": [{"row": 0, "col": 1, "type": "pushback"}, {"row": 1, "col": 1, "type": "T4"}],
		"rewards": [{"row": 1, "col": 0, "type": "R2"}],
		"obstacles": []
	}`)

	config, err := ParseWorldConfig(data, "json")
	if err != nil {
		t.Fatalf("ParseWorldConfig failed: %v", err)
	}

	if config.StartingEnergy != 50 {
		t.Errorf("Expected starting energy 50, got %g", config.StartingEnergy)
	}
	if len(config.Traps) != 2 || config.Traps[0].Type != Pushback || config.Traps[1].Type != ClearTreasures {
		t.Errorf("Unexpected traps: %+v", config.Traps)
	}
	if config.Traps[0].Cell != (Cell{0, 1}) {
		t.Errorf("Expected trap cell (0, 1), got %s", config.Traps[0].Cell)
	}
	if len(config.Rewards) != 1 || config.Rewards[0].Type != DoubleSpeed {
		t.Errorf("Unexpected rewards: %+v", config.Rewards)
	}
	if err := ValidateWorldConfig(config); err != nil {
		t.Errorf("Expected parsed config to be valid, got: %v", err)
	}
}

func TestParseWorldConfig_YAML(t *testing.T) {
	data := []byte(`
name: yaml
rows: 3
cols: 3
start: {row: 2, col: 0}
treasures:
  - {row: 0, col: 2}
traps:
  - {row: 1, col: 1, type: slow_energy}
rewards:
  - {row: 0, col: 0, type: halve_energy_cost}
obstacles:
  - {row: 1, col: 0}
`)

	config, err := ParseWorldConfig(data, "yaml")
	if err != nil {
		t.Fatalf("ParseWorldConfig failed: %v", err)
	}

	if config.Start != (Cell{2, 0}) {
		t.Errorf("Expected start (2, 0), got %s", config.Start)
	}
	if len(config.Traps) != 1 || config.Traps[0] != (Trap{Cell{1, 1}, SlowEnergy}) {
		t.Errorf("Unexpected traps: %+v", config.Traps)
	}
	if len(config.Rewards) != 1 || config.Rewards[0] != (Reward{Cell{0, 0}, HalveEnergyCost}) {
		t.Errorf("Unexpected rewards: %+v", config.Rewards)
	}
	if len(config.Obstacles) != 1 || config.Obstacles[0] != (Cell{1, 0}) {
		t.Errorf("Unexpected obstacles: %+v", config.Obstacles)
	}
}

func TestParseWorldConfig_YAMLLayout(t *testing.T) {
	data := []byte(`
name: gauntlet
layout:
  - "S1X"
  - "..."
`)

	config, err := ParseWorldConfig(data, "yml")
	if err != nil {
		t.Fatalf("ParseWorldConfig failed: %v", err)
	}
	if err := ValidateWorldConfig(config); err != nil {
		t.Errorf("Expected layout config to be valid, got: %v", err)
	}
}

func TestParseWorldConfig_Errors(t *testing.T) {
	if _, err := ParseWorldConfig([]byte(`{"name":`), "json"); err == nil {
		t.Error("Expected error for truncated JSON")
	}
	if _, err := ParseWorldConfig([]byte(`traps: [{type: T9}]`), "yaml"); err == nil {
		t.Error("Expected error for unknown trap type")
	}
	if _, err := ParseWorldConfig([]byte(`name = "x"`), "toml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestLoadWorldConfig(t *testing.T) {
	tempDir := t.TempDir()

	validPath := filepath.Join(tempDir, "valid.yaml")
	if err := os.WriteFile(validPath, []byte("name: ok\nlayout: [\"SX\"]\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	config, err := LoadWorldConfig(validPath)
	if err != nil {
		t.Fatalf("LoadWorldConfig failed: %v", err)
	}
	if config.Name != "ok" {
		t.Errorf("Expected name 'ok', got '%s'", config.Name)
	}

	invalidPath := filepath.Join(tempDir, "invalid.json")
	if err := os.WriteFile(invalidPath, []byte(`{"name": "bad", "rows": 2, "cols": 2}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadWorldConfig(invalidPath); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("Expected invalid config error, got: %v", err)
	}

	if _, err := LoadWorldConfig(filepath.Join(tempDir, "missing.json")); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got: %v", err)
	}
}

func TestWorldConfigNewWorld(t *testing.T) {
	config := createValidConfig()
	config.StartingEnergy = 40
	config.EnergyPerStep = 2

	world, err := config.NewWorld()
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}

	p := world.Player()
	if p.Energy != 40 || p.EnergyPerStep != 2 || p.Speed != DefaultSpeed {
		t.Errorf("Unexpected player state: %+v", p)
	}
	if got := world.Grid().Get(Cell{2, 2}); got != TrapTag(SlowSpeed) {
		t.Errorf("Expected T2 at (2, 2), got %s", got.Symbol())
	}
	if got := world.Grid().Get(Cell{1, 0}); got != RewardTag(DoubleSpeed) {
		t.Errorf("Expected R2 at (1, 0), got %s", got.Symbol())
	}

	world.Registry().RemoveTreasure(Cell{3, 4})
	if len(config.Treasures) != 2 {
		t.Error("World registry must not alias the config")
	}

	config.Name = ""
	if _, err := config.NewWorld(); err == nil {
		t.Error("Expected NewWorld to reject an invalid config")
	}
}
