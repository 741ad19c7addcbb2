// Package validate checks world configuration files before they are served.
//
// A file is invalid when it cannot be parsed or fails
// engine.ValidateWorldConfig. Treasures that cannot be reached from the start
// are legal (the run reports them as unreachable) and only produce warnings,
// as do entities sharing a cell.
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/treasure-hunt/game/config"
	"github.com/wricardo/treasure-hunt/game/engine"
)

// Result captures the outcome of validating a single file
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// File loads and validates a single configuration file
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	cfg, err := engine.ParseWorldConfig(data, engine.FormatFromPath(path))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	return Config(result.File, cfg)
}

// Config validates an already decoded configuration
func Config(name string, cfg *engine.WorldConfig) Result {
	result := Result{File: name, Valid: true}

	if err := engine.ValidateWorldConfig(cfg); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Warnings = append(result.Warnings, connectivity(resolved)...)
	result.Warnings = append(result.Warnings, overlaps(resolved)...)

	result.Info = append(result.Info,
		fmt.Sprintf("Name: %s", resolved.Name),
		fmt.Sprintf("Grid: %dx%d", resolved.Rows, resolved.Cols),
		fmt.Sprintf("Start: %s", resolved.Start),
		fmt.Sprintf("Treasures: %d", len(resolved.Treasures)),
		fmt.Sprintf("Traps: %d", len(resolved.Traps)),
		fmt.Sprintf("Rewards: %d", len(resolved.Rewards)),
		fmt.Sprintf("Obstacles: %d", len(resolved.Obstacles)),
		fmt.Sprintf("Energy: %g (cost %g, speed %g)", resolved.StartingEnergy, resolved.EnergyPerStep, resolved.Speed),
	)

	return result
}

// connectivity warns about treasures no path from the start can reach
func connectivity(cfg *engine.WorldConfig) []string {
	world, err := cfg.NewWorld()
	if err != nil {
		return []string{fmt.Sprintf("Cannot build world: %v", err)}
	}

	reachable := engine.ReachableFrom(world.Grid(), cfg.Start)

	var warnings []string
	for _, treasure := range cfg.Treasures {
		if !reachable[treasure] {
			warnings = append(warnings, fmt.Sprintf("Treasure at %s is unreachable from start %s", treasure, cfg.Start))
		}
	}
	return warnings
}

// overlaps warns about cells holding more than one entity
func overlaps(cfg *engine.WorldConfig) []string {
	occupants := map[engine.Cell][]string{}
	add := func(c engine.Cell, what string) {
		occupants[c] = append(occupants[c], what)
	}

	for _, c := range cfg.Treasures {
		add(c, "treasure")
	}
	for _, t := range cfg.Traps {
		add(t.Cell, "trap "+t.Type.Symbol())
	}
	for _, r := range cfg.Rewards {
		add(r.Cell, "reward "+r.Type.Symbol())
	}
	for _, c := range cfg.Obstacles {
		add(c, "obstacle")
	}

	cells := make([]engine.Cell, 0, len(occupants))
	for c, what := range occupants {
		if len(what) > 1 {
			cells = append(cells, c)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})

	warnings := make([]string, 0, len(cells))
	for _, c := range cells {
		warnings = append(warnings, fmt.Sprintf("Cell %s holds %s", c, strings.Join(occupants[c], ", ")))
	}
	return warnings
}

// Dir validates every configuration file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() || !isConfigFile(entry.Name()) {
			continue
		}
		results = append(results, File(filepath.Join(dir, entry.Name())))
	}
	return results, nil
}

func isConfigFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range config.Extensions {
		if ext == known {
			return true
		}
	}
	return false
}

// Report prints results and returns whether every file is valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  error: "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  warning: "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No configuration files found")
	case allValid:
		fmt.Fprintf(w, "All %d configurations are valid\n", len(results))
	default:
		fmt.Fprintln(w, "Some configurations have errors")
	}
	return allValid
}
