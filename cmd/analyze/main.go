// Command analyze prints quick, human-readable heuristics about the world
// configurations in a directory: dimensions, entity counts, the distance from
// the start to every treasure, the traps the planner would cross and the
// outcome of a dry run.
//
// Usage:
//
//	go run ./cmd/analyze [configs-dir]
package main

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

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := configFiles(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failed := false
	for _, path := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		if err := analyzeConfig(os.Stdout, path); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// configFiles lists the config files of dir in name order
func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, known := range config.Extensions {
			if ext == known {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func analyzeConfig(w io.Writer, path string) error {
	cfg, err := engine.LoadWorldConfig(path)
	if err != nil {
		return err
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return err
	}
	world, err := cfg.NewWorld()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Name: %s\n", resolved.Name)
	if resolved.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", resolved.Description)
	}
	fmt.Fprintf(w, "Grid Size: %d x %d\n", resolved.Rows, resolved.Cols)
	fmt.Fprintf(w, "Start: %s\n", resolved.Start)
	fmt.Fprintf(w, "Energy: %g (cost %g per step, speed %g)\n",
		resolved.StartingEnergy, resolved.EnergyPerStep, resolved.Speed)
	fmt.Fprintf(w, "Treasures: %d  Traps: %d  Rewards: %d  Obstacles: %d\n",
		len(resolved.Treasures), len(resolved.Traps), len(resolved.Rewards), len(resolved.Obstacles))

	grid := world.Grid()
	registry := world.Registry()
	pathfinder := world.Pathfinder()

	reachable := engine.ReachableFrom(grid, resolved.Start)
	free := resolved.Rows*resolved.Cols - len(resolved.Obstacles)
	fmt.Fprintf(w, "Reachable cells: %d of %d open\n", len(reachable), free)

	unreachable := 0
	for i, treasure := range resolved.Treasures {
		dist, ok := engine.BFSDistance(grid, resolved.Start, treasure)
		if !ok {
			unreachable++
			fmt.Fprintf(w, "  #%d %s: unreachable\n", i+1, treasure)
			continue
		}

		var traps []string
		for _, cell := range pathfinder.Search(resolved.Start, treasure) {
			for _, trap := range registry.TrapsAt(cell) {
				traps = append(traps, trap.Type.Symbol()+"@"+trap.Cell.String())
			}
		}

		line := fmt.Sprintf("  #%d %s: manhattan %d, shortest %d",
			i+1, treasure, engine.ManhattanDistance(resolved.Start, treasure), dist)
		if len(traps) > 0 {
			line += ", traps on route: " + strings.Join(traps, " ")
		}
		fmt.Fprintln(w, line)
	}

	if unreachable > 0 {
		fmt.Fprintf(w, "WARNING: %d treasure(s) cannot be reached from the start\n", unreachable)
	}

	result, err := engine.Run(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Dry run: %d/%d treasures collected in %d steps, final energy %g\n",
		result.TreasuresCollected, result.TreasuresTotal, result.TotalSteps, result.FinalEnergy)

	return nil
}
