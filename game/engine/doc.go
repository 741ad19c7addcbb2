// Package engine provides the treasure hunt simulation.
//
// A World owns a fixed-size Grid, the entity Registry (treasures, traps,
// rewards, obstacles) and a single Player. The player is driven one cell at a
// time with MovePlayer; after every step traps fire, then at most one reward,
// and a treasure under the player is collected.
//
// CollectAllTreasures snapshots the treasure list and, for each target in
// order, plans an A* path from the player's current cell and replays it.
// Every attempt produces a LegReport; targets that disappear before their
// turn (cleared by a trap or picked up on the way) are reported as skipped.
//
// Usage:
//
//	config := engine.DefaultWorldConfig()
//	result, err := engine.Run(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, leg := range result.Legs {
//		fmt.Println(leg.Target, leg.Outcome, leg.Steps)
//	}
//
// Rules:
//
//	T1 slow_energy       doubles the energy charged per step
//	T2 slow_speed        halves the speed
//	T3 pushback          moves the player two more cells along its last direction
//	T4 clear_treasures   removes every uncollected treasure
//	R1 halve_energy_cost sets the energy per step to 0.5 (consumed)
//	R2 double_speed      doubles the speed (consumed)
//
// Worlds are not safe for concurrent use. Configurations are never mutated
// by a run, so one WorldConfig can back any number of concurrent runs.
package engine
