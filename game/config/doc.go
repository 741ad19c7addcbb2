// Package config provides configuration management for the treasure hunt.
//
// The config package handles:
//   - Loading world configurations from JSON and YAML files
//   - Configuration validation through the engine
//   - Default configuration selection
//   - Configuration discovery and listing
//
// Configuration Format:
//
// World configurations are stored in the configs directory as .json, .yaml
// or .yml files; the file name without extension is the config ID. A file
// either lists treasures, traps, rewards and obstacles explicitly or draws
// them with a character layout:
//
//	name: gauntlet
//	layout:
//	  - "S..1..X"
//	  - ".O.O.O."
//	  - "X.A.3.X"
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	world, err := manager.LoadConfig("classic")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default is "classic" when present, otherwise the first loadable file,
// otherwise the built-in 6x10 world.
package config
