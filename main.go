// Command treasure-hunt simulates a player collecting treasures on a grid world.
//
// Commands:
//  1. "run" – simulates a world once and prints the per-treasure report
//  2. "watch" – replays a run step by step in the terminal
//  3. "serve" – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  4. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  5. "runs" – lists, shows and deletes recorded runs
//  6. "validate" – checks every configuration in a directory
//
// Global flags (all with environment fallbacks, a .env file is honoured)
// control the config directory, where run history is kept, logging, and the
// HTTP listener used by serve and mcp.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/treasure-hunt/game/config"
	"github.com/wricardo/treasure-hunt/game/engine"
	"github.com/wricardo/treasure-hunt/game/runs"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "treasure-hunt"
)

// Run store kinds accepted by --run-store
const (
	storeMemory = "memory"
	storeFile   = "file"
	storeSQLite = "sqlite"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "plan and simulate treasure hunts on grid worlds",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing world configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "run-store",
				Value:   storeFile,
				Usage:   "where run history is kept: file, sqlite or memory",
				Sources: cli.EnvVars("RUN_STORE"),
			},
			&cli.StringFlag{
				Name:    "run-store-path",
				Usage:   "run history directory (file) or database path (sqlite)",
				Sources: cli.EnvVars("RUN_STORE_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level: debug, info, warn or error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging, including per-step engine logs",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger, err := newLogger(os.Stderr, cmd.String("log-level"), cmd.Bool("debug"))
			if err != nil {
				return ctx, err
			}
			log.SetDefault(logger)
			return withLogger(ctx, logger), nil
		},
		Commands: []*cli.Command{
			runCommand(),
			watchCommand(),
			serveCommand(),
			mcpCommand(),
			runsCommand(),
			validateCommand(),
		},
	}
}

type loggerKey struct{}

func withLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// loggerFrom returns the logger installed by the root command
func loggerFrom(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return logger
	}
	return log.Default()
}

// newLogger creates the process logger, debug overrides level
func newLogger(w io.Writer, level string, debug bool) (*log.Logger, error) {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          AppName,
	})

	if debug {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
		return logger, nil
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// storeOptions selects the run history backend
type storeOptions struct {
	Kind string
	Path string
}

func storeOptionsFrom(cmd *cli.Command) storeOptions {
	return storeOptions{Kind: cmd.String("run-store"), Path: cmd.String("run-store-path")}
}

// openRunStore creates the run manager for the selected backend and loads
// previously persisted runs. The returned close function releases the backend.
func openRunStore(opts storeOptions, logger *log.Logger) (*runs.Manager, func() error, error) {
	noop := func() error { return nil }
	runLogger := logger.WithPrefix("runs")

	switch opts.Kind {
	case storeMemory, "":
		return runs.NewManager(runLogger), noop, nil

	case storeFile:
		dir := opts.Path
		if dir == "" {
			dir = "runs"
		}
		persistence, err := runs.NewFilePersistence(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create run persistence: %w", err)
		}
		manager := runs.NewManagerWithPersistence(persistence, runLogger)
		if err := manager.LoadPersisted(); err != nil {
			logger.Warn("failed to load persisted runs", "err", err)
		}
		return manager, noop, nil

	case storeSQLite:
		path := opts.Path
		if path == "" {
			path = filepath.Join("runs", "runs.db")
		}
		persistence, err := runs.OpenSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open run database: %w", err)
		}
		manager := runs.NewManagerWithPersistence(persistence, runLogger)
		if err := manager.LoadPersisted(); err != nil {
			logger.Warn("failed to load persisted runs", "err", err)
		}
		return manager, persistence.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown run store %q (want %s, %s or %s)", opts.Kind, storeFile, storeSQLite, storeMemory)
	}
}

// resolveWorld picks the world to simulate: an explicit file wins, then a
// named config from the config directory, then the directory's default. The
// built-in classic world is used when no config directory exists.
func resolveWorld(configDir, name, file string, logger *log.Logger) (*engine.WorldConfig, string, error) {
	if file != "" {
		cfg, err := engine.LoadWorldConfig(file)
		if err != nil {
			return nil, "", err
		}
		return cfg, config.ConfigID(filepath.Base(file)), nil
	}

	manager, err := config.NewManager(configDir, config.WithLogger(logger.WithPrefix("config")))
	if err != nil {
		if name != "" {
			return nil, "", err
		}
		logger.Debug("no config directory, using the built-in world", "dir", configDir)
		cfg := engine.DefaultWorldConfig()
		return cfg, cfg.Name, nil
	}

	if name == "" {
		cfg := manager.GetDefault()
		return cfg, config.ConfigID(cfg.Name), nil
	}

	cfg, err := manager.LoadConfig(name)
	if err != nil {
		return nil, "", err
	}
	return cfg, config.ConfigID(name), nil
}
