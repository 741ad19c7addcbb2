package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/treasure-hunt/game/engine"
	"github.com/wricardo/treasure-hunt/game/render"
	"github.com/wricardo/treasure-hunt/game/service"
	"github.com/wricardo/treasure-hunt/transport/tui"
	"github.com/wricardo/treasure-hunt/validate"
)

// worldFlags select the world a command simulates
func worldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config ID from the config directory (default: the directory's default world)",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "path to a JSON or YAML world file",
		},
		&cli.IntFlag{
			Name:  "replan",
			Usage: "extra plans allowed per treasure after being pushed off course",
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "simulate a world once and print the report",
		Flags: append(worldFlags(),
			&cli.BoolFlag{Name: "color", Usage: "colour the grids"},
			&cli.BoolFlag{Name: "save", Usage: "record the run in the run history"},
			&cli.BoolFlag{Name: "json", Usage: "print the run result as JSON"},
		),
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	logger := loggerFrom(ctx)

	cfg, configID, err := resolveWorld(cmd.String("config-dir"), cmd.String("config"), cmd.String("file"), logger)
	if err != nil {
		return err
	}

	opts := []engine.WorldOption{engine.WithReplanLimit(cmd.Int("replan"))}
	if cmd.Bool("debug") {
		opts = append(opts, engine.WithLogger(logger.WithPrefix("engine")))
	}

	result, err := engine.RunContext(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	if cmd.Bool("save") {
		manager, closeStore, err := openRunStore(storeOptionsFrom(cmd), logger)
		if err != nil {
			return err
		}
		defer closeStore()

		record, err := manager.Create("", configID, result)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		logger.Info("run recorded", "run", record.ID, "config", configID)
	}

	if cmd.Bool("json") {
		return writeJSON(os.Stdout, result)
	}

	printer := render.NewPrinter(os.Stdout)
	if cmd.Bool("color") {
		printer.WithColor(render.DefaultPalette())
	}
	printer.Result(result)
	return nil
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "replay a simulation step by step in the terminal",
		Flags: worldFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := loggerFrom(ctx)

			cfg, _, err := resolveWorld(cmd.String("config-dir"), cmd.String("config"), cmd.String("file"), logger)
			if err != nil {
				return err
			}

			rec, err := tui.Record(ctx, cfg, engine.WithReplanLimit(cmd.Int("replan")))
			if err != nil {
				return err
			}
			return tui.Watch(rec, tea.WithAltScreen(), tea.WithContext(ctx))
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate every configuration in a directory",
		ArgsUsage: "[dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = cmd.String("config-dir")
			}

			results, err := validate.Dir(dir)
			if err != nil {
				return err
			}
			if !validate.Report(os.Stdout, results) {
				return errors.New("validation failed")
			}
			return nil
		},
	}
}

// historyService opens the run store behind a simulation service. Run history
// operations never touch configurations, so no config manager is attached.
func historyService(ctx context.Context, cmd *cli.Command) (service.SimulationService, func() error, error) {
	logger := loggerFrom(ctx)
	manager, closeStore, err := openRunStore(storeOptionsFrom(cmd), logger)
	if err != nil {
		return nil, nil, err
	}
	return service.NewSimulationService(manager, nil, service.WithLogger(logger)), closeStore, nil
}

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "inspect the run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list recorded runs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "only runs of this config ID"},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum number of runs (0 for all)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, closeStore, err := historyService(ctx, cmd)
					if err != nil {
						return err
					}
					defer closeStore()

					summaries, err := svc.ListRuns(ctx, service.RunFilter{
						ConfigID: cmd.String("config"),
						Limit:    cmd.Int("limit"),
					})
					if err != nil {
						return err
					}
					printRunTable(os.Stdout, summaries)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "print the report of a recorded run",
				ArgsUsage: "<run-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "color", Usage: "colour the grids"},
					&cli.BoolFlag{Name: "json", Usage: "print the run as JSON"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return errors.New("a run ID is required")
					}

					svc, closeStore, err := historyService(ctx, cmd)
					if err != nil {
						return err
					}
					defer closeStore()

					info, err := svc.GetRun(ctx, id)
					if err != nil {
						return err
					}
					if cmd.Bool("json") {
						return writeJSON(os.Stdout, info)
					}

					fmt.Printf("Run %s (config %s, %s)\n\n", info.ID, info.ConfigID, info.CreatedAt.Format(time.RFC3339))
					printer := render.NewPrinter(os.Stdout)
					if cmd.Bool("color") {
						printer.WithColor(render.DefaultPalette())
					}
					printer.Result(info.Result)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a recorded run",
				ArgsUsage: "<run-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return errors.New("a run ID is required")
					}

					svc, closeStore, err := historyService(ctx, cmd)
					if err != nil {
						return err
					}
					defer closeStore()

					if err := svc.DeleteRun(ctx, id); err != nil {
						return err
					}
					fmt.Printf("Deleted run %s\n", id)
					return nil
				},
			},
		},
	}
}

// printRunTable writes run summaries as a bordered table
func printRunTable(w io.Writer, summaries []*service.RunSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.ID,
			s.ConfigID,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/%d", s.TreasuresCollected, s.TreasuresTotal),
			strconv.Itoa(s.TotalSteps),
			strconv.FormatFloat(s.FinalEnergy, 'g', -1, 64),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "CONFIG", "CREATED", "TREASURES", "STEPS", "ENERGY").
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
