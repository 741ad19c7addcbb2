// Command sweep drives a running treasure-hunt API server: for every
// configuration it runs the simulation with increasing replan limits until
// all treasures are collected or the limit is exhausted, and prints the best
// attempt per configuration.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/treasure-hunt/game/service"
)

// Client talks to the REST API
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// ListConfigs returns the server's configurations
func (c *Client) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	if err := c.do(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

type runRequest struct {
	ConfigID string `json:"config_id"`
	service.RunOptions
}

// Run simulates configID without keeping it in the run history
func (c *Client) Run(ctx context.Context, configID string, replanLimit int) (*service.RunInfo, error) {
	var info service.RunInfo
	req := runRequest{
		ConfigID:   configID,
		RunOptions: service.RunOptions{ReplanLimit: replanLimit, Ephemeral: true},
	}
	if err := c.do(ctx, http.MethodPost, "/api/runs", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Attempt is the best run found for one configuration
type Attempt struct {
	ConfigID string
	Replan   int
	Attempts int
	Info     *service.RunInfo
	Err      error
}

// Complete reports whether the attempt collected every treasure
func (a Attempt) Complete() bool {
	return a.Info != nil && a.Info.Result.TreasuresCollected == a.Info.Result.TreasuresTotal
}

// better prefers more treasures, then fewer steps, then more energy left
func better(a, b *service.RunInfo) bool {
	ra, rb := a.Result, b.Result
	if ra.TreasuresCollected != rb.TreasuresCollected {
		return ra.TreasuresCollected > rb.TreasuresCollected
	}
	if ra.TotalSteps != rb.TotalSteps {
		return ra.TotalSteps < rb.TotalSteps
	}
	return ra.FinalEnergy > rb.FinalEnergy
}

// sweepConfig tries replan limits 0..maxReplan and keeps the best run
func sweepConfig(ctx context.Context, client *Client, configID string, maxReplan int, logger *log.Logger) Attempt {
	best := Attempt{ConfigID: configID}

	for replan := 0; replan <= maxReplan; replan++ {
		best.Attempts++
		info, err := client.Run(ctx, configID, replan)
		if err != nil {
			best.Err = err
			return best
		}

		logger.Debug("attempt",
			"config", configID,
			"replan", replan,
			"collected", info.Result.TreasuresCollected,
			"steps", info.Result.TotalSteps)

		if best.Info == nil || better(info, best.Info) {
			best.Info = info
			best.Replan = replan
		}
		if best.Complete() {
			break
		}
	}
	return best
}

func printAttempts(w io.Writer, attempts []Attempt) {
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		if a.Err != nil {
			rows = append(rows, []string{a.ConfigID, "-", strconv.Itoa(a.Attempts), "error", "-", a.Err.Error()})
			continue
		}
		r := a.Info.Result
		status := "partial"
		if a.Complete() {
			status = "complete"
		}
		rows = append(rows, []string{
			a.ConfigID,
			strconv.Itoa(a.Replan),
			strconv.Itoa(a.Attempts),
			fmt.Sprintf("%d/%d %s", r.TreasuresCollected, r.TreasuresTotal, status),
			strconv.Itoa(r.TotalSteps),
			strconv.FormatFloat(r.FinalEnergy, 'g', -1, 64),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CONFIG", "REPLAN", "ATTEMPTS", "TREASURES", "STEPS", "ENERGY").
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

func sweep(ctx context.Context, w io.Writer, client *Client, only string, maxReplan int, logger *log.Logger) (bool, error) {
	configIDs := []string{only}
	if only == "" {
		configs, err := client.ListConfigs(ctx)
		if err != nil {
			return false, err
		}
		configIDs = configIDs[:0]
		for _, c := range configs {
			configIDs = append(configIDs, c.ConfigID)
		}
	}

	allComplete := true
	attempts := make([]Attempt, 0, len(configIDs))
	for _, id := range configIDs {
		attempt := sweepConfig(ctx, client, id, maxReplan, logger)
		if !attempt.Complete() {
			allComplete = false
		}
		attempts = append(attempts, attempt)
	}

	printAttempts(w, attempts)
	return allComplete, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "sweep",
		Usage: "run every configuration on a treasure-hunt server with increasing replan limits",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "API server URL", Sources: cli.EnvVars("TREASURE_HUNT_URL")},
			&cli.StringFlag{Name: "config", Usage: "only sweep this config ID"},
			&cli.IntFlag{Name: "max-replan", Value: 3, Usage: "highest replan limit to try"},
			&cli.BoolFlag{Name: "strict", Usage: "exit non-zero unless every config is completed"},
			&cli.BoolFlag{Name: "v", Usage: "log every attempt"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "sweep"})
			if cmd.Bool("v") {
				logger.SetLevel(log.DebugLevel)
			}

			logger.Info("connecting to server", "url", cmd.String("url"))
			complete, err := sweep(ctx, os.Stdout, NewClient(cmd.String("url")), cmd.String("config"), cmd.Int("max-replan"), logger)
			if err != nil {
				return err
			}
			if cmd.Bool("strict") && !complete {
				return fmt.Errorf("some configurations were not completed")
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error("sweep failed", "err", err)
		os.Exit(1)
	}
}
