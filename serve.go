package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/treasure-hunt/api"
	"github.com/wricardo/treasure-hunt/game/config"
	"github.com/wricardo/treasure-hunt/game/runs"
	"github.com/wricardo/treasure-hunt/game/service"
	"github.com/wricardo/treasure-hunt/transport/mcp"
	"github.com/wricardo/treasure-hunt/transport/websocket"
)

// services bundles everything the HTTP server needs
type services struct {
	Simulation service.SimulationService
	Runs       *runs.Manager
	Hub        *websocket.Hub
	close      func() error
}

func (s *services) Close() error {
	return s.close()
}

// initializeServices wires the config and run managers, the WebSocket hub
// and the simulation service. The hub is not started.
func initializeServices(configDir string, store storeOptions, logger *log.Logger) (*services, error) {
	configManager, err := config.NewManager(configDir, config.WithLogger(logger.WithPrefix("config")))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	runManager, closeStore, err := openRunStore(store, logger)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(websocket.WithLogger(logger.WithPrefix("ws")))
	svc := service.NewSimulationService(runManager, configManager,
		service.WithPublisher(hub),
		service.WithLogger(logger.WithPrefix("service")))

	return &services{
		Simulation: svc,
		Runs:       runManager,
		Hub:        hub,
		close:      closeStore,
	}, nil
}

// pruneRoutine periodically removes runs older than retention
func pruneRoutine(ctx context.Context, manager *runs.Manager, retention, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.Prune(retention); removed > 0 {
				logger.Info("pruned expired runs", "removed", removed)
			}
		}
	}
}

// newMux mounts the REST API at the root and the MCP endpoint at /mcp
func newMux(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.Handle("/mcp", mcpClient.HTTPHandler())
	return mux
}

func listenFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags: append(listenFlags(),
			&cli.DurationFlag{
				Name:  "retention",
				Value: 24 * time.Hour,
				Usage: "delete recorded runs older than this (0 keeps them forever)",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		),
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	logger := loggerFrom(ctx)

	svcs, err := initializeServices(cmd.String("config-dir"), storeOptionsFrom(cmd), logger)
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go svcs.Hub.Run(ctx)
	if retention := cmd.Duration("retention"); retention > 0 {
		go pruneRoutine(ctx, svcs.Runs, retention, time.Hour, logger)
	}

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	apiServer := api.NewServer(svcs.Simulation, svcs.Hub, api.WithLogger(logger.WithPrefix("api")))
	mcpClient := mcp.NewClient("http://" + loopbackAddr(cmd.String("host"), cmd.Int("port")))
	handler := newMux(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints",
			"api", "http://"+addr+"/api",
			"ws", "ws://"+addr+"/ws?config=<config_id>",
			"mcp", "http://"+addr+"/mcp")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler, logger.WithPrefix("ngrok"))
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}

	wg.Wait()
	logger.Info("server stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// serveNgrok serves handler through an ngrok tunnel until ctx is cancelled
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler, logger *log.Logger) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start tunnel", "err", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Error("failed to close tunnel", "err", err)
		}
	}()

	url := tun.URL()
	logger.Info("tunnel established", "url", url, "api", url+"/api", "mcp", url+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("tunnel server error", "err", err)
	}
	logger.Info("tunnel closed")
}

// loopbackAddr is the address the in-process MCP client uses to reach the API
func loopbackAddr(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, fmt.Sprint(port))
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "run an MCP stdio server backed by the HTTP API",
		Flags: append(listenFlags(),
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "use this API server instead of probing host:port or starting an internal one",
			},
		),
		Action: mcpAction,
	}
}

// mcpAction serves MCP over stdio. It reuses an API server already running on
// host:port when one answers /health, otherwise it starts an internal API on a
// random loopback port.
func mcpAction(ctx context.Context, cmd *cli.Command) error {
	logger := loggerFrom(ctx)

	baseURL := cmd.String("api-url")
	if baseURL == "" {
		external := "http://" + loopbackAddr(cmd.String("host"), cmd.Int("port"))
		if apiAvailable(ctx, external) {
			logger.Info("using external API server", "url", external)
			baseURL = external
		}
	}

	if baseURL == "" {
		svcs, err := initializeServices(cmd.String("config-dir"), storeOptionsFrom(cmd), logger)
		if err != nil {
			return err
		}
		defer svcs.Close()

		go svcs.Hub.Run(ctx)

		url, shutdown, err := startInternalAPI(svcs, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = url
	}

	logger.Info("MCP stdio server ready", "api", baseURL)
	return mcp.NewClient(baseURL).ServeStdio()
}

// apiAvailable reports whether an API server answers /health at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the REST API on a random loopback port and returns
// its base URL
func startInternalAPI(svcs *services, logger *log.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	apiServer := api.NewServer(svcs.Simulation, svcs.Hub, api.WithLogger(logger.WithPrefix("api")))
	httpServer := &http.Server{Handler: apiServer}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("internal HTTP server error", "err", err)
		}
	}()

	baseURL := "http://" + listener.Addr().String()
	logger.Info("internal HTTP server started", "url", baseURL)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)
	}
	return baseURL, shutdown, nil
}
