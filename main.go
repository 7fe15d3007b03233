// Command rpsrelay starts the Rock Paper Scissors relay server.
//
// It supports two modes:
//  1. "serve" (default): runs the HTTP server exposing the WebSocket game
//     protocol, read-only REST inspection, /metrics and an /mcp HTTP endpoint
//  2. "mcp-stdio": runs an MCP stdio server against a running instance, or
//     spins up an internal one if none answers
//
// Settings come from the environment (and an optional .env file); flags
// override them. An ngrok tunnel can be enabled for external access during
// development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/rpsrelay/api"
	"github.com/wricardo/mcp-training/rpsrelay/config"
	"github.com/wricardo/mcp-training/rpsrelay/game/service"
	"github.com/wricardo/mcp-training/rpsrelay/game/session"
	"github.com/wricardo/mcp-training/rpsrelay/metrics"
	"github.com/wricardo/mcp-training/rpsrelay/tracing"
	"github.com/wricardo/mcp-training/rpsrelay/transport/mcp"
	"github.com/wricardo/mcp-training/rpsrelay/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rock Paper Scissors Server"
)

// main loads .env, then runs the command line
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newCommand builds the root command and its subcommands
func newCommand() *cli.Command {
	// Root flags are inherited by the subcommands
	serverFlags := []cli.Flag{
		&cli.IntFlag{Name: "port", Usage: "HTTP server port (env PORT)"},
		&cli.StringFlag{Name: "host", Usage: "HTTP server host (env HOST)"},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging (env DEBUG)"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (env NGROK_ENABLED)"},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or NGROK_AUTHTOKEN env var)"},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)"},
	}

	serve := func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg.Debug)
		log.Printf("Starting %s v%s (mode: serve)", AppName, Version)
		return runHTTPServer(ctx, cfg)
	}

	return &cli.Command{
		Name:    "rpsrelay",
		Usage:   "Two-player rock paper scissors relay over WebSocket",
		Version: Version,
		Flags:   serverFlags,
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run HTTP server with WebSocket, REST inspection and MCP endpoint (default)",
				Action: serve,
			},
			{
				Name:    "mcp-stdio",
				Aliases: []string{"stdio-mcp", "mcp"},
				Usage:   "Run MCP stdio server, starting an internal HTTP server if needed",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Usage: "Base URL of a running server", Value: "http://localhost:3000"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					setupLogging(cfg.Debug || cmd.Bool("debug"))
					return runStdioMCP(ctx, cfg, cmd.String("api-url"))
				},
			},
		},
	}
}

// loadConfig reads the environment and applies the flags that were set
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// app holds the wired components of one server instance
type app struct {
	manager  *session.Manager
	hub      *websocket.Hub
	service  service.GameService
	registry *prometheus.Registry
	api      *api.Server
}

// newApp wires the registry, hub, service and HTTP surface
func newApp(cfg *config.Config) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(metrics.WithRegistry(registry))

	manager := session.NewManager(session.WithMaxCodeAttempts(cfg.MaxCodeAttempts))
	hub := websocket.NewHub(
		websocket.WithMetrics(collector),
		websocket.WithAllowedOrigins(cfg.AllowedOrigins),
		websocket.WithSendBuffer(cfg.SendBuffer),
	)
	gameService := service.NewGameService(manager, hub, service.WithMetrics(collector))
	hub.SetHandler(gameService)

	return &app{
		manager:  manager,
		hub:      hub,
		service:  gameService,
		registry: registry,
		api:      api.NewServer(gameService, hub, api.WithGatherer(registry)),
	}
}

// handler combines the API with the /mcp endpoint proxying to baseURL
func (a *app) handler(baseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", a.api)
	mainRouter.Handle("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// mcpHandler serves MCP JSON-RPC messages over HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// localURL is the loopback URL for an address that may have an empty host
func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// runHTTPServer serves until SIGINT or SIGTERM, with an optional ngrok tunnel
func runHTTPServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, "rpsrelay", cfg.Tracing.Endpoint, cfg.Tracing.Enabled)
	if err != nil {
		log.Printf("Warning: tracing disabled: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	a := newApp(cfg)
	go a.hub.Run(ctx)

	addr := cfg.Addr()
	mainRouter := a.handler(localURL(addr))

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("WebSocket: ws://%s/ws", addr)
		log.Printf("REST API: http://%s/api/games", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			stop()
		}
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cfg.Ngrok, mainRouter)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrok serves handler through a tunnel until ctx is cancelled
func runNgrok(ctx context.Context, cfg config.NgrokConfig, handler http.Handler) {
	authToken := cfg.Token()
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		log.Printf("Using custom ngrok domain: %s", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// serverAvailable reports whether a relay answers at apiURL without a server error
func serverAvailable(client *http.Client, apiURL string) bool {
	resp, err := client.Get(apiURL + "/api/stats")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCP runs an MCP stdio server.
// It reuses the server at apiURL when one answers; otherwise it starts an
// internal HTTP server on a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cfg *config.Config, apiURL string) error {
	baseURL := apiURL

	log.Printf("Checking for external server at %s...", apiURL)
	testClient := &http.Client{Timeout: 2 * time.Second}
	if serverAvailable(testClient, apiURL) {
		log.Printf("External server found at %s, using it for MCP", apiURL)
	} else {
		log.Printf("No external server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		a := newApp(cfg)
		go a.hub.Run(ctx)

		httpServer := &http.Server{Handler: a.api}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.Printf("Internal HTTP server on %s", baseURL)
	}

	log.Println("MCP stdio server ready")
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
