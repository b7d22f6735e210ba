// Command tile-pathfinder starts the pathfinding server.
//
// By default it runs the HTTP server: REST API, WebSocket push updates,
// Prometheus metrics and a streamable MCP endpoint at /mcp. With -stdio it
// instead serves MCP over stdio, proxying to -api-url or to an internal API
// bound to a random loopback port.
//
// Flags control the port, map directory, default map, logging, and optional
// ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/wricardo/tile-pathfinder/api"
	"github.com/wricardo/tile-pathfinder/game/config"
	"github.com/wricardo/tile-pathfinder/game/service"
	"github.com/wricardo/tile-pathfinder/game/session"
	"github.com/wricardo/tile-pathfinder/internal/ctxlog"
	"github.com/wricardo/tile-pathfinder/transport/mcp"
	"github.com/wricardo/tile-pathfinder/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tile Pathfinder Server"
)

const (
	cleanupInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", envString("CONFIG_DIR", "configs"), "Directory containing map files")
	defaultMap   = flag.String("map", "", "Map used by sessions created without one")
	stdioMode    = flag.Bool("stdio", false, "Serve MCP over stdio instead of running the HTTP server")
	httpMCP      = flag.Bool("http", true, "Expose the streamable MCP endpoint at /mcp")
	apiURL       = flag.String("api-url", envString("API_URL", ""), "REST API the stdio MCP server proxies to (default: internal server)")
	logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat    = flag.String("log-format", "text", "Log format: text or json")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Run HTTP server on port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090 -map maze   # Custom port and default map\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -stdio                 # MCP stdio server with internal API\n", os.Args[0])
	}
}

// services is everything the transports share
type services struct {
	path     service.PathService
	sessions *session.Manager
	configs  *config.Manager
	registry *prometheus.Registry
	logger   *slog.Logger
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// .env is optional
	envErr := godotenv.Load()

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	// stdout belongs to the MCP protocol in stdio mode
	logger := ctxlog.New(*logLevel, *logFormat, os.Stderr)
	slog.SetDefault(logger)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", envErr)
	}

	logger.Info("starting", "app", AppName, "version", Version, "stdio", *stdioMode)

	svcs, err := initializeServices(*configDir, *defaultMap, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessionCleanupRoutine(ctx, svcs.sessions, cleanupInterval, sessionMaxAge)

	if *stdioMode {
		err = runStdioMCP(ctx, svcs, *apiURL)
	} else {
		err = runHTTPServer(ctx, svcs)
	}
	if err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// initializeServices wires the session and map managers, the metrics
// registry and the path service.
func initializeServices(dir, mapName string, logger *slog.Logger) (*services, error) {
	configManager, err := config.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if mapName != "" {
		if err := configManager.SetDefault(mapName); err != nil {
			return nil, fmt.Errorf("failed to set default map: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessionManager := session.NewManagerWithLogger(logger)
	pathService := service.NewPathService(sessionManager, configManager,
		service.WithMetrics(service.NewMetrics(registry)))

	return &services{
		path:     pathService,
		sessions: sessionManager,
		configs:  configManager,
		registry: registry,
		logger:   logger,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge. It returns when ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}

// newHandler mounts the REST API and, when mcpEnabled, the streamable MCP
// endpoint proxying to baseURL.
func newHandler(svcs *services, hub *websocket.Hub, baseURL string, mcpEnabled bool) http.Handler {
	apiServer := api.NewServer(svcs.path, hub,
		api.WithLogger(svcs.logger),
		api.WithGatherer(svcs.registry))

	if !mcpEnabled {
		return apiServer
	}

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mcpClient := mcp.NewClient(baseURL)
	mainRouter.Handle("/mcp", server.NewStreamableHTTPServer(mcpClient.GetMCPServer()))
	return mainRouter
}

// runHTTPServer serves the API until ctx is done. If ngrok is enabled it
// also serves through a public tunnel.
func runHTTPServer(ctx context.Context, svcs *services) error {
	logger := svcs.logger

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	handler := newHandler(svcs, hub, "http://"+addr, *httpMCP)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			"addr", addr,
			"api", "http://"+addr+"/api",
			"websocket", "ws://"+addr+"/ws?session=<session_id>",
			"metrics", "http://"+addr+"/metrics",
			"mcp", *httpMCP)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if *ngrokEnabled || os.Getenv("NGROK_ENABLED") == "true" || os.Getenv("NGROK_ENABLED") == "1" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, handler, logger)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", "error", shutdownErr)
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// ngrokToken returns the auth token from the environment, accepting both spellings
func ngrokToken() string {
	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, handler http.Handler, logger *slog.Logger) {
	authToken := ngrokToken()
	if authToken == "" {
		logger.Warn("ngrok enabled but NGROK_AUTHTOKEN is not set")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Warn("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established", "url", url, "api", url+"/api", "mcp", url+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCP serves MCP over stdio. Without an external API URL it starts
// an internal API on a random loopback port and proxies to that.
func runStdioMCP(ctx context.Context, svcs *services, externalURL string) error {
	baseURL := externalURL
	if baseURL == "" {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub(svcs.logger)
		go hub.Run(ctx)

		internal := &http.Server{Handler: newHandler(svcs, hub, "", false)}
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				svcs.logger.Warn("internal HTTP server error", "error", err)
			}
		}()
		defer internal.Close()

		baseURL = "http://" + listener.Addr().String()
		svcs.logger.Info("internal API started for MCP stdio", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	svcs.logger.Info("MCP stdio server ready", "api", baseURL)

	stdio := server.NewStdioServer(mcpClient.GetMCPServer())
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
