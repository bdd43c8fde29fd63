package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skypro1111/airfoil-metadata-service/internal/capability"
	"github.com/skypro1111/airfoil-metadata-service/internal/config"
	"github.com/skypro1111/airfoil-metadata-service/internal/dispatch"
	"github.com/skypro1111/airfoil-metadata-service/internal/metrics"
	"github.com/skypro1111/airfoil-metadata-service/internal/mpd"
	"github.com/skypro1111/airfoil-metadata-service/internal/server"
	"github.com/skypro1111/airfoil-metadata-service/internal/session"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "airfoil-metadata-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.String("player_backend", cfg.Player.Backend),
		slog.Bool("close_on_protocol_error", cfg.Protocol.CloseOnProtocolError),
		slog.Bool("http_enabled", cfg.HTTP.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()

	// Select the capability provider
	var (
		provider    capability.Provider
		mpdProvider *mpd.Provider
	)
	switch cfg.Player.Backend {
	case config.BackendMPD:
		mpdProvider, err = mpd.NewProvider(mpd.Config{
			Address:           cfg.Player.MPD.Address,
			Password:          cfg.Player.MPD.Password,
			ReconnectInterval: cfg.Player.MPD.GetReconnectInterval(),
			PingInterval:      cfg.Player.MPD.GetPingInterval(),
		}, logger)
		if err != nil {
			logger.Error("Failed to create MPD provider", slog.String("error", err.Error()))
			os.Exit(1)
		}
		provider = mpdProvider
	case config.BackendStatic:
		provider = capability.NewStatic(capability.StaticConfig{
			RemoteControl: cfg.Player.Static.RemoteControl,
			Title:         cfg.Player.Static.Title,
			Artist:        cfg.Player.Static.Artist,
			Album:         cfg.Player.Static.Album,
			ArtworkPath:   cfg.Player.Static.ArtworkPath,
		}, logger)
	}
	logger.Info("Capability provider initialized", slog.String("backend", cfg.Player.Backend))

	// Build the protocol engine
	dispatcher, err := dispatch.New(provider, logger, appMetrics)
	if err != nil {
		logger.Error("Failed to create dispatcher", slog.String("error", err.Error()))
		os.Exit(1)
	}

	engine := session.NewEngine(logger, dispatcher, appMetrics, session.EngineConfig{
		CloseOnProtocolError: cfg.Protocol.CloseOnProtocolError,
	})

	// Initialize the TCP transport and wire it to the engine
	tcpServer := server.NewTCPServer(&cfg.Server, logger, engine, appMetrics)
	engine.AttachTransport(tcpServer)

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, engine, tcpServer, appMetrics)
		logger.Info("HTTP API server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	// Start servers
	if err := tcpServer.Start(); err != nil {
		logger.Error("Failed to start TCP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Stop the TCP transport (closes every session)
	if err := tcpServer.Stop(); err != nil {
		logger.Error("Error stopping TCP server", slog.String("error", err.Error()))
	}

	// Close the MPD connection last
	if mpdProvider != nil {
		if err := mpdProvider.Close(); err != nil {
			logger.Warn("Error closing MPD provider", slog.String("error", err.Error()))
		}
	}

	// Log final statistics
	stats := engine.Stats()
	transportStats := tcpServer.GetStatistics()
	logger.Info("Final statistics",
		slog.Uint64("messages_handled", stats.MessagesHandled),
		slog.Uint64("framing_errors", stats.FramingErrors),
		slog.Uint64("connections_accepted", transportStats.ConnectionsAccepted),
		slog.Uint64("bytes_read", transportStats.BytesRead),
		slog.Uint64("bytes_written", transportStats.BytesWritten),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
