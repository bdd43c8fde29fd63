package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skypro1111/airfoil-metadata-service/internal/config"
	"github.com/skypro1111/airfoil-metadata-service/internal/metrics"
	"github.com/skypro1111/airfoil-metadata-service/internal/session"
)

// HTTPServer provides HTTP API endpoints for monitoring.
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	config    *config.Config
	engine    *session.Engine
	tcpServer *TCPServer
	metrics   *metrics.Metrics

	// Server state
	startTime time.Time
	mu        sync.RWMutex
}

// NewHTTPServer creates a new HTTP API server.
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger,
	appConfig *config.Config, engine *session.Engine, tcpServer *TCPServer, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		engine:    engine,
		tcpServer: tcpServer,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes.
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Session monitoring endpoints
	mux.HandleFunc("/sessions", h.withMetrics("/sessions", h.handleSessions))
	mux.HandleFunc("/sessions/", h.withMetrics("/sessions/{handle}", h.handleSessionDetail))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Statistics endpoint
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection.
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter captures the response status code for metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Start begins serving the HTTP API.
func (h *HTTPServer) Start() error {
	h.logger.Info("HTTP API server starting", slog.String("address", h.server.Addr))

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server...")
	return h.server.Shutdown(ctx)
}

// handleHealth reports service liveness.
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"status":          "ok",
		"uptime_seconds":  time.Since(h.startTime).Seconds(),
		"active_sessions": h.engine.ActiveSessionCount(),
	})
}

// handleSessions lists all live protocol sessions.
func (h *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := h.engine.Sessions()
	h.writeJSON(w, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// handleSessionDetail returns one session by handle.
func (h *HTTPServer) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	handle := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if handle == "" {
		http.Error(w, "Session handle required", http.StatusBadRequest)
		return
	}

	info, exists := h.engine.Session(handle)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, info)
}

// handleConfig returns the active configuration without secrets.
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"server": map[string]interface{}{
			"port":             h.config.Server.Port,
			"bind_address":     h.config.Server.BindAddress,
			"read_buffer_size": h.config.Server.ReadBufferSize,
			"write_queue_size": h.config.Server.WriteQueueSize,
		},
		"player": map[string]interface{}{
			"backend":     h.config.Player.Backend,
			"mpd_address": h.config.Player.MPD.Address,
		},
		"protocol": map[string]interface{}{
			"close_on_protocol_error": h.config.Protocol.CloseOnProtocolError,
		},
		"logging": h.config.Logging,
	})
}

// handleStats combines engine and transport statistics.
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"uptime_seconds": time.Since(h.startTime).Seconds(),
		"engine":         h.engine.Stats(),
		"transport":      h.tcpServer.GetStatistics(),
	})
}

// handleRoot lists the available endpoints.
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"service": "airfoil-metadata-service",
		"endpoints": []string{
			"/health",
			"/sessions",
			"/sessions/{handle}",
			"/config",
			"/stats",
			"/metrics",
		},
	})
}

// writeJSON serializes a response body.
func (h *HTTPServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode HTTP response", slog.String("error", err.Error()))
	}
}
