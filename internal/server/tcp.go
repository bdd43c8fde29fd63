package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skypro1111/airfoil-metadata-service/internal/config"
	"github.com/skypro1111/airfoil-metadata-service/internal/metrics"
	"github.com/skypro1111/airfoil-metadata-service/internal/session"
)

// TCPServer accepts peer connections and bridges them to the protocol
// engine. Each connection gets a dedicated read loop (which preserves
// the per-connection ordering the engine relies on) and a buffered
// write queue drained by a writer goroutine, so response submission
// never blocks the engine.
type TCPServer struct {
	listener net.Listener
	config   *config.ServerConfig
	logger   *slog.Logger
	engine   *session.Engine
	metrics  *metrics.Metrics

	// Concurrency management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	conns map[string]*peerConn
	mu    sync.RWMutex

	// Lifetime counters
	connectionsAccepted uint64
	bytesRead           uint64
	bytesWritten        uint64
	writeErrors         uint64
	queueDrops          uint64
	statsMu             sync.RWMutex
}

// peerConn tracks one accepted connection.
type peerConn struct {
	handle     string
	conn       net.Conn
	writeQueue chan []byte
	closeOnce  sync.Once
	done       chan struct{}
}

// close shuts the socket down exactly once. The read loop observes the
// closed socket and runs the disconnect path.
func (c *peerConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// NewTCPServer creates a new TCP transport adapter.
func NewTCPServer(cfg *config.ServerConfig, logger *slog.Logger, engine *session.Engine, m *metrics.Metrics) *TCPServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &TCPServer{
		config:  cfg,
		logger:  logger,
		engine:  engine,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[string]*peerConn),
	}
}

// Start begins accepting peer connections.
func (s *TCPServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.logger.Info("TCP server started",
		slog.String("address", listener.Addr().String()),
		slog.Int("read_buffer_size", s.config.ReadBufferSize),
		slog.Int("write_queue_size", s.config.WriteQueueSize),
	)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and every live connection, then waits for
// all per-connection goroutines to finish. Teardown is non-graceful:
// partially framed messages are discarded with their sessions.
func (s *TCPServer) Stop() error {
	s.logger.Info("Stopping TCP server...")

	s.cancel()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Warn("Error closing listener", slog.String("error", err.Error()))
		}
	}

	s.mu.Lock()
	for _, c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	stats := s.GetStatistics()
	s.logger.Info("TCP server stopped",
		slog.Uint64("connections_accepted", stats.ConnectionsAccepted),
		slog.Uint64("bytes_read", stats.BytesRead),
		slog.Uint64("bytes_written", stats.BytesWritten),
		slog.Uint64("write_errors", stats.WriteErrors),
		slog.Uint64("queue_drops", stats.QueueDrops),
	)

	return nil
}

// Write submits a response for asynchronous delivery. A full queue
// drops the response rather than blocking the engine; the peer will
// simply re-ask on its next poll.
func (s *TCPServer) Write(handle string, data []byte) error {
	s.mu.RLock()
	c, exists := s.conns[handle]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("unknown connection handle %s", handle)
	}

	select {
	case c.writeQueue <- data:
		return nil
	default:
		s.statsMu.Lock()
		s.queueDrops++
		s.statsMu.Unlock()
		s.metrics.RecordWriteQueueDrop()

		s.logger.Warn("Write queue full, dropping response",
			slog.String("handle", handle),
			slog.Int("size", len(data)),
		)
		return nil
	}
}

// Close tears down one connection. The disconnect is reported to the
// engine by the connection's read loop, same as a peer-initiated close.
func (s *TCPServer) Close(handle string) error {
	s.mu.RLock()
	c, exists := s.conns[handle]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("unknown connection handle %s", handle)
	}

	c.close()
	return nil
}

// acceptLoop accepts connections until the listener closes.
func (s *TCPServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Failed to accept connection", slog.String("error", err.Error()))
				continue
			}
		}

		handle := uuid.NewString()
		c := &peerConn{
			handle:     handle,
			conn:       conn,
			writeQueue: make(chan []byte, s.config.WriteQueueSize),
			done:       make(chan struct{}),
		}

		s.mu.Lock()
		s.conns[handle] = c
		s.mu.Unlock()

		s.statsMu.Lock()
		s.connectionsAccepted++
		s.statsMu.Unlock()
		s.metrics.RecordConnectionAccepted()

		s.engine.OnConnect(handle, conn.RemoteAddr().String())

		s.wg.Add(2)
		go s.readLoop(c)
		go s.writeLoop(c)
	}
}

// readLoop delivers raw byte chunks to the engine in arrival order.
// Exactly this goroutine reports the disconnect, so the engine sees
// one OnDisconnect per OnConnect regardless of who closed first.
func (s *TCPServer) readLoop(c *peerConn) {
	defer s.wg.Done()

	buffer := make([]byte, s.config.ReadBufferSize)

	for {
		n, err := c.conn.Read(buffer)
		if n > 0 {
			s.statsMu.Lock()
			s.bytesRead += uint64(n)
			s.statsMu.Unlock()
			s.metrics.RecordBytesRead(n)

			// The buffer is reused; the engine gets its own copy.
			data := make([]byte, n)
			copy(data, buffer[:n])
			s.engine.OnData(c.handle, data)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("Read error",
					slog.String("handle", c.handle),
					slog.String("error", err.Error()),
				)
			}
			break
		}
	}

	s.teardown(c)
}

// writeLoop drains the connection's write queue.
func (s *TCPServer) writeLoop(c *peerConn) {
	defer s.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-s.ctx.Done():
			return
		case data := <-c.writeQueue:
			if err := c.conn.SetWriteDeadline(time.Now().Add(s.config.GetWriteTimeout())); err != nil {
				s.logger.Debug("Failed to set write deadline",
					slog.String("handle", c.handle),
					slog.String("error", err.Error()),
				)
			}

			if _, err := c.conn.Write(data); err != nil {
				s.statsMu.Lock()
				s.writeErrors++
				s.statsMu.Unlock()

				s.logger.Warn("Failed to write response, closing connection",
					slog.String("handle", c.handle),
					slog.String("error", err.Error()),
				)
				c.close()
				return
			}

			s.statsMu.Lock()
			s.bytesWritten += uint64(len(data))
			s.statsMu.Unlock()
			s.metrics.RecordBytesWritten(len(data))
		}
	}
}

// teardown unregisters the connection and notifies the engine.
func (s *TCPServer) teardown(c *peerConn) {
	c.close()

	s.mu.Lock()
	delete(s.conns, c.handle)
	s.mu.Unlock()

	s.engine.OnDisconnect(c.handle)
}

// ServerStatistics represents transport-level counters.
type ServerStatistics struct {
	ConnectionsAccepted uint64 `json:"connections_accepted"`
	ActiveConnections   uint64 `json:"active_connections"`
	BytesRead           uint64 `json:"bytes_read"`
	BytesWritten        uint64 `json:"bytes_written"`
	WriteErrors         uint64 `json:"write_errors"`
	QueueDrops          uint64 `json:"queue_drops"`
}

// GetStatistics returns current transport statistics.
func (s *TCPServer) GetStatistics() ServerStatistics {
	s.mu.RLock()
	active := uint64(len(s.conns))
	s.mu.RUnlock()

	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	return ServerStatistics{
		ConnectionsAccepted: s.connectionsAccepted,
		ActiveConnections:   active,
		BytesRead:           s.bytesRead,
		BytesWritten:        s.bytesWritten,
		WriteErrors:         s.writeErrors,
		QueueDrops:          s.queueDrops,
	}
}
