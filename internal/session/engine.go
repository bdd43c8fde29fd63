package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/skypro1111/airfoil-metadata-service/internal/dispatch"
	"github.com/skypro1111/airfoil-metadata-service/internal/metrics"
	"github.com/skypro1111/airfoil-metadata-service/internal/protocol"
)

// EngineConfig contains protocol engine policy knobs.
type EngineConfig struct {
	// CloseOnProtocolError closes a connection whose stream produced a
	// framing error. After a malformed length prefix the stream can no
	// longer realign on message boundaries, so this defaults to true;
	// only the offending connection is closed, never the listener.
	CloseOnProtocolError bool
}

// Engine reacts to the per-connection callbacks of a transport
// collaborator. Sessions are fully independent of each other; the only
// shared state is the read-only dispatcher. There are deliberately no
// idle timeouts: a peer that stalls mid-message leaves its framer
// parked until the transport reports the disconnect.
type Engine struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	logger     *slog.Logger
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Metrics
	config     EngineConfig

	transport Transport

	// Lifetime counters
	messagesHandled uint64
	framingErrors   uint64
	statsMu         sync.RWMutex
}

// NewEngine creates the protocol engine. AttachTransport must be
// called before the first connection callback.
func NewEngine(logger *slog.Logger, dispatcher *dispatch.Dispatcher, m *metrics.Metrics, cfg EngineConfig) *Engine {
	return &Engine{
		sessions:   make(map[string]*Session),
		logger:     logger,
		dispatcher: dispatcher,
		metrics:    m,
		config:     cfg,
	}
}

// AttachTransport wires the byte-stream collaborator used for writes
// and connection teardown.
func (e *Engine) AttachTransport(t Transport) {
	e.transport = t
}

// OnConnect creates the session owning this connection's framer state.
func (e *Engine) OnConnect(handle, remoteAddr string) {
	now := time.Now()
	s := &Session{
		Handle:       handle,
		RemoteAddr:   remoteAddr,
		StartTime:    now,
		lastActivity: now,
		framer:       protocol.NewFramer(),
	}

	e.mu.Lock()
	e.sessions[handle] = s
	active := len(e.sessions)
	e.mu.Unlock()

	e.metrics.SetActiveSessions(active)
	e.logger.Info("Session opened",
		slog.String("handle", handle),
		slog.String("remote_addr", remoteAddr),
		slog.Int("active_sessions", active),
	)
}

// OnData feeds a raw byte chunk into the connection's framer and
// handles every message completed along the way. Responses are
// computed synchronously and submitted fire-and-forget, so per-message
// write ordering follows from the transport's per-connection
// submission order.
func (e *Engine) OnData(handle string, data []byte) {
	e.mu.RLock()
	s, exists := e.sessions[handle]
	e.mu.RUnlock()

	if !exists {
		e.logger.Warn("Data for unknown session",
			slog.String("handle", handle),
			slog.Int("size", len(data)),
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bytesReceived += uint64(len(data))
	s.lastActivity = time.Now()

	for _, b := range data {
		msg, complete, err := s.framer.Feed(b)
		if err != nil {
			e.handleFramingError(s, err)
			return
		}
		if complete {
			e.handleMessage(s, msg)
		}
	}
}

// OnDisconnect discards the session. No flush or drain is attempted;
// a partially buffered message is simply dropped with the framer.
func (e *Engine) OnDisconnect(handle string) {
	e.mu.Lock()
	s, exists := e.sessions[handle]
	if exists {
		delete(e.sessions, handle)
	}
	active := len(e.sessions)
	e.mu.Unlock()

	if !exists {
		return
	}

	info := s.Info()
	e.metrics.SetActiveSessions(active)
	e.metrics.RecordSessionClosed(info.Duration.Seconds())

	e.logger.Info("Session closed",
		slog.String("handle", handle),
		slog.String("remote_addr", info.RemoteAddr),
		slog.Duration("duration", info.Duration),
		slog.Uint64("messages_handled", info.MessagesHandled),
		slog.Uint64("bytes_received", info.BytesReceived),
	)
}

// handleMessage dispatches one completed message and submits the
// encoded response. Called with the session mutex held.
func (e *Engine) handleMessage(s *Session, msg string) {
	start := time.Now()

	resp := e.dispatcher.Handle(msg)
	encoded := protocol.EncodeResponse(resp)

	s.messagesHandled++
	e.statsMu.Lock()
	e.messagesHandled++
	e.statsMu.Unlock()

	e.metrics.RecordMessageFramed()
	e.metrics.RecordDispatch(time.Since(start).Seconds(), resp == "")

	if err := e.transport.Write(s.Handle, encoded); err != nil {
		e.logger.Warn("Failed to submit response",
			slog.String("handle", s.Handle),
			slog.String("command", msg),
			slog.String("error", err.Error()),
		)
		return
	}

	e.logger.Debug("Message handled",
		slog.String("handle", s.Handle),
		slog.String("command", msg),
		slog.Int("response_size", len(encoded)),
	)
}

// handleFramingError resets the poisoned framer and, per policy,
// closes the offending connection. Called with the session mutex held.
func (e *Engine) handleFramingError(s *Session, err error) {
	e.statsMu.Lock()
	e.framingErrors++
	e.statsMu.Unlock()
	e.metrics.RecordFramingError()

	e.logger.Error("Protocol framing error",
		slog.String("handle", s.Handle),
		slog.String("remote_addr", s.RemoteAddr),
		slog.String("error", err.Error()),
		slog.Bool("closing", e.config.CloseOnProtocolError),
	)

	s.framer.Reset()

	if !e.config.CloseOnProtocolError {
		return
	}
	if err := e.transport.Close(s.Handle); err != nil {
		e.logger.Warn("Failed to close connection after framing error",
			slog.String("handle", s.Handle),
			slog.String("error", err.Error()),
		)
	}
}

// ActiveSessionCount returns the number of live sessions.
func (e *Engine) ActiveSessionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// Sessions returns a snapshot of all live sessions for monitoring.
func (e *Engine) Sessions() []SessionInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(e.sessions))
	for _, s := range e.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Session returns the snapshot for one handle.
func (e *Engine) Session(handle string) (SessionInfo, bool) {
	e.mu.RLock()
	s, exists := e.sessions[handle]
	e.mu.RUnlock()

	if !exists {
		return SessionInfo{}, false
	}
	return s.Info(), true
}

// EngineStats represents lifetime engine counters.
type EngineStats struct {
	ActiveSessions  int    `json:"active_sessions"`
	MessagesHandled uint64 `json:"messages_handled"`
	FramingErrors   uint64 `json:"framing_errors"`
}

// Stats returns lifetime counters for monitoring.
func (e *Engine) Stats() EngineStats {
	e.statsMu.RLock()
	handled := e.messagesHandled
	framingErrors := e.framingErrors
	e.statsMu.RUnlock()

	return EngineStats{
		ActiveSessions:  e.ActiveSessionCount(),
		MessagesHandled: handled,
		FramingErrors:   framingErrors,
	}
}
