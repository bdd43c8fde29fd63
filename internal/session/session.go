package session

import (
	"sync"
	"time"

	"github.com/skypro1111/airfoil-metadata-service/internal/protocol"
)

// Transport is the byte-stream collaborator the engine writes back
// through. Write submits bytes for asynchronous delivery and must not
// block on the peer. Close tears the connection down; the transport
// then reports the teardown via Engine.OnDisconnect like any other
// disconnect.
type Transport interface {
	Write(handle string, data []byte) error
	Close(handle string) error
}

// Session binds one connection handle to one framer. The mutex
// serializes deliveries: the engine is transport-agnostic and cannot
// assume every adapter delivers one chunk at a time.
type Session struct {
	Handle     string
	RemoteAddr string
	StartTime  time.Time

	framer *protocol.Framer

	lastActivity    time.Time
	bytesReceived   uint64
	messagesHandled uint64

	mu sync.Mutex
}

// SessionInfo is a point-in-time snapshot for monitoring APIs.
type SessionInfo struct {
	Handle          string        `json:"handle"`
	RemoteAddr      string        `json:"remote_addr"`
	StartTime       time.Time     `json:"start_time"`
	LastActivity    time.Time     `json:"last_activity"`
	Duration        time.Duration `json:"duration"`
	BytesReceived   uint64        `json:"bytes_received"`
	MessagesHandled uint64        `json:"messages_handled"`
}

// Info returns a snapshot of the session's counters.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionInfo{
		Handle:          s.Handle,
		RemoteAddr:      s.RemoteAddr,
		StartTime:       s.StartTime,
		LastActivity:    s.lastActivity,
		Duration:        time.Since(s.StartTime),
		BytesReceived:   s.bytesReceived,
		MessagesHandled: s.messagesHandled,
	}
}
