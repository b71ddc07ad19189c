package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"lan-stream/internal/metrics"
	"lan-stream/internal/storage"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 64
)

// Conn is the part of *websocket.Conn the hub writes through.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Hub fans accepted history entries out to every connected session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	closed   bool

	metrics *metrics.Registry
	logger  *zap.Logger
}

// Session is one connected client.
type Session struct {
	hub  *Hub
	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// ------------------------------------------------------------------------------------------------------
func NewHub(logger *zap.Logger, m *metrics.Registry) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[*Session]struct{}),
		metrics:  m,
		logger:   logger,
	}
}

// ------------------------------------------------------------------------------------------------------
// Register adds conn to the broadcast set and starts its write pump.
// Registering on a closed hub closes conn straight away.
func (h *Hub) Register(conn Conn) *Session {
	s := &Session{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.close()
		return s
	}
	h.sessions[s] = struct{}{}
	count := len(h.sessions)
	h.mu.Unlock()

	h.metrics.SetSessions(count)
	h.logger.Info("Session registered", zap.Int("sessions", count))

	go s.writePump()
	return s
}

// ------------------------------------------------------------------------------------------------------
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	count := len(h.sessions)
	h.mu.Unlock()

	s.close()
	if ok {
		h.metrics.SetSessions(count)
		h.logger.Info("Session unregistered", zap.Int("sessions", count))
	}
}

// ------------------------------------------------------------------------------------------------------
// Broadcast sends entry to every session. Sessions whose send buffer is
// full are dropped rather than allowed to stall the others.
func (h *Hub) Broadcast(entry storage.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	var slow []*Session
	h.mu.RLock()
	for s := range h.sessions {
		select {
		case s.send <- payload:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	h.metrics.ObserveBroadcast()
	for _, s := range slow {
		h.metrics.ObserveDroppedSession()
		h.logger.Warn("Dropping slow session")
		h.Unregister(s)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ------------------------------------------------------------------------------------------------------
// Run blocks until ctx is done and then disconnects every session.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[*Session]struct{})
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	h.metrics.SetSessions(0)
}

// ------------------------------------------------------------------------------------------------------
// Send queues v for this session only. It reports false when the session is
// gone or its buffer is full.
func (s *Session) Send(v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		s.hub.logger.Error("Failed to encode session message", zap.Error(err))
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// ------------------------------------------------------------------------------------------------------
// Done is closed once the session has been disconnected.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ------------------------------------------------------------------------------------------------------
func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// ------------------------------------------------------------------------------------------------------
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.hub.logger.Debug("Session write failed", zap.Error(err))
				s.hub.Unregister(s)
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.hub.Unregister(s)
				return
			}
		}
	}
}

// ------------------------------------------------------------------------------------------------------
func (s *Session) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}
