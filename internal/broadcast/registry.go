package broadcast

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
)

var (
	ErrRegistryFull   = errors.New("websocket connection limit reached")
	ErrRegistryClosed = errors.New("websocket registry closed")
)

// Registry is the set of live sessions. It is constructed once at startup
// and closed on shutdown.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*Session
	closed      bool
	maxSessions int
	clock       clockwork.Clock
	metrics     *metrics.WebSocketMetrics
}

func NewRegistry(maxSessions int, clock clockwork.Clock, m *metrics.WebSocketMetrics) *Registry {
	return &Registry{
		sessions:    make(map[uuid.UUID]*Session),
		maxSessions: maxSessions,
		clock:       clock,
		metrics:     m,
	}
}

// Register wraps an upgraded connection in a Session, starts its writer and
// adds it to the live set. On error the caller still owns conn.
func (r *Registry) Register(conn *websocket.Conn) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.metrics.SessionsRejected.WithLabelValues("closed").Inc()
		return nil, ErrRegistryClosed
	}
	if len(r.sessions) >= r.maxSessions {
		r.metrics.SessionsRejected.WithLabelValues("full").Inc()
		slog.Warn("Rejecting websocket session: limit reached", "max_sessions", r.maxSessions)
		return nil, ErrRegistryFull
	}

	s := newSession(conn, r.clock, r.metrics)
	s.open()
	r.sessions[s.id] = s
	r.metrics.ActiveSessions.Set(float64(len(r.sessions)))

	slog.Debug("Session registered", "session_id", s.id.String(), "total_sessions", len(r.sessions))
	return s, nil
}

// Unregister removes and closes a session. Unknown, nil and already
// removed sessions are a no-op.
func (r *Registry) Unregister(s *Session) {
	if s == nil {
		return
	}

	r.mu.Lock()
	_, ok := r.sessions[s.id]
	if ok {
		delete(r.sessions, s.id)
		r.metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	s.stop()

	if ok {
		slog.Debug("Session unregistered", "session_id", s.id.String(), "remaining_sessions", remaining)
	}
}

// Snapshot returns the sessions live at call time. The slice is a copy;
// sessions removed afterwards stay in it but refuse sends.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Available reports whether a Register call made now would be accepted.
// Handlers use it to refuse an upgrade with a plain HTTP status.
func (r *Registry) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.closed && len(r.sessions) < r.maxSessions
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close rejects further registrations and closes every live session with
// a close frame carrying reason.
func (r *Registry) Close(reason string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.stopGraceful(reason)
		}()
	}
	wg.Wait()

	slog.Info("Registry closed", "sessions_closed", len(sessions), "reason", reason)
}
