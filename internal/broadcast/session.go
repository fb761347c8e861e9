package broadcast

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
	maxInboundFrame   = 4096
)

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type sendResult int

const (
	delivered sendResult = iota
	failed
)

// Session is one live WebSocket connection. Only its writer goroutine
// writes data frames; the owner of the read side calls Discard.
type Session struct {
	id      uuid.UUID
	conn    *websocket.Conn
	clock   clockwork.Clock
	metrics *metrics.WebSocketMetrics

	state    atomic.Int32
	send     chan []byte
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newSession(conn *websocket.Conn, clock clockwork.Clock, m *metrics.WebSocketMetrics) *Session {
	return &Session{
		id:      uuid.New(),
		conn:    conn,
		clock:   clock,
		metrics: m,
		send:    make(chan []byte, messageBufferSize),
		done:    make(chan struct{}),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

// Done is closed once the session has been stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Discard reads and drops inbound frames until the connection fails or is
// closed. Clients have nothing to say to the board; reading is what keeps
// pong handling and close detection working.
func (s *Session) Discard() error {
	s.conn.SetReadLimit(maxInboundFrame)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func (s *Session) open() {
	s.updateReadDeadline()
	s.conn.SetPongHandler(func(string) error {
		s.updateReadDeadline()
		return nil
	})

	s.state.Store(int32(StateOpen))
	s.wg.Add(1)
	go s.run()
}

// trySend enqueues a frame without blocking. A full buffer means the peer
// is not keeping up and counts as a failure.
func (s *Session) trySend(frame []byte) sendResult {
	if s.State() != StateOpen {
		return failed
	}
	select {
	case s.send <- frame:
		return delivered
	default:
		return failed
	}
}

func (s *Session) run() {
	ticker := s.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.wg.Done()

	for {
		select {
		case frame := <-s.send:
			start := s.clock.Now()
			s.updateWriteDeadline()
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.metrics.WriteFailures.Inc()
				s.fail()
				return
			}
			s.metrics.FrameWriteDuration.Observe(s.clock.Since(start).Seconds())
		case <-ticker.Chan():
			s.updateWriteDeadline()
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.metrics.PingFailures.Inc()
				s.fail()
				return
			}
		case <-s.done:
			return
		}
	}
}

// fail marks the session closed and drops the transport, which makes the
// read side return and unregister the session.
func (s *Session) fail() {
	s.state.Store(int32(StateClosed))
	_ = s.conn.Close()
}

func (s *Session) stop() {
	s.stopOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		_ = s.conn.Close()
	})
	s.wg.Wait()
}

// stopGraceful sends a close frame with reason before closing.
func (s *Session) stopGraceful(reason string) {
	s.stopOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)

		// The writer must be gone before the close frame goes out.
		s.wg.Wait()

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		s.updateWriteDeadline()
		_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
		_ = s.conn.Close()
	})
	s.wg.Wait()
}

func (s *Session) updateWriteDeadline() {
	_ = s.conn.SetWriteDeadline(s.clock.Now().Add(writeDeadline))
}

func (s *Session) updateReadDeadline() {
	_ = s.conn.SetReadDeadline(s.clock.Now().Add(pongDeadline))
}
