package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/shikhar190399/q-and-a-websockets/internal/broadcast"
)

const rejectWriteTimeout = time.Second

// handleWebSocket upgrades the request and holds the session until the
// client goes away. Inbound frames are discarded.
func (s *Server) handleWebSocket(c echo.Context) error {
	if !s.sessions.Available() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "websocket capacity reached, try again later",
		})
	}

	ip := c.RealIP()
	if ok, reason := s.wsLimiter.acquire(ip); !ok {
		slog.InfoContext(c.Request().Context(), "WebSocket connection refused", "client_ip", ip, "reason", string(reason))
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "too many websocket connections",
		})
	}
	defer s.wsLimiter.release(ip)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.DebugContext(c.Request().Context(), "WebSocket upgrade failed", "error", err)
		return nil
	}

	session, err := s.sessions.Register(conn)
	if err != nil {
		rejectSession(conn, err)
		return nil
	}
	defer s.sessions.Unregister(session)

	if err := session.Discard(); err != nil {
		slog.DebugContext(c.Request().Context(), "WebSocket session ended", "session_id", session.ID().String(), "error", err)
	}
	return nil
}

// rejectSession closes a connection that lost the race for the last slot
// between the capacity check and Register.
func rejectSession(conn *websocket.Conn, cause error) {
	code := websocket.CloseTryAgainLater
	reason := "websocket capacity reached"
	if errors.Is(cause, broadcast.ErrRegistryClosed) {
		code = websocket.CloseGoingAway
		reason = "server shutting down"
	}

	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(rejectWriteTimeout))
	_ = conn.Close()
}
