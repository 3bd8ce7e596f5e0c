package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Stream handles GET /v1/board/ws. Every saved board row is sent to the
// socket as a board.updated event. A slow reader misses intermediate rows
// but always receives the latest one.
func (h *BoardHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	userID := actorID(c)
	send := make(chan []byte, sendBuffer)
	unsubscribe := h.services.Events.Subscribe(func(e events.Event) {
		if e.Type != events.BoardUpdated {
			return
		}
		payload, err := json.Marshal(events.Event{Type: e.Type, Row: e.Row})
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to encode board event")
			return
		}
		if enqueueLatest(send, payload) {
			h.log.Warn().Str("user_id", userID).Msg("Board subscriber is behind, dropped oldest update")
		}
	})

	h.metrics.SubscriberAdded()
	h.log.Info().Str("user_id", userID).Msg("Board subscriber connected")

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, send, done)

	unsubscribe()
	h.metrics.SubscriberRemoved()
	h.log.Info().Str("user_id", userID).Msg("Board subscriber disconnected")
}

// enqueueLatest puts payload on send, discarding the oldest queued messages
// while the buffer is full. It reports whether anything was discarded.
func enqueueLatest(send chan []byte, payload []byte) bool {
	dropped := false
	for {
		select {
		case send <- payload:
			return dropped
		default:
		}
		select {
		case <-send:
			dropped = true
		default:
		}
	}
}

// readPump discards client messages and closes done when the peer goes away
func (h *BoardHandler) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

func (h *BoardHandler) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
