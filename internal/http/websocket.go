package http

import (
	"net/http"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamEvents forwards bus events to a websocket client, optionally only
// those of one task (?task_id=).
func (s *Server) streamEvents(c *gin.Context) {
	// Subscribe first so nothing emitted after the handshake is missed.
	ch, unsubscribe := s.opts.Bus.Subscribe()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		unsubscribe()
		s.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	clientID := "client_" + uuid.NewString()[:8]
	taskID := c.Query("task_id")
	s.logger.Infof("Client %s connected", clientID)

	done := make(chan struct{})
	go readPump(conn, done)
	go func() {
		defer func() {
			unsubscribe()
			_ = conn.Close()
			s.logger.Infof("Client %s disconnected", clientID)
		}()
		writePump(conn, ch, done, taskID)
	}()
}

// readPump discards client messages and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, ch <-chan events.Event, done <-chan struct{}, taskID string) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case e, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if taskID != "" && e.TaskID != taskID {
				continue
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
