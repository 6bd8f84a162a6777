package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"presale/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 2 * pingPeriod
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SnapshotFunc returns the state a new subscriber starts from.
type SnapshotFunc func(ctx context.Context) (interface{}, error)

// Snapshot is the first message on a fresh connection.
type Snapshot struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ServeFeed upgrades the request and streams hub events until the client
// goes away. The feed is read-only; anything the client sends is discarded.
func ServeFeed(hub *Hub, snapshot SnapshotFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := hub.Register()
		defer client.Close()

		if snapshot != nil {
			state, err := snapshot(c.Request.Context())
			if err != nil {
				logger.Warn("Live feed snapshot failed", "error", err)
			} else if data, err := json.Marshal(Snapshot{Type: "snapshot", Data: state}); err == nil {
				client.trySend(data)
			}
		}

		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case msg := <-c.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
