package broadcast

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

type viewer struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	// send is closed by the hub when the viewer is unregistered.
	send chan []byte
}

// enqueue never blocks. It must be called with hub.mu held.
func (v *viewer) enqueue(b []byte) bool {
	select {
	case v.send <- b:
		return true
	default:
		return false
	}
}

// readPump handles the few client requests and detects disconnects.
func (v *viewer) readPump() {
	defer func() {
		v.hub.unregister(v)
		_ = v.conn.Close()
	}()

	v.conn.SetReadLimit(maxMessageSize)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("broadcast: viewer read failed", "viewer_id", v.id, "error", err)
			}
			return
		}

		var req struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}

		switch req.Type {
		case "ping":
			v.hub.sendTo(v, Frame{Type: FramePong, Data: time.Now()})
		case "status":
			v.hub.sendTo(v, Frame{Type: FrameStatus, Data: Connection{ViewerID: v.id, Viewers: v.hub.Viewers(), ConnectTime: time.Now()}})
		}
	}
}

func (v *viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = v.conn.Close()
	}()

	for {
		select {
		case b, ok := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}

		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
