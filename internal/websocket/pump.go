package websocket

import (
	"time"

	gws "github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 70 * time.Second
	pingPeriod = 30 * time.Second
)

// Serve registers client, greets it and pumps frames until the connection
// closes. Clients are read-only: inbound frames other than pongs are dropped.
func (h *Hub) Serve(client *Client) {
	h.Add(client)

	hello, _ := EncodeMessage(Message{Type: TypeHello, EventID: client.EventID})
	if !client.trySend(hello) {
		client.closeConn()
		h.Remove(client)
		return
	}

	go h.writePump(client)
	h.readPump(client)
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		h.log.Debug().Str("event_id", client.EventID).Str("user_id", client.UserID).Msg("feed client disconnected")
		client.closeConn()
		h.Remove(client)
	}()

	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("event_id", client.EventID).Msg("feed read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.closeConn()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(gws.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(gws.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(gws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
