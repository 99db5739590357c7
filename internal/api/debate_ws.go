package api

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/agora-ai/agora/pkg/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn serializes writes to one websocket connection. Gorilla allows
// a single concurrent writer, and both the registry (broadcasts) and the
// read loop (pong replies) write here.
type safeConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *safeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *safeConn) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (c *safeConn) Close() error {
	return c.conn.Close()
}

// debateWebSocket attaches a client to a debate's room. The optional
// user_id query parameter names the connection; anonymous clients get a
// synthetic identity from the registry. Clients send the literal "ping"
// to refresh their heartbeat and receive the literal "pong" back.
func (h *Handler) debateWebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := debateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid debate id"})
		return
	}
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid user id"})
			return
		}
		userID = parsed
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sc := &safeConn{conn: conn}

	connID := h.registry.Connect(sc, id, userID)
	defer h.registry.Disconnect(id, connID)
	h.heartbeats.Update(id, connID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(raw) == ws.PingLiteral {
			h.heartbeats.Update(id, connID)
			if err := sc.WriteText(ws.PongLiteral); err != nil {
				return
			}
		}
		// Other client frames are ignored; the server side of the
		// protocol is broadcast-only.
	}
}
