package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/user/schoolaide/internal/types"
)

// Hub tracks live websocket connections and implements the connection
// gateway. Pushes to connections that have gone away succeed silently: the
// responder must never crash because its reader disconnected mid-stream.
type Hub struct {
	mu    sync.RWMutex
	conns map[types.ConnectionID]*hubConn
}

type hubConn struct {
	ws *websocket.Conn
	// gorilla allows one concurrent writer per connection.
	writeMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{conns: make(map[types.ConnectionID]*hubConn)}
}

func (h *Hub) Add(id types.ConnectionID, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = &hubConn{ws: ws}
}

func (h *Hub) Remove(id types.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// Push sends one frame to the connection. Unknown connection or write
// failure is a silent success, logged at debug.
func (h *Hub) Push(ctx context.Context, id types.ConnectionID, frame types.Frame) error {
	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		slog.Debug("push to unknown connection dropped", "connection_id", string(id))
		return nil
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()
	if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("push to closed connection dropped",
			"connection_id", string(id),
			"error", err,
		)
		return nil
	}
	return nil
}

// Len reports the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
