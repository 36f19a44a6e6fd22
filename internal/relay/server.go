package relay

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/user/schoolaide/internal/types"
)

// Server upgrades HTTP requests to websocket connections and drives the
// per-connection read loop.
type Server struct {
	relay    *Relay
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewServer(relay *Relay, hub *Hub) *Server {
	return &Server{
		relay: relay,
		hub:   hub,
		upgrader: websocket.Upgrader{
			// Auth of chat users is out of scope; accept every origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles one websocket session from upgrade to disconnect.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := types.NewConnectionID()
	s.hub.Add(id, ws)
	s.relay.HandleConnect(id)

	defer func() {
		s.hub.Remove(id)
		s.relay.HandleDisconnect(id)
		ws.Close()
	}()

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if err := s.relay.HandleMessage(r.Context(), id, data); err != nil {
			slog.Warn("inbound message rejected",
				"connection_id", string(id),
				"error", err,
			)
		}
	}
}
