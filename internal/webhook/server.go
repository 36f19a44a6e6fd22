// internal/webhook/server.go
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/user/schoolaide/internal/types"
)

// Server is the HTTP surface of the serve node: mail-gateway notifications,
// cross-process frame pushes, the websocket chat endpoint, and health.
type Server struct {
	dispatcher types.Dispatcher
	gateway    types.ConnectionGateway
	mux        *http.ServeMux
}

// NewServer wires the endpoints. ws handles the chat websocket upgrade; pass
// nil to run a notification-only server.
func NewServer(dispatcher types.Dispatcher, gateway types.ConnectionGateway, ws http.Handler) *Server {
	s := &Server{
		dispatcher: dispatcher,
		gateway:    gateway,
		mux:        http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /notifications/email", s.handleEmailNotification)
	s.mux.HandleFunc("POST /connections/{id}", s.handlePush)
	if ws != nil {
		s.mux.Handle("GET /ws", ws)
	}
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// emailNotification is the trigger payload from the mail gateway: one
// arrived email's globally unique identifier.
type emailNotification struct {
	MessageID string `json:"messageId"`
}

func (s *Server) handleEmailNotification(w http.ResponseWriter, r *http.Request) {
	var notification emailNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if notification.MessageID == "" {
		http.Error(w, `{"error":"messageId is required"}`, http.StatusBadRequest)
		return
	}

	if err := s.dispatcher.DispatchIntake(r.Context(), types.MessageID(notification.MessageID)); err != nil {
		slog.Error("intake dispatch failed", "message_id", notification.MessageID, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

// handlePush lets a standalone worker stream frames to a connection this
// process holds.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, `{"error":"connection id required"}`, http.StatusBadRequest)
		return
	}

	var frame types.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	if err := s.gateway.Push(r.Context(), types.ConnectionID(id), frame); err != nil {
		slog.Error("frame push failed", "connection_id", id, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
