// Package relay accepts chat connections and hands inbound turns to the
// responder queue. Sessions carry no state: each turn is self-contained and
// answers stream back out-of-band through the connection gateway.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/user/schoolaide/internal/types"
)

// inboundFrame is the application message received over the connection. The
// capitalized Language key is part of the wire contract with the frontend.
type inboundFrame struct {
	Prompt   string `json:"prompt"`
	Language string `json:"Language"`
}

// Relay routes connection lifecycle events and inbound messages.
type Relay struct {
	dispatcher types.Dispatcher
}

func New(dispatcher types.Dispatcher) *Relay {
	return &Relay{dispatcher: dispatcher}
}

// HandleConnect accepts every connection and records nothing.
func (r *Relay) HandleConnect(id types.ConnectionID) {
	slog.Info("connection opened", "connection_id", string(id))
}

// HandleDisconnect logs the close. In-flight responder work is not
// cancelled; its pushes fail silently at the gateway.
func (r *Relay) HandleDisconnect(id types.ConnectionID) {
	slog.Info("connection closed", "connection_id", string(id))
}

// HandleMessage extracts the question and language selector from an inbound
// frame and dispatches a responder invocation. Dispatch is fire-and-forget:
// the relay returns as soon as the turn is enqueued.
func (r *Relay) HandleMessage(ctx context.Context, id types.ConnectionID, payload []byte) error {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return fmt.Errorf("decode inbound frame: %w", err)
	}

	turn := types.ChatTurn{
		Prompt:       frame.Prompt,
		ConnectionID: id,
		Language:     frame.Language,
	}
	if err := r.dispatcher.DispatchRespond(ctx, turn); err != nil {
		return fmt.Errorf("dispatch turn for %s: %w", id, err)
	}
	slog.Debug("turn dispatched", "connection_id", string(id), "language", frame.Language)
	return nil
}
