package intake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/schoolaide/internal/types"
)

// MessageProcessor is the unit of work the controller retries.
type MessageProcessor interface {
	Process(ctx context.Context, id types.MessageID) error
	MoveToError(ctx context.Context, id types.MessageID) error
}

// Controller wraps intake attempts with bounded retries and terminal-failure
// routing. Retries are immediate: failures here are expected to be either
// deterministic (malformed content) or idempotent store writes, and the
// triggering infrastructure applies its own backoff on top.
type Controller struct {
	processor   MessageProcessor
	maxAttempts int
}

func NewController(processor MessageProcessor, maxAttempts int) *Controller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Controller{processor: processor, maxAttempts: maxAttempts}
}

// Handle invokes the processor until it succeeds or attempts are exhausted.
// Intermediate failures leave the message at the incoming prefix so the next
// attempt re-reads it from the same place; only the final failure moves it
// to the error prefix.
func (c *Controller) Handle(ctx context.Context, id types.MessageID) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := c.processor.Process(ctx, id)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Warn("intake attempt failed",
			"message_id", string(id),
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", err,
		)
	}

	if err := c.processor.MoveToError(ctx, id); err != nil {
		slog.Error("failed to move message to error prefix", "message_id", string(id), "error", err)
	}
	return fmt.Errorf("process message %s after %d attempts: %w", id, c.maxAttempts, lastErr)
}
