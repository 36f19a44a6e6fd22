package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/user/schoolaide/internal/types"
)

// IntakeHandler processes one arrived message end to end, retries included.
type IntakeHandler interface {
	Handle(ctx context.Context, id types.MessageID) error
}

// Responder streams one answer for a chat turn.
type Responder interface {
	Respond(ctx context.Context, turn types.ChatTurn) error
}

// Worker runs the asynq server that consumes intake and chat tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(redisAddr string, concurrency int, intake IntakeHandler, responder Responder) *Worker {
	if concurrency < 1 {
		concurrency = 4
	}
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueChat:   3,
				QueueIntake: 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEmailIntake, intakeHandlerFunc(intake))
	mux.HandleFunc(TaskChatRespond, respondHandlerFunc(responder))
	return &Worker{server: server, mux: mux}
}

// Run blocks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Start runs the worker without blocking.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func intakeHandlerFunc(intake IntakeHandler) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload IntakePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode intake payload: %w", err)
		}
		// The handler owns its own retry and error routing; an error here
		// only informs the broker's outer retry policy.
		return intake.Handle(ctx, types.MessageID(payload.MessageID))
	}
}

func respondHandlerFunc(responder Responder) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var turn types.ChatTurn
		if err := json.Unmarshal(task.Payload(), &turn); err != nil {
			return fmt.Errorf("decode respond payload: %w", err)
		}
		// Never retried: a replay would duplicate frames already streamed to
		// the connection. Failures surface to the user as a truncated stream.
		if err := responder.Respond(ctx, turn); err != nil {
			slog.Error("responder failed",
				"connection_id", string(turn.ConnectionID),
				"error", err,
			)
		}
		return nil
	}
}
