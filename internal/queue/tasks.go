// Package queue is the task handoff between the trigger surfaces (mail
// notifications, chat relay) and the workers that do the work. Both task
// kinds are fire-and-forget for the enqueuer.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/user/schoolaide/internal/types"
)

const (
	// TaskEmailIntake is scheduled when the mail gateway reports an arrived
	// message.
	TaskEmailIntake = "email:intake"
	// TaskChatRespond is scheduled by the relay for each inbound chat turn.
	TaskChatRespond = "chat:respond"
)

// Queue names with their worker priorities.
const (
	QueueIntake = "intake"
	QueueChat   = "chat"
)

// IntakePayload identifies one arrived email.
type IntakePayload struct {
	MessageID string `json:"message_id"`
}

// Dispatcher enqueues tasks through asynq. The broker's own retry policy is
// the "external" retry of the intake trigger; chat turns are never retried
// by the broker because a partially delivered stream must not be replayed.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(redisAddr string) *Dispatcher {
	return &Dispatcher{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

func (d *Dispatcher) DispatchIntake(ctx context.Context, id types.MessageID) error {
	data, err := json.Marshal(IntakePayload{MessageID: string(id)})
	if err != nil {
		return fmt.Errorf("marshal intake payload: %w", err)
	}
	task := asynq.NewTask(TaskEmailIntake, data)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueIntake), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue intake task: %w", err)
	}
	return nil
}

func (d *Dispatcher) DispatchRespond(ctx context.Context, turn types.ChatTurn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal respond payload: %w", err)
	}
	task := asynq.NewTask(TaskChatRespond, data)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueChat), asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("enqueue respond task: %w", err)
	}
	return nil
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}
