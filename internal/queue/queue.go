package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules item:publish tasks to fire at an item's slot time.
type Enqueuer struct {
	client taskClient
	now    func() time.Time
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client, now: time.Now}
}

// EnqueuePublish schedules a publish task. Tasks are never retried; a failed
// publish waits for a human to resubmit the item.
func (e *Enqueuer) EnqueuePublish(ctx context.Context, itemID string, at time.Time) error {
	taskPayload, err := json.Marshal(PublishItemPayload{ItemID: itemID})
	if err != nil {
		return err
	}

	delay := at.Sub(e.now())
	if delay < 0 {
		delay = 0
	}

	task := asynq.NewTask(TaskTypePublishItem, taskPayload)
	info, err := e.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.MaxRetry(0))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Debug("publish task scheduled", "item_id", itemID, "task_id", info.ID, "delay", delay.String())
	return nil
}
