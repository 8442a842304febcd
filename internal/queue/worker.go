package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/slotcast/internal/service"
)

// HandlePublishTask runs the publish pipeline for a due item. Publish
// failures are recorded on the item, so the task itself always succeeds.
func (q *Queue) HandlePublishTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishItemPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding %s payload: %v: %w", TaskTypePublishItem, err, asynq.SkipRetry)
	}
	if payload.ItemID == "" {
		return fmt.Errorf("%s payload has no item id: %w", TaskTypePublishItem, asynq.SkipRetry)
	}

	outcome, err := q.ps.PublishScheduled(ctx, payload.ItemID, service.TriggerQueue)
	if err != nil {
		slog.Warn("queued publish failed", "item_id", payload.ItemID, "outcome", outcome, "error", err)
		return nil
	}
	slog.Info("queued publish finished", "item_id", payload.ItemID, "outcome", outcome)
	return nil
}

// Mux routes asynq tasks to their handlers.
func (q *Queue) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePublishItem, q.HandlePublishTask)
	return mux
}
