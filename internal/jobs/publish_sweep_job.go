package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
	"github.com/maheshrc27/slotcast/internal/service"
)

// StaleMessage is written to items whose publish attempt never recorded an
// outcome. The post may or may not have gone out.
const StaleMessage = "publish attempt did not record an outcome; check the account for the post before resubmitting"

// PublishSweepJob publishes due items one at a time and fails items left in
// processing by a crashed attempt.
type PublishSweepJob struct {
	items      repository.ItemRepository
	ps         service.PublishService
	pageSize   int
	staleAfter time.Duration
	now        func() time.Time
}

func NewPublishSweepJob(
	items repository.ItemRepository,
	ps service.PublishService,
	pageSize int,
	staleAfter time.Duration) *PublishSweepJob {
	return &PublishSweepJob{
		items:      items,
		ps:         ps,
		pageSize:   pageSize,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Run is the cron entry point.
func (j *PublishSweepJob) Run() {
	ctx := context.Background()

	j.ReclaimStale(ctx)
	j.Sweep(ctx)
}

func (j *PublishSweepJob) ReclaimStale(ctx context.Context) {
	if j.staleAfter <= 0 {
		return
	}
	n, err := j.items.ReclaimStale(ctx, j.now().Add(-j.staleAfter), StaleMessage)
	if err != nil {
		slog.Error("reclaiming stale items", "error", err)
		return
	}
	if n > 0 {
		slog.Warn("stale processing items failed", "count", n)
	}
}

func (j *PublishSweepJob) Sweep(ctx context.Context) {
	due, err := j.items.ListDue(ctx, models.SweepStatuses, j.now(), j.pageSize)
	if err != nil {
		slog.Error("listing due items", "error", err)
		return
	}

	var posted, skipped, failed int
	for _, item := range due {
		outcome, err := j.ps.PublishScheduled(ctx, item.ID, service.TriggerSweep)
		if err != nil {
			slog.Warn("sweep publish failed", "item_id", item.ID, "error", err)
		}
		switch outcome {
		case service.OutcomePosted:
			posted++
		case service.OutcomeFailed:
			failed++
		default:
			skipped++
		}
	}

	if len(due) > 0 {
		slog.Info("publish sweep finished", "due", len(due), "posted", posted, "skipped", skipped, "failed", failed)
	}
}
