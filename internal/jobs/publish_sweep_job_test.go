package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository/mocks"
	"github.com/maheshrc27/slotcast/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	active   int
	maxSeen  int
	calls    []string
	triggers []string
}

func (p *recordingPublisher) PublishScheduled(ctx context.Context, itemID string, trigger string) (service.Outcome, error) {
	p.mu.Lock()
	p.active++
	if p.active > p.maxSeen {
		p.maxSeen = p.active
	}
	p.calls = append(p.calls, itemID)
	p.triggers = append(p.triggers, trigger)
	p.mu.Unlock()

	time.Sleep(time.Millisecond)

	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	return service.OutcomePosted, nil
}

func (p *recordingPublisher) PublishManual(ctx context.Context, userID int64, itemID string) error {
	return nil
}

func TestSweep_DueItemsEarliestFirstWithinPage(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	items := mocks.NewMockItemRepository(
		&models.ScheduledItem{ID: "late", Status: models.StatusScheduled, ScheduledFor: now.Add(-time.Hour)},
		&models.ScheduledItem{ID: "early", Status: models.StatusQueued, ScheduledFor: now.Add(-3 * time.Hour)},
		&models.ScheduledItem{ID: "mid", Status: models.StatusScheduled, ScheduledFor: now.Add(-2 * time.Hour)},
		&models.ScheduledItem{ID: "future", Status: models.StatusScheduled, ScheduledFor: now.Add(time.Hour)},
		&models.ScheduledItem{ID: "manual", Status: models.StatusManual, ScheduledFor: now.Add(-time.Hour)},
		&models.ScheduledItem{ID: "draft", Status: models.StatusDraft, ScheduledFor: now.Add(-time.Hour)},
	)
	pub := &recordingPublisher{}

	job := NewPublishSweepJob(items, pub, 2, 30*time.Minute)
	job.now = func() time.Time { return now }
	job.Sweep(context.Background())

	assert.Equal(t, []string{"early", "mid"}, pub.calls)
	assert.Equal(t, []string{service.TriggerSweep, service.TriggerSweep}, pub.triggers)
	assert.Equal(t, 1, pub.maxSeen, "items must be published sequentially")
}

func TestReclaimStale(t *testing.T) {
	now := time.Now().UTC()
	items := mocks.NewMockItemRepository(
		&models.ScheduledItem{ID: "stuck", Status: models.StatusProcessing, LastUpdatedAt: now.Add(-2 * time.Hour)},
		&models.ScheduledItem{ID: "running", Status: models.StatusProcessing, LastUpdatedAt: now.Add(-time.Minute)},
	)

	job := NewPublishSweepJob(items, &recordingPublisher{}, 25, 30*time.Minute)
	job.now = func() time.Time { return now }
	job.ReclaimStale(context.Background())

	stuck := items.Snapshot("stuck")
	require.NotNil(t, stuck)
	assert.Equal(t, models.StatusFailed, stuck.Status)
	assert.Equal(t, StaleMessage, stuck.LastError)
	assert.Equal(t, models.StatusProcessing, items.Snapshot("running").Status)
}

func TestRun_ReclaimedItemsAreNotRepublished(t *testing.T) {
	items := mocks.NewMockItemRepository(
		&models.ScheduledItem{ID: "stuck", Status: models.StatusProcessing, ScheduledFor: time.Now().Add(-3 * time.Hour), LastUpdatedAt: time.Now().Add(-2 * time.Hour)},
	)
	pub := &recordingPublisher{}

	NewPublishSweepJob(items, pub, 25, 30*time.Minute).Run()

	assert.Empty(t, pub.calls)
	assert.Equal(t, models.StatusFailed, items.Snapshot("stuck").Status)
}
