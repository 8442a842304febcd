package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository/mocks"
	"github.com/maheshrc27/slotcast/internal/slots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemFixture struct {
	items   *mocks.MockItemRepository
	storage *fakeStorage
	queue   *fakeEnqueuer
	svc     *itemService
	now     time.Time
}

func newItemFixture(t *testing.T, hours []int) *itemFixture {
	t.Helper()

	grid, err := slots.NewGrid(time.UTC, hours)
	require.NoError(t, err)

	f := &itemFixture{
		items:   mocks.NewMockItemRepository(),
		storage: newFakeStorage(),
		queue:   &fakeEnqueuer{},
		now:     time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
	}
	accounts := mocks.NewMockAccountRepository(&models.Account{ID: "a1", GroupID: "g1", UserID: 7})
	f.svc = NewItemService(f.items, accounts, f.storage, f.queue, grid).(*itemService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestItemCreate_AllocatesSlotAndEnqueues(t *testing.T) {
	f := newItemFixture(t, []int{9, 10, 11})
	ctx := context.Background()

	first, err := f.svc.Create(ctx, 7, ItemInput{GroupID: "g1", AccountID: "a1", Text: " hi ", Status: models.StatusScheduled},
		[]FileUpload{{Name: "a.jpg", Data: jpegBytes("a")}})
	require.NoError(t, err)
	assert.Equal(t, "hi", first.Text)
	assert.Equal(t, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), first.ScheduledFor)
	require.Len(t, first.Media, 1)
	assert.Equal(t, "image/jpeg", first.Media[0].ContentType)

	second, err := f.svc.Create(ctx, 7, ItemInput{GroupID: "g1", AccountID: "a1", Status: models.StatusScheduled}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC), second.ScheduledFor)

	require.Len(t, f.queue.tasks, 2)
	assert.Equal(t, enqueued{ItemID: first.ID, At: first.ScheduledFor}, f.queue.tasks[0])
}

func TestItemCreate_DraftIsNotEnqueued(t *testing.T) {
	f := newItemFixture(t, slots.DefaultHours())

	item, err := f.svc.Create(context.Background(), 7, ItemInput{GroupID: "g1", AccountID: "a1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, item.Status)
	assert.Empty(t, f.queue.tasks)
}

func TestItemCreate_Rejects(t *testing.T) {
	f := newItemFixture(t, slots.DefaultHours())
	ctx := context.Background()
	five := make([]FileUpload, 5)

	_, err := f.svc.Create(ctx, 7, ItemInput{GroupID: "g1", AccountID: "a1"}, five)
	assert.ErrorIs(t, err, ErrTooManyMedia)

	_, err = f.svc.Create(ctx, 7, ItemInput{GroupID: "g1", AccountID: "a1", Status: models.StatusPosted}, nil)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	_, err = f.svc.Create(ctx, 7, ItemInput{GroupID: "g1", AccountID: "a1"}, []FileUpload{{Name: "x.txt", Data: []byte("plain")}})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
	assert.Equal(t, 0, f.storage.count())
}

func TestItemCreate_SlotExhausted(t *testing.T) {
	f := newItemFixture(t, []int{9})
	start := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	for d := 0; d < slots.HorizonDays; d++ {
		f.items.Put(&models.ScheduledItem{
			ID:           fmt.Sprintf("x%d", d),
			UserID:       7,
			AccountID:    "a1",
			ScheduledFor: start.AddDate(0, 0, d),
			Status:       models.StatusScheduled,
		})
	}

	_, err := f.svc.Create(context.Background(), 7, ItemInput{GroupID: "g1", AccountID: "a1"}, nil)
	assert.Equal(t, CodeResourceExhausted, CodeOf(err))
	assert.ErrorIs(t, err, slots.ErrSlotExhausted)
}

func TestItemUpdateStatus(t *testing.T) {
	f := newItemFixture(t, slots.DefaultHours())
	ctx := context.Background()
	f.items.Put(&models.ScheduledItem{ID: "d", UserID: 7, Status: models.StatusDraft})
	f.items.Put(&models.ScheduledItem{ID: "p", UserID: 7, Status: models.StatusProcessing})
	f.items.Put(&models.ScheduledItem{ID: "f", UserID: 7, Status: models.StatusFailed, LastError: "boom"})
	f.items.Put(&models.ScheduledItem{ID: "x", UserID: 7, Status: models.StatusPosted})

	item, err := f.svc.UpdateStatus(ctx, 7, "d", models.StatusManual)
	require.NoError(t, err)
	assert.Equal(t, models.StatusManual, item.Status)

	_, err = f.svc.UpdateStatus(ctx, 7, "p", models.StatusDraft)
	assert.ErrorIs(t, err, ErrItemLocked)

	_, err = f.svc.UpdateStatus(ctx, 7, "x", models.StatusScheduled)
	assert.Equal(t, CodeFailedPrecondition, CodeOf(err))

	_, err = f.svc.UpdateStatus(ctx, 7, "d", models.StatusPosted)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(ctx, 8, "d", models.StatusDraft)
	assert.Equal(t, CodePermissionDenied, CodeOf(err))

	_, err = f.svc.UpdateStatus(ctx, 7, "f", models.StatusQueued)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, f.items.Snapshot("f").Status)
	require.Len(t, f.queue.tasks, 1)
	assert.Equal(t, "f", f.queue.tasks[0].ItemID)
}

func TestItemUpdateContent(t *testing.T) {
	f := newItemFixture(t, slots.DefaultHours())
	ctx := context.Background()
	f.items.Put(&models.ScheduledItem{ID: "s", UserID: 7, Status: models.StatusScheduled})
	f.items.Put(&models.ScheduledItem{ID: "x", UserID: 7, Status: models.StatusPosted})
	f.items.Put(&models.ScheduledItem{ID: "p", UserID: 7, Status: models.StatusProcessing})

	text := "new text"
	at := time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC)
	item, err := f.svc.UpdateContent(ctx, 7, "s", ContentUpdate{Text: &text, ScheduledFor: &at})
	require.NoError(t, err)
	assert.Equal(t, "new text", item.Text)
	assert.Equal(t, at, f.items.Snapshot("s").ScheduledFor)
	require.Len(t, f.queue.tasks, 1)

	_, err = f.svc.UpdateContent(ctx, 7, "x", ContentUpdate{Text: &text})
	assert.ErrorIs(t, err, ErrAlreadyPosted)

	_, err = f.svc.UpdateContent(ctx, 7, "p", ContentUpdate{Text: &text})
	assert.ErrorIs(t, err, ErrItemLocked)
}

func TestItemRemove(t *testing.T) {
	f := newItemFixture(t, slots.DefaultHours())
	ctx := context.Background()
	f.items.Put(&models.ScheduledItem{ID: "d", UserID: 7, Status: models.StatusDraft})
	f.items.Put(&models.ScheduledItem{ID: "p", UserID: 7, Status: models.StatusProcessing})

	assert.ErrorIs(t, f.svc.Remove(ctx, 7, "p"), ErrItemLocked)
	require.NoError(t, f.svc.Remove(ctx, 7, "d"))
	assert.Nil(t, f.items.Snapshot("d"))
	assert.Equal(t, CodeNotFound, CodeOf(f.svc.Remove(ctx, 7, "d")))
}

func TestItemList_UnknownStatus(t *testing.T) {
	f := newItemFixture(t, slots.DefaultHours())

	_, err := f.svc.List(context.Background(), 7, models.ItemStatus("bogus"))
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}
