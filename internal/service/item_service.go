package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
	"github.com/maheshrc27/slotcast/internal/slots"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type ItemInput struct {
	GroupID      string            `json:"group_id"`
	AccountID    string            `json:"account_id"`
	Text         string            `json:"text"`
	Status       models.ItemStatus `json:"status"`
	ScheduledFor *time.Time        `json:"scheduled_for"`
}

// ContentUpdate carries the fields an owner may edit. Nil fields are left
// unchanged.
type ContentUpdate struct {
	Text         *string    `json:"text"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type ItemService interface {
	Create(ctx context.Context, userID int64, in ItemInput, files []FileUpload) (*models.ScheduledItem, error)
	List(ctx context.Context, userID int64, status models.ItemStatus) ([]*models.ScheduledItem, error)
	Get(ctx context.Context, userID int64, id string) (*models.ScheduledItem, error)
	UpdateStatus(ctx context.Context, userID int64, id string, to models.ItemStatus) (*models.ScheduledItem, error)
	UpdateContent(ctx context.Context, userID int64, id string, upd ContentUpdate) (*models.ScheduledItem, error)
	Remove(ctx context.Context, userID int64, id string) error
	NextSlot(ctx context.Context, userID int64, groupID, accountID string) (time.Time, error)
}

type itemService struct {
	items    repository.ItemRepository
	accounts repository.AccountRepository
	storage  ObjectStorage
	queue    Enqueuer
	grid     slots.Grid
	now      func() time.Time
}

func NewItemService(
	items repository.ItemRepository,
	accounts repository.AccountRepository,
	storage ObjectStorage,
	queue Enqueuer,
	grid slots.Grid) ItemService {
	return &itemService{
		items:    items,
		accounts: accounts,
		storage:  storage,
		queue:    queue,
		grid:     grid,
		now:      time.Now,
	}
}

func (s *itemService) Create(ctx context.Context, userID int64, in ItemInput, files []FileUpload) (*models.ScheduledItem, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if !in.Status.IsEditable() {
		return nil, errorf(CodeInvalidArgument, "%w: cannot create an item as %s", ErrInvalidStatus, in.Status)
	}
	if len(files) > models.MaxMedia {
		return nil, newError(CodeInvalidArgument, ErrTooManyMedia)
	}
	if err := checkAccount(ctx, s.accounts, userID, in.GroupID, in.AccountID); err != nil {
		return nil, err
	}

	now := s.now()
	var scheduledFor time.Time
	if in.ScheduledFor != nil {
		scheduledFor = in.ScheduledFor.UTC()
	} else {
		slot, err := s.nextSlot(ctx, userID, in.AccountID, now)
		if err != nil {
			return nil, err
		}
		scheduledFor = slot
	}

	media := make(models.MediaList, 0, len(files))
	for _, f := range files {
		ref, err := ingestFile(ctx, s.storage, userID, f)
		if err != nil {
			return nil, errorf(CodeInvalidArgument, "%s: %w", f.Name, err)
		}
		media = append(media, ref)
	}

	item := &models.ScheduledItem{
		ID:           gonanoid.Must(),
		UserID:       userID,
		GroupID:      in.GroupID,
		AccountID:    in.AccountID,
		Text:         strings.TrimSpace(in.Text),
		Media:        media,
		ScheduledFor: scheduledFor,
		Status:       in.Status,
	}
	if err := s.items.Create(ctx, nil, item); err != nil {
		return nil, errorf(CodeInternal, "creating item: %w", err)
	}

	s.enqueue(ctx, item)
	return item, nil
}

func (s *itemService) List(ctx context.Context, userID int64, status models.ItemStatus) ([]*models.ScheduledItem, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	if status != "" && !status.IsValid() {
		return nil, errorf(CodeInvalidArgument, "unknown status %q", status)
	}
	items, err := s.items.ListByUserID(ctx, userID, status)
	if err != nil {
		return nil, errorf(CodeInternal, "listing items: %w", err)
	}
	return items, nil
}

func (s *itemService) Get(ctx context.Context, userID int64, id string) (*models.ScheduledItem, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	if strings.TrimSpace(id) == "" {
		return nil, newError(CodeInvalidArgument, ErrEmptyItemID)
	}
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, errorf(CodeInternal, "loading item: %w", err)
	}
	if item == nil {
		return nil, newError(CodeNotFound, ErrItemNotFound)
	}
	if item.UserID != userID {
		return nil, newError(CodePermissionDenied, ErrNotOwner)
	}
	return item, nil
}

func (s *itemService) UpdateStatus(ctx context.Context, userID int64, id string, to models.ItemStatus) (*models.ScheduledItem, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item.Status == models.StatusProcessing {
		return nil, newError(CodeFailedPrecondition, ErrItemLocked)
	}
	if !models.IsValidUserTransition(item.Status, to) {
		return nil, errorf(CodeFailedPrecondition, "%w: %s to %s", ErrInvalidStatus, item.Status, to)
	}

	if err := s.items.UpdateStatus(ctx, id, item.Status, to); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, newError(CodeFailedPrecondition, ErrItemLocked)
		}
		return nil, errorf(CodeInternal, "updating status: %w", err)
	}

	item.Status = to
	s.enqueue(ctx, item)
	return item, nil
}

func (s *itemService) UpdateContent(ctx context.Context, userID int64, id string, upd ContentUpdate) (*models.ScheduledItem, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item.Status == models.StatusProcessing {
		return nil, newError(CodeFailedPrecondition, ErrItemLocked)
	}
	if item.Status == models.StatusPosted {
		return nil, newError(CodeFailedPrecondition, ErrAlreadyPosted)
	}

	rescheduled := false
	if upd.Text != nil {
		item.Text = strings.TrimSpace(*upd.Text)
	}
	if upd.ScheduledFor != nil && !upd.ScheduledFor.Equal(item.ScheduledFor) {
		item.ScheduledFor = upd.ScheduledFor.UTC()
		rescheduled = true
	}
	if len(item.Media) > models.MaxMedia {
		return nil, newError(CodeInvalidArgument, ErrTooManyMedia)
	}

	if err := s.items.UpdateContent(ctx, id, item.Text, item.Media, item.ScheduledFor); err != nil {
		if errors.Is(err, repository.ErrItemBusy) {
			return nil, newError(CodeFailedPrecondition, ErrItemLocked)
		}
		return nil, errorf(CodeInternal, "updating item: %w", err)
	}

	if rescheduled {
		s.enqueue(ctx, item)
	}
	return item, nil
}

func (s *itemService) Remove(ctx context.Context, userID int64, id string) error {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if item.Status == models.StatusProcessing {
		return newError(CodeFailedPrecondition, ErrItemLocked)
	}
	if err := s.items.Remove(ctx, id); err != nil {
		if errors.Is(err, repository.ErrItemBusy) {
			return newError(CodeFailedPrecondition, ErrItemLocked)
		}
		return errorf(CodeInternal, "removing item: %w", err)
	}
	return nil
}

func (s *itemService) NextSlot(ctx context.Context, userID int64, groupID, accountID string) (time.Time, error) {
	if userID == 0 {
		return time.Time{}, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	if err := checkAccount(ctx, s.accounts, userID, groupID, accountID); err != nil {
		return time.Time{}, err
	}
	return s.nextSlot(ctx, userID, accountID, s.now())
}

func (s *itemService) nextSlot(ctx context.Context, userID int64, accountID string, now time.Time) (time.Time, error) {
	taken, err := occupiedSlots(ctx, s.items, userID, accountID, now)
	if err != nil {
		return time.Time{}, errorf(CodeInternal, "loading occupied slots: %w", err)
	}
	slot, err := s.grid.NextSlot(taken, now)
	if err != nil {
		if errors.Is(err, slots.ErrSlotExhausted) {
			return time.Time{}, newError(CodeResourceExhausted, err)
		}
		return time.Time{}, newError(CodeInternal, err)
	}
	return slot, nil
}

// enqueue hands scheduled and queued items to the delayed publish queue. The
// periodic sweep picks up anything the queue misses.
func (s *itemService) enqueue(ctx context.Context, item *models.ScheduledItem) {
	if s.queue == nil || !item.Status.IsSweepEligible() {
		return
	}
	if err := s.queue.EnqueuePublish(ctx, item.ID, item.ScheduledFor); err != nil {
		slog.Warn("enqueueing publish task", "item_id", item.ID, "error", err)
	}
}
