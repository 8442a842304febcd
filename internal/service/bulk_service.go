package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
	"github.com/maheshrc27/slotcast/internal/slots"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type BulkRequest struct {
	UserID    int64
	GroupID   string
	AccountID string
	Files     []FileUpload
}

type BulkProgress struct {
	FileName  string `json:"file_name"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
}

// ProgressFunc is called synchronously after each file of a batch.
type ProgressFunc func(BulkProgress)

type BulkFileError struct {
	FileName string `json:"file_name"`
	Message  string `json:"message"`
}

type BulkResult struct {
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
	Errors    []BulkFileError         `json:"errors"`
	Items     []*models.ScheduledItem `json:"items"`
}

type BulkService interface {
	ScheduleBatch(ctx context.Context, req BulkRequest, progress ProgressFunc) (*BulkResult, error)
}

type bulkService struct {
	items    repository.ItemRepository
	accounts repository.AccountRepository
	storage  ObjectStorage
	queue    Enqueuer
	grid     slots.Grid
	now      func() time.Time
	shuffle  func(n int, swap func(i, j int))
}

func NewBulkService(
	items repository.ItemRepository,
	accounts repository.AccountRepository,
	storage ObjectStorage,
	queue Enqueuer,
	grid slots.Grid) BulkService {
	return &bulkService{
		items:    items,
		accounts: accounts,
		storage:  storage,
		queue:    queue,
		grid:     grid,
		now:      time.Now,
		shuffle:  rand.Shuffle,
	}
}

// ScheduleBatch creates one scheduled item per file. Files and free slots are
// shuffled independently and paired by position. A failing file is recorded
// and the batch continues.
func (s *bulkService) ScheduleBatch(ctx context.Context, req BulkRequest, progress ProgressFunc) (*BulkResult, error) {
	if req.UserID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	if len(req.Files) == 0 {
		return nil, newError(CodeInvalidArgument, ErrNoFiles)
	}
	if err := checkAccount(ctx, s.accounts, req.UserID, req.GroupID, req.AccountID); err != nil {
		return nil, err
	}

	now := s.now()
	taken, err := occupiedSlots(ctx, s.items, req.UserID, req.AccountID, now)
	if err != nil {
		return nil, errorf(CodeInternal, "loading occupied slots: %w", err)
	}

	n := len(req.Files)
	free, err := s.grid.NextSlots(taken, n, now)
	if len(free) < n {
		return nil, errorf(CodeFailedPrecondition, "%w: %d files, %d slots", ErrSlotCountMismatch, n, len(free))
	}
	if err != nil {
		return nil, newError(CodeInternal, err)
	}

	files := make([]FileUpload, n)
	copy(files, req.Files)
	s.shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })
	s.shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	result := &BulkResult{}
	for i, f := range files {
		item, err := s.scheduleOne(ctx, req, f, free[i])
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkFileError{FileName: f.Name, Message: err.Error()})
			slog.Warn("bulk file failed", "user_id", req.UserID, "file", f.Name, "error", err)
		} else {
			result.Succeeded++
			result.Items = append(result.Items, item)
		}

		if progress != nil {
			progress(BulkProgress{
				FileName:  f.Name,
				Completed: result.Succeeded,
				Failed:    result.Failed,
				Total:     n,
			})
		}
	}

	slog.Info("bulk batch scheduled", "user_id", req.UserID, "account_id", req.AccountID,
		"succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

func (s *bulkService) scheduleOne(ctx context.Context, req BulkRequest, f FileUpload, slot time.Time) (*models.ScheduledItem, error) {
	ref, err := ingestFile(ctx, s.storage, req.UserID, f)
	if err != nil {
		return nil, err
	}

	item := &models.ScheduledItem{
		ID:           gonanoid.Must(),
		UserID:       req.UserID,
		GroupID:      req.GroupID,
		AccountID:    req.AccountID,
		Media:        models.MediaList{ref},
		ScheduledFor: slot,
		Status:       models.StatusScheduled,
	}
	if err := s.items.Create(ctx, nil, item); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	if s.queue != nil {
		if err := s.queue.EnqueuePublish(ctx, item.ID, item.ScheduledFor); err != nil {
			slog.Warn("enqueueing publish task", "item_id", item.ID, "error", err)
		}
	}
	return item, nil
}
