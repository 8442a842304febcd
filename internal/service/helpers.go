package service

import (
	"context"
	"fmt"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// FileUpload is one uploaded file read fully into memory.
type FileUpload struct {
	Name string
	Data []byte
}

var allowedTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {}, "mp4": {}, "mov": {},
}

// Enqueuer schedules a delayed publish of an item at its slot time.
type Enqueuer interface {
	EnqueuePublish(ctx context.Context, itemID string, at time.Time) error
}

// sniffContentType detects the media type from the file header.
func sniffContentType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("file is empty")
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return "", fmt.Errorf("unsupported file type")
	}
	if _, ok := allowedTypes[kind.Extension]; !ok {
		return "", fmt.Errorf("file type %s is not allowed", kind.Extension)
	}
	return kind.MIME.Value, nil
}

// ingestFile stores a file in object storage and returns the reference an
// item keeps to it.
func ingestFile(ctx context.Context, storage ObjectStorage, userID int64, f FileUpload) (models.MediaRef, error) {
	contentType, err := sniffContentType(f.Data)
	if err != nil {
		return models.MediaRef{}, err
	}

	id := gonanoid.Must()
	key := fmt.Sprintf("media/%d/%s", userID, id)
	if err := storage.Upload(ctx, key, f.Data, contentType); err != nil {
		return models.MediaRef{}, fmt.Errorf("storing file: %w", err)
	}

	return models.MediaRef{
		ID:          id,
		Path:        key,
		ContentType: contentType,
		Kind:        models.KindFromContentType(contentType),
	}, nil
}

// occupiedSlots reads the account's committed slot times fresh from the store.
func occupiedSlots(ctx context.Context, items repository.ItemRepository, userID int64, accountID string, now time.Time) ([]time.Time, error) {
	return items.ListOccupied(ctx, userID, accountID, now.Add(-time.Hour))
}

func checkAccount(ctx context.Context, accounts repository.AccountRepository, userID int64, groupID, accountID string) error {
	if groupID == "" || accountID == "" {
		return errorf(CodeInvalidArgument, "group and account are required")
	}
	a, err := accounts.GetByID(ctx, groupID, accountID)
	if err != nil {
		return errorf(CodeInternal, "loading account: %w", err)
	}
	if a == nil {
		return newError(CodeNotFound, ErrAccountNotFound)
	}
	if a.UserID != userID {
		return newError(CodePermissionDenied, ErrAccountOwner)
	}
	return nil
}
