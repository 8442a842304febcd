package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/twitter"
)

// MediaError names the attachment that stopped an upload batch.
type MediaError struct {
	Index   int
	MediaID string
	Err     error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("attachment %d (id %s): %v", e.Index+1, e.MediaID, e.Err)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

var (
	errMissingPath        = errors.New("storage path is missing")
	errMissingContentType = errors.New("content type is missing")
)

type MediaService interface {
	UploadAll(ctx context.Context, client twitter.Client, refs []models.MediaRef) ([]string, error)
}

type mediaService struct {
	storage ObjectStorage
}

func NewMediaService(storage ObjectStorage) MediaService {
	return &mediaService{storage: storage}
}

// UploadAll uploads attachments one at a time and returns their handles in
// input order. Only the first models.MaxMedia refs are used. The first
// failure aborts the batch.
func (s *mediaService) UploadAll(ctx context.Context, client twitter.Client, refs []models.MediaRef) ([]string, error) {
	if len(refs) > models.MaxMedia {
		slog.Debug("dropping extra attachments", "supplied", len(refs), "max", models.MaxMedia)
		refs = refs[:models.MaxMedia]
	}

	handles := make([]string, 0, len(refs))
	for i, ref := range refs {
		handle, err := s.upload(ctx, client, ref)
		if err != nil {
			return nil, &MediaError{Index: i, MediaID: ref.ID, Err: err}
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

func (s *mediaService) upload(ctx context.Context, client twitter.Client, ref models.MediaRef) (string, error) {
	if ref.Path == "" {
		return "", errMissingPath
	}
	if ref.ContentType == "" {
		return "", errMissingContentType
	}

	ok, err := s.storage.Exists(ctx, ref.Path)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", ref.Path, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMediaNotFound, ref.Path)
	}

	data, err := s.storage.Download(ctx, ref.Path)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", ref.Path, err)
	}

	handle, err := client.UploadMedia(ctx, data, ref.ContentType)
	if err != nil {
		return "", fmt.Errorf("uploading to network: %w", err)
	}
	return handle, nil
}
