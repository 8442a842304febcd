package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
	"github.com/maheshrc27/slotcast/internal/twitter"
)

type Outcome string

const (
	OutcomePosted  Outcome = "posted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

const (
	TriggerSweep  = "sweep"
	TriggerQueue  = "queue"
	TriggerManual = "manual"
)

// CredentialResolver looks up the decrypted credentials of an account.
type CredentialResolver interface {
	ResolveCredential(ctx context.Context, groupID, accountID string) (*models.Credential, error)
}

type PublishService interface {
	// PublishScheduled publishes a due scheduled or queued item. Items that
	// are not eligible, or that another attempt holds, are skipped.
	PublishScheduled(ctx context.Context, itemID string, trigger string) (Outcome, error)
	// PublishManual publishes an item the caller marked for manual sending.
	// All returned errors are *Error.
	PublishManual(ctx context.Context, userID int64, itemID string) error
}

type publishService struct {
	items       repository.ItemRepository
	attempts    repository.PublishAttemptRepository
	credentials CredentialResolver
	clients     twitter.ClientFactory
	media       MediaService
	// attemptTimeout bounds the network part of one attempt. It must stay
	// below the stale-processing threshold of the sweep job.
	attemptTimeout time.Duration
	now            func() time.Time
}

func NewPublishService(
	items repository.ItemRepository,
	attempts repository.PublishAttemptRepository,
	credentials CredentialResolver,
	clients twitter.ClientFactory,
	media MediaService,
	attemptTimeout time.Duration) PublishService {
	return &publishService{
		items:          items,
		attempts:       attempts,
		credentials:    credentials,
		clients:        clients,
		media:          media,
		attemptTimeout: attemptTimeout,
		now:            time.Now,
	}
}

var errNotDue = errors.New("item is not due")

func (s *publishService) PublishScheduled(ctx context.Context, itemID string, trigger string) (Outcome, error) {
	now := s.now()

	item, err := s.items.AcquireLock(ctx, itemID, func(it *models.ScheduledItem) error {
		if !it.Status.IsSweepEligible() || it.ScheduledFor.After(now) {
			return errNotDue
		}
		return nil
	})
	switch {
	case errors.Is(err, errNotDue),
		errors.Is(err, repository.ErrLockConflict),
		errors.Is(err, repository.ErrItemNotFound):
		slog.Debug("publish skipped", "item_id", itemID, "trigger", trigger, "reason", err.Error())
		return OutcomeSkipped, nil
	case err != nil:
		return OutcomeSkipped, err
	}

	if err := s.publish(ctx, item, trigger); err != nil {
		return OutcomeFailed, err
	}
	return OutcomePosted, nil
}

func (s *publishService) PublishManual(ctx context.Context, userID int64, itemID string) error {
	if userID == 0 {
		return newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return newError(CodeInvalidArgument, ErrEmptyItemID)
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return newError(CodeInternal, err)
	}
	if item == nil {
		return newError(CodeNotFound, ErrItemNotFound)
	}
	if item.UserID != userID {
		return newError(CodePermissionDenied, ErrNotOwner)
	}
	if err := manualPrecondition(item.Status); err != nil {
		return newError(CodeFailedPrecondition, err)
	}

	locked, err := s.items.AcquireLock(ctx, itemID, func(it *models.ScheduledItem) error {
		if it.UserID != userID {
			return ErrNotOwner
		}
		return manualPrecondition(it.Status)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotFound):
			return newError(CodeNotFound, ErrItemNotFound)
		case errors.Is(err, ErrNotOwner):
			return newError(CodePermissionDenied, ErrNotOwner)
		case errors.Is(err, repository.ErrLockConflict),
			errors.Is(err, ErrAlreadyPosted),
			errors.Is(err, ErrAlreadyProcessing),
			errors.Is(err, ErrNotManual):
			return &Error{Code: CodeFailedPrecondition, Message: ErrLockLost.Error(), Err: ErrLockLost}
		default:
			return newError(CodeInternal, err)
		}
	}

	if err := s.publish(ctx, locked, TriggerManual); err != nil {
		return newError(CodeInternal, err)
	}
	return nil
}

func manualPrecondition(status models.ItemStatus) error {
	switch status {
	case models.StatusManual:
		return nil
	case models.StatusPosted:
		return ErrAlreadyPosted
	case models.StatusProcessing:
		return ErrAlreadyProcessing
	default:
		return fmt.Errorf("%w (status %s)", ErrNotManual, status)
	}
}

// publish runs the post-lock pipeline for an item already in processing and
// records the terminal status under the lock id taken by AcquireLock.
func (s *publishService) publish(ctx context.Context, item *models.ScheduledItem, trigger string) error {
	sendCtx := ctx
	if s.attemptTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()
	}
	postID, err := s.send(sendCtx, item)

	// Terminal writes must land even when the attempt ran out of time.
	writeCtx := context.WithoutCancel(ctx)

	if err != nil {
		msg := err.Error()
		switch markErr := s.items.MarkFailed(writeCtx, item.ID, item.LockID, msg); {
		case errors.Is(markErr, repository.ErrLockLost):
			slog.Warn("publish failure not recorded, item no longer held", "item_id", item.ID, "trigger", trigger, "error", msg)
		case markErr != nil:
			slog.Error("recording publish failure", "item_id", item.ID, "error", markErr)
		}
		s.recordAttempt(writeCtx, item, trigger, msg)
		slog.Warn("publish failed", "item_id", item.ID, "trigger", trigger, "error", msg)
		return err
	}

	if err := s.items.MarkPosted(writeCtx, item.ID, item.LockID, s.now().UTC()); err != nil {
		slog.Error("recording published item", "item_id", item.ID, "post_id", postID, "error", err)
	}
	s.recordAttempt(writeCtx, item, trigger, "")
	slog.Info("item published", "item_id", item.ID, "post_id", postID, "trigger", trigger, "media", len(item.Media))
	return nil
}

func (s *publishService) send(ctx context.Context, item *models.ScheduledItem) (string, error) {
	cred, err := s.credentials.ResolveCredential(ctx, item.GroupID, item.AccountID)
	if err != nil {
		return "", fmt.Errorf("resolving credentials: %w", err)
	}
	if !cred.Complete() {
		return "", ErrIncompleteCredentials
	}
	if cred.UserID != item.UserID {
		return "", ErrAccountOwner
	}

	client, err := s.clients.NewClient(twitter.Credentials{
		AppKey:       cred.AppKey,
		AppSecret:    cred.AppSecret,
		AccessToken:  cred.AccessToken,
		AccessSecret: cred.AccessSecret,
	})
	if err != nil {
		return "", fmt.Errorf("creating client: %w", err)
	}

	handles, err := s.media.UploadAll(ctx, client, item.Media)
	if err != nil {
		return "", err
	}

	var postID string
	switch n := len(handles); {
	case n == 0:
		postID, err = client.Post(ctx, item.Text, nil)
	case n <= models.MaxMedia:
		postID, err = client.Post(ctx, item.Text, handles)
	default:
		return "", fmt.Errorf("%w: %d", ErrMediaArity, n)
	}
	if err != nil {
		return "", fmt.Errorf("posting: %w", err)
	}
	return postID, nil
}

func (s *publishService) recordAttempt(ctx context.Context, item *models.ScheduledItem, trigger, msg string) {
	_, err := s.attempts.Create(ctx, &models.PublishAttempt{
		ItemID:       item.ID,
		UserID:       item.UserID,
		AccountID:    item.AccountID,
		Trigger:      trigger,
		ErrorMessage: msg,
	})
	if err != nil {
		slog.Warn("recording publish attempt", "item_id", item.ID, "error", err)
	}
}
