package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/slotcast/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrItemNotFound = errors.New("scheduled item not found")
	// ErrLockConflict is returned when a concurrent transaction touched the
	// item while a publish lock was being taken.
	ErrLockConflict = errors.New("scheduled item lock conflict")
	// ErrItemBusy is returned by conditional writes that refuse to touch an
	// item being published (or already posted, for content edits).
	ErrItemBusy      = errors.New("scheduled item is locked by a publish attempt")
	ErrStatusChanged = errors.New("scheduled item status changed concurrently")
	// ErrLockLost is returned by terminal writes when the item is no longer
	// held by the attempt that carries the lock id.
	ErrLockLost = errors.New("scheduled item is no longer held by this publish attempt")
)

// LockCheck inspects the row read under FOR UPDATE. A non-nil error aborts
// the lock transaction and is returned unchanged to the caller.
type LockCheck func(item *models.ScheduledItem) error

type ItemRepository interface {
	Create(ctx context.Context, tx *sql.Tx, item *models.ScheduledItem) error
	GetByID(ctx context.Context, id string) (*models.ScheduledItem, error)
	ListByUserID(ctx context.Context, userID int64, status models.ItemStatus) ([]*models.ScheduledItem, error)
	ListDue(ctx context.Context, statuses []models.ItemStatus, now time.Time, limit int) ([]*models.ScheduledItem, error)
	ListOccupied(ctx context.Context, userID int64, accountID string, from time.Time) ([]time.Time, error)
	AcquireLock(ctx context.Context, id string, check LockCheck) (*models.ScheduledItem, error)
	MarkPosted(ctx context.Context, id, lockID string, postedAt time.Time) error
	MarkFailed(ctx context.Context, id, lockID string, message string) error
	UpdateStatus(ctx context.Context, id string, from, to models.ItemStatus) error
	UpdateContent(ctx context.Context, id string, text string, media models.MediaList, scheduledFor time.Time) error
	ReclaimStale(ctx context.Context, olderThan time.Time, message string) (int64, error)
	Remove(ctx context.Context, id string) error
}

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, user_id, group_id, account_id, text, media, scheduled_for, status,
	created_at, last_updated_at, posted_at, last_error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.ScheduledItem, error) {
	var (
		item      models.ScheduledItem
		postedAt  sql.NullTime
		lastError sql.NullString
	)
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.GroupID,
		&item.AccountID,
		&item.Text,
		&item.Media,
		&item.ScheduledFor,
		&item.Status,
		&item.CreatedAt,
		&item.LastUpdatedAt,
		&postedAt,
		&lastError,
	)
	if err != nil {
		return nil, err
	}
	if postedAt.Valid {
		t := postedAt.Time
		item.PostedAt = &t
	}
	item.LastError = lastError.String
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*models.ScheduledItem, error) {
	defer rows.Close()

	var items []*models.ScheduledItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) Create(ctx context.Context, tx *sql.Tx, item *models.ScheduledItem) error {
	query := `
		INSERT INTO scheduled_items (id, user_id, group_id, account_id, text, media, scheduled_for, status, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`
	now := time.Now().UTC()
	args := []any{item.ID, item.UserID, item.GroupID, item.AccountID, item.Text, item.Media, item.ScheduledFor, item.Status, now}

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	item.CreatedAt = now
	item.LastUpdatedAt = now
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*models.ScheduledItem, error) {
	query := `SELECT ` + itemColumns + ` FROM scheduled_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) ListByUserID(ctx context.Context, userID int64, status models.ItemStatus) ([]*models.ScheduledItem, error) {
	var rows *sql.Rows
	var err error

	if status == "" {
		query := `SELECT ` + itemColumns + ` FROM scheduled_items WHERE user_id = $1 ORDER BY scheduled_for ASC`
		rows, err = r.db.QueryContext(ctx, query, userID)
	} else {
		query := `SELECT ` + itemColumns + ` FROM scheduled_items WHERE user_id = $1 AND status = $2 ORDER BY scheduled_for ASC`
		rows, err = r.db.QueryContext(ctx, query, userID, status)
	}
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return scanItems(rows)
}

// ListDue returns items in one of statuses whose scheduled time has passed,
// earliest first.
func (r *itemRepository) ListDue(ctx context.Context, statuses []models.ItemStatus, now time.Time, limit int) ([]*models.ScheduledItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM scheduled_items
		WHERE status = ANY($1) AND scheduled_for <= $2
		ORDER BY scheduled_for ASC
		LIMIT $3
	`
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(names), now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return scanItems(rows)
}

// ListOccupied returns the scheduled times already committed on an account.
// Posted items no longer hold their slot.
func (r *itemRepository) ListOccupied(ctx context.Context, userID int64, accountID string, from time.Time) ([]time.Time, error) {
	query := `
		SELECT scheduled_for FROM scheduled_items
		WHERE user_id = $1 AND account_id = $2 AND status <> $3 AND scheduled_for >= $4
	`
	rows, err := r.db.QueryContext(ctx, query, userID, accountID, models.StatusPosted, from)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var taken []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		taken = append(taken, t)
	}
	return taken, rows.Err()
}

// AcquireLock claims the item for one publish attempt. The row is read under
// FOR UPDATE in a serializable transaction, handed to check, and moved to
// processing only if check accepts it. The returned item carries the lock id
// that MarkPosted and MarkFailed must present.
func (r *itemRepository) AcquireLock(ctx context.Context, id string, check LockCheck) (*models.ScheduledItem, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return nil, lockError(err)
	}
	defer tx.Rollback()

	query := `SELECT ` + itemColumns + ` FROM scheduled_items WHERE id = $1 FOR UPDATE`
	item, err := scanItem(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		slog.Info(err.Error())
		return nil, lockError(err)
	}

	if err := check(item); err != nil {
		return nil, err
	}

	lockID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := `
		UPDATE scheduled_items
		SET status = $1,
			lock_id = $2,
			last_error = NULL,
			last_updated_at = $3
		WHERE id = $4
	`
	if _, err := tx.ExecContext(ctx, update, models.StatusProcessing, lockID, now, id); err != nil {
		slog.Info(err.Error())
		return nil, lockError(err)
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return nil, lockError(err)
	}

	item.Status = models.StatusProcessing
	item.LockID = lockID
	item.LastError = ""
	item.LastUpdatedAt = now
	return item, nil
}

// MarkPosted and MarkFailed only touch an item still in processing under
// lockID. A reclaimed or relocked item yields ErrLockLost and is left as is.
func (r *itemRepository) MarkPosted(ctx context.Context, id, lockID string, postedAt time.Time) error {
	query := `
		UPDATE scheduled_items
		SET status = $1,
			posted_at = $2,
			last_updated_at = $2,
			last_error = NULL,
			lock_id = NULL
		WHERE id = $3 AND status = $4 AND lock_id = $5
	`
	res, err := r.db.ExecContext(ctx, query, models.StatusPosted, postedAt, id, models.StatusProcessing, lockID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res, ErrLockLost)
}

func (r *itemRepository) MarkFailed(ctx context.Context, id, lockID string, message string) error {
	query := `
		UPDATE scheduled_items
		SET status = $1,
			last_error = $2,
			last_updated_at = $3,
			lock_id = NULL
		WHERE id = $4 AND status = $5 AND lock_id = $6
	`
	res, err := r.db.ExecContext(ctx, query, models.StatusFailed, message, time.Now().UTC(), id, models.StatusProcessing, lockID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res, ErrLockLost)
}

// UpdateStatus moves an item from one status to another only if it is still
// in the expected status.
func (r *itemRepository) UpdateStatus(ctx context.Context, id string, from, to models.ItemStatus) error {
	query := `
		UPDATE scheduled_items
		SET status = $1,
			last_updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res, ErrStatusChanged)
}

func (r *itemRepository) UpdateContent(ctx context.Context, id string, text string, media models.MediaList, scheduledFor time.Time) error {
	query := `
		UPDATE scheduled_items
		SET text = $1,
			media = $2,
			scheduled_for = $3,
			last_updated_at = $4
		WHERE id = $5 AND status NOT IN ($6, $7)
	`
	res, err := r.db.ExecContext(ctx, query, text, media, scheduledFor, time.Now().UTC(), id, models.StatusProcessing, models.StatusPosted)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res, ErrItemBusy)
}

// ReclaimStale fails items that have been processing since before olderThan.
func (r *itemRepository) ReclaimStale(ctx context.Context, olderThan time.Time, message string) (int64, error) {
	query := `
		UPDATE scheduled_items
		SET status = $1,
			last_error = $2,
			last_updated_at = $3,
			lock_id = NULL
		WHERE status = $4 AND last_updated_at < $5
	`
	res, err := r.db.ExecContext(ctx, query, models.StatusFailed, message, time.Now().UTC(), models.StatusProcessing, olderThan)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}

func (r *itemRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM scheduled_items WHERE id = $1 AND status <> $2`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusProcessing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res, ErrItemBusy)
}

func expectOneRow(res sql.Result, noRows error) error {
	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n == 0 {
		return noRows
	}
	return nil
}

// lockError maps postgres serialization and deadlock failures to
// ErrLockConflict.
func lockError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", ErrLockConflict, pqErr.Message)
		}
	}
	return err
}
