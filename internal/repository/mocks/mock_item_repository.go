package mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
)

// MockItemRepository keeps items in memory. The mutex is held across the
// lock check and the status write, matching the row lock of the real store.
type MockItemRepository struct {
	mu    sync.Mutex
	items map[string]*models.ScheduledItem

	CreateErr     error
	MarkFailedErr error
	// MarkPostedErr is returned once by the next MarkPosted without writing.
	MarkPostedErr error
	locks         int
	// Writes counts every mutation made after construction.
	Writes int
}

func NewMockItemRepository(items ...*models.ScheduledItem) *MockItemRepository {
	m := &MockItemRepository{items: make(map[string]*models.ScheduledItem)}
	for _, it := range items {
		cp := *it
		m.items[it.ID] = &cp
	}
	return m
}

// Snapshot returns a copy of the stored item, or nil.
func (m *MockItemRepository) Snapshot(id string) *models.ScheduledItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok {
		return nil
	}
	cp := *it
	return &cp
}

func (m *MockItemRepository) Create(ctx context.Context, tx *sql.Tx, item *models.ScheduledItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.items[item.ID]; exists {
		return errors.New("duplicate item id")
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.LastUpdatedAt = now
	cp := *item
	m.items[item.ID] = &cp
	m.Writes++
	return nil
}

func (m *MockItemRepository) GetByID(ctx context.Context, id string) (*models.ScheduledItem, error) {
	return m.Snapshot(id), nil
}

func (m *MockItemRepository) ListByUserID(ctx context.Context, userID int64, status models.ItemStatus) ([]*models.ScheduledItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.ScheduledItem
	for _, it := range m.items {
		if it.UserID == userID && (status == "" || it.Status == status) {
			cp := *it
			out = append(out, &cp)
		}
	}
	sortByScheduled(out)
	return out, nil
}

func (m *MockItemRepository) ListDue(ctx context.Context, statuses []models.ItemStatus, now time.Time, limit int) ([]*models.ScheduledItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[models.ItemStatus]bool)
	for _, s := range statuses {
		wanted[s] = true
	}

	var out []*models.ScheduledItem
	for _, it := range m.items {
		if wanted[it.Status] && !it.ScheduledFor.After(now) {
			cp := *it
			out = append(out, &cp)
		}
	}
	sortByScheduled(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockItemRepository) ListOccupied(ctx context.Context, userID int64, accountID string, from time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var taken []time.Time
	for _, it := range m.items {
		if it.UserID == userID && it.AccountID == accountID && it.Status != models.StatusPosted && !it.ScheduledFor.Before(from) {
			taken = append(taken, it.ScheduledFor)
		}
	}
	return taken, nil
}

func (m *MockItemRepository) AcquireLock(ctx context.Context, id string, check repository.LockCheck) (*models.ScheduledItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	cp := *it
	if err := check(&cp); err != nil {
		return nil, err
	}
	m.locks++
	it.Status = models.StatusProcessing
	it.LockID = fmt.Sprintf("lock-%d", m.locks)
	it.LastError = ""
	it.LastUpdatedAt = time.Now().UTC()
	m.Writes++

	locked := *it
	return &locked, nil
}

func (m *MockItemRepository) MarkPosted(ctx context.Context, id, lockID string, postedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.MarkPostedErr != nil {
		err := m.MarkPostedErr
		m.MarkPostedErr = nil
		return err
	}
	it, err := m.held(id, lockID)
	if err != nil {
		return err
	}
	it.Status = models.StatusPosted
	it.PostedAt = &postedAt
	it.LastUpdatedAt = postedAt
	it.LastError = ""
	it.LockID = ""
	m.Writes++
	return nil
}

func (m *MockItemRepository) MarkFailed(ctx context.Context, id, lockID string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.MarkFailedErr != nil {
		return m.MarkFailedErr
	}
	it, err := m.held(id, lockID)
	if err != nil {
		return err
	}
	it.Status = models.StatusFailed
	it.LastError = message
	it.LastUpdatedAt = time.Now().UTC()
	it.LockID = ""
	m.Writes++
	return nil
}

func (m *MockItemRepository) held(id, lockID string) (*models.ScheduledItem, error) {
	it, ok := m.items[id]
	if !ok || it.Status != models.StatusProcessing || it.LockID != lockID {
		return nil, repository.ErrLockLost
	}
	return it, nil
}

func (m *MockItemRepository) UpdateStatus(ctx context.Context, id string, from, to models.ItemStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok || it.Status != from {
		return repository.ErrStatusChanged
	}
	it.Status = to
	it.LastUpdatedAt = time.Now().UTC()
	m.Writes++
	return nil
}

func (m *MockItemRepository) UpdateContent(ctx context.Context, id string, text string, media models.MediaList, scheduledFor time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok || it.Status == models.StatusProcessing || it.Status == models.StatusPosted {
		return repository.ErrItemBusy
	}
	it.Text = text
	it.Media = media
	it.ScheduledFor = scheduledFor
	it.LastUpdatedAt = time.Now().UTC()
	m.Writes++
	return nil
}

func (m *MockItemRepository) ReclaimStale(ctx context.Context, olderThan time.Time, message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, it := range m.items {
		if it.Status == models.StatusProcessing && it.LastUpdatedAt.Before(olderThan) {
			it.Status = models.StatusFailed
			it.LastError = message
			it.LastUpdatedAt = time.Now().UTC()
			it.LockID = ""
			n++
		}
	}
	m.Writes += int(n)
	return n, nil
}

func (m *MockItemRepository) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok || it.Status == models.StatusProcessing {
		return repository.ErrItemBusy
	}
	delete(m.items, id)
	m.Writes++
	return nil
}

// Put stores an item directly, bypassing write counters.
func (m *MockItemRepository) Put(item *models.ScheduledItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *item
	m.items[item.ID] = &cp
}

func sortByScheduled(items []*models.ScheduledItem) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ScheduledFor.Before(items[j].ScheduledFor)
	})
}
