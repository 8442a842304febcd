package mocks

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
)

type MockGroupRepository struct {
	mu     sync.Mutex
	groups map[string]*models.Group

	RemoveErr error
	Removed   []string
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{groups: make(map[string]*models.Group)}
}

func (m *MockGroupRepository) Create(ctx context.Context, tx *sql.Tx, g *models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g.CreatedAt = time.Now().UTC()
	cp := *g
	m.groups[g.ID] = &cp
	return nil
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *MockGroupRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Group
	for _, g := range m.groups {
		if g.UserID == userID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockGroupRepository) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Removed = append(m.Removed, id)
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.groups, id)
	return nil
}

type MockAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account

	CreateErr error
}

func NewMockAccountRepository(accounts ...*models.Account) *MockAccountRepository {
	m := &MockAccountRepository{accounts: make(map[string]*models.Account)}
	for _, a := range accounts {
		cp := *a
		m.accounts[a.ID] = &cp
	}
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, tx *sql.Tx, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.accounts[a.ID]; exists {
		return errors.New("duplicate account id")
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, groupID, accountID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[accountID]
	if !ok || a.GroupID != groupID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MockAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) CheckByUserID(ctx context.Context, accountID string, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[accountID]
	return ok && a.UserID == userID, nil
}

func (m *MockAccountRepository) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.accounts, id)
	return nil
}

type MockLegacyCredentialRepository struct {
	mu      sync.Mutex
	records map[int64]*models.LegacyCredential
}

func NewMockLegacyCredentialRepository(records ...*models.LegacyCredential) *MockLegacyCredentialRepository {
	m := &MockLegacyCredentialRepository{records: make(map[int64]*models.LegacyCredential)}
	for _, r := range records {
		cp := *r
		m.records[r.UserID] = &cp
	}
	return m
}

func (m *MockLegacyCredentialRepository) GetByUserID(ctx context.Context, userID int64) (*models.LegacyCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

type MockPublishAttemptRepository struct {
	mu       sync.Mutex
	attempts []*models.PublishAttempt

	CreateErr error
}

func NewMockPublishAttemptRepository() *MockPublishAttemptRepository {
	return &MockPublishAttemptRepository{}
}

func (m *MockPublishAttemptRepository) Create(ctx context.Context, pa *models.PublishAttempt) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	cp := *pa
	cp.ID = int64(len(m.attempts) + 1)
	cp.CreatedAt = time.Now().UTC()
	m.attempts = append(m.attempts, &cp)
	return cp.ID, nil
}

func (m *MockPublishAttemptRepository) ListByItemID(ctx context.Context, itemID string) ([]*models.PublishAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.PublishAttempt
	for _, pa := range m.attempts {
		if pa.ItemID == itemID {
			cp := *pa
			out = append(out, &cp)
		}
	}
	return out, nil
}
