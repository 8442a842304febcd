package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
)

// AccountRepository stores accounts with their credential columns exactly as
// given. Encryption happens in the service layer.
type AccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, a *models.Account) error
	GetByID(ctx context.Context, groupID, accountID string) (*models.Account, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Account, error)
	CheckByUserID(ctx context.Context, accountID string, userID int64) (bool, error)
	Remove(ctx context.Context, id string) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, tx *sql.Tx, a *models.Account) error {
	insertQuery := `
		INSERT INTO accounts(
			id,
			group_id,
			user_id,
			display_name,
			app_key,
			app_secret,
			access_token,
			access_secret,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`
	now := time.Now().UTC()
	args := []any{a.ID, a.GroupID, a.UserID, a.DisplayName, a.AppKey, a.AppSecret, a.AccessToken, a.AccessSecret, now}

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, insertQuery, args...)
	} else {
		_, err = r.db.ExecContext(ctx, insertQuery, args...)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, groupID, accountID string) (*models.Account, error) {
	query := `
		SELECT id, group_id, user_id, display_name, app_key, app_secret, access_token, access_secret, created_at, updated_at
		FROM accounts
		WHERE group_id = $1 AND id = $2
	`
	var a models.Account
	err := r.db.QueryRowContext(ctx, query, groupID, accountID).Scan(
		&a.ID,
		&a.GroupID,
		&a.UserID,
		&a.DisplayName,
		&a.AppKey,
		&a.AppSecret,
		&a.AccessToken,
		&a.AccessSecret,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &a, nil
}

// ListByUserID returns accounts without their credential columns.
func (r *accountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Account, error) {
	query := `
		SELECT id, group_id, user_id, display_name, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.GroupID, &a.UserID, &a.DisplayName, &a.CreatedAt, &a.UpdatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, nil
}

func (r *accountRepository) CheckByUserID(ctx context.Context, accountID string, userID int64) (bool, error) {
	query := "SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *accountRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
