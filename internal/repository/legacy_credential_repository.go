package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/slotcast/internal/models"
)

type LegacyCredentialRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.LegacyCredential, error)
}

type legacyCredentialRepository struct {
	db *sql.DB
}

func NewLegacyCredentialRepository(db *sql.DB) LegacyCredentialRepository {
	return &legacyCredentialRepository{db: db}
}

func (r *legacyCredentialRepository) GetByUserID(ctx context.Context, userID int64) (*models.LegacyCredential, error) {
	query := `SELECT user_id, screen_name, access_token, access_secret, created_at FROM legacy_credentials WHERE user_id = $1`

	var lc models.LegacyCredential
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&lc.UserID, &lc.ScreenName, &lc.AccessToken, &lc.AccessSecret, &lc.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &lc, nil
}
