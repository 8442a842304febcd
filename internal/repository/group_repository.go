package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
)

type GroupRepository interface {
	Create(ctx context.Context, tx *sql.Tx, g *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Group, error)
	Remove(ctx context.Context, id string) error
}

type groupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, tx *sql.Tx, g *models.Group) error {
	query := `INSERT INTO groups (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`
	now := time.Now().UTC()

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, g.ID, g.UserID, g.Name, now)
	} else {
		_, err = r.db.ExecContext(ctx, query, g.ID, g.UserID, g.Name, now)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	g.CreatedAt = now
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query := `SELECT id, user_id, name, created_at FROM groups WHERE id = $1`

	var g models.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &g, nil
}

func (r *groupRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Group, error) {
	query := `SELECT id, user_id, name, created_at FROM groups WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, nil
}

func (r *groupRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM groups WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
