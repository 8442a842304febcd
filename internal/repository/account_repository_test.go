package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAccountRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM accounts\\s+WHERE group_id = \\$1 AND id = \\$2").
		WithArgs("g1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "group_id", "user_id", "display_name", "app_key", "app_secret", "access_token", "access_secret", "created_at", "updated_at",
		}).AddRow("a1", "g1", int64(7), "main", "ek", "es", "et", "ets", now, now))

	a, err := repo.GetByID(context.Background(), "g1", "a1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, int64(7), a.UserID)
	assert.Equal(t, "ets", a.AccessSecret)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("a1", "g1", int64(7), "main", "k", "s", "t", "ts", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &models.Account{ID: "a1", GroupID: "g1", UserID: 7, DisplayName: "main", AppKey: "k", AppSecret: "s", AccessToken: "t", AccessSecret: "ts"}
	require.NoError(t, repo.Create(context.Background(), nil, a))
	assert.False(t, a.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyCredentialRepository_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLegacyCredentialRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM legacy_credentials WHERE user_id = \\$1").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "screen_name", "access_token", "access_secret", "created_at"}))

	lc, err := repo.GetByUserID(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, lc)
	assert.NoError(t, mock.ExpectationsWereMet())
}
