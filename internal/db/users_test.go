package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podnplay/internal/db"
	"podnplay/internal/test"
)

func TestInitDBRejectsEmptyURL(t *testing.T) {
	assert.Error(t, db.InitDB(""))
}

func TestUpsertUser(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(int64(42), "gopher").
		WillReturnRows(sqlmock.NewRows([]string{"id", "telegram_username", "created_at", "updated_at"}).
			AddRow(int64(42), "gopher", now, now))

	user, err := db.UpsertUser(context.Background(), 42, "gopher")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "gopher", user.TelegramUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUserWrapsError(t *testing.T) {
	_, mock := test.NewMockDB(t)
	boom := errors.New("connection refused")
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(boom)

	user, err := db.UpsertUser(context.Background(), 42, "gopher")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "upsert user 42")
}
