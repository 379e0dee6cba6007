package db_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podnplay/internal/db"
	"podnplay/internal/models"
	"podnplay/internal/test"
)

func TestSearchPodcastsEmptyReturnsCatalog(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Now()
	rows := sqlmock.NewRows(test.PodcastColumns).
		AddRow("p1", int64(1), "First", "desc one", nil, "s1", 12.5, nil, nil, now).
		AddRow("p2", int64(1), "Second", "desc two", "https://img/2.png", "s2", 30.0, "alloy", "hi", now)
	mock.ExpectQuery(`SELECT .+ FROM podcasts ORDER BY created_at DESC`).WillReturnRows(rows)

	podcasts, err := db.SearchPodcasts(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, podcasts, 2)
	assert.Equal(t, "First", podcasts[0].Title)
	assert.Nil(t, podcasts[0].ImageURL)
	require.NotNil(t, podcasts[1].ImageURL)
	assert.Equal(t, "https://img/2.png", *podcasts[1].ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPodcastsNoMatchIsEmptyNotNil(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(`FROM podcasts\s+WHERE podcast_title ILIKE`).
		WithArgs("xyz-no-match").
		WillReturnRows(sqlmock.NewRows(test.PodcastColumns))

	podcasts, err := db.SearchPodcasts(context.Background(), "xyz-no-match")
	require.NoError(t, err)
	assert.NotNil(t, podcasts)
	assert.Empty(t, podcasts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPodcastsEscapesWildcards(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(`ILIKE`).
		WithArgs(`100\%\_off`).
		WillReturnRows(sqlmock.NewRows(test.PodcastColumns))

	_, err := db.SearchPodcasts(context.Background(), "100%_off")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePodcast(t *testing.T) {
	_, mock := test.NewMockDB(t)
	voice := "alloy"
	prompt := "Hello world"
	in := models.Podcast{
		UserID: 7, Title: "Show", Description: "About", AudioStorageID: "s1",
		AudioDuration: 42, VoiceType: &voice, VoicePrompt: &prompt,
	}
	rows := sqlmock.NewRows(test.PodcastColumns).
		AddRow("new-id", int64(7), "Show", "About", nil, "s1", 42.0, voice, prompt, time.Now())
	mock.ExpectQuery(`INSERT INTO podcasts`).
		WithArgs(int64(7), "Show", "About", nil, "s1", 42.0, &voice, &prompt).
		WillReturnRows(rows)

	created, err := db.CreatePodcast(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationDefinesQueriedColumns(t *testing.T) {
	schema, err := os.ReadFile(filepath.Join(test.ProjectRoot(), "migrations", "001_init.sql"))
	require.NoError(t, err)

	for _, col := range test.PodcastColumns {
		assert.Regexp(t, regexp.MustCompile(`(?m)^\s+`+col+`\s`), string(schema), col)
	}
	for _, table := range []string{"users", "audio_assets", "podcasts"} {
		assert.True(t, strings.Contains(string(schema), "CREATE TABLE IF NOT EXISTS "+table), table)
	}
}
