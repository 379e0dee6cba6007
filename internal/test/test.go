package test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"podnplay/internal/db"
)

// Columns returned by the podcasts and audio_assets queries, in select order.
var (
	PodcastColumns = []string{
		"id", "user_id", "podcast_title", "podcast_description", "image_url",
		"audio_storage_id", "audio_duration", "voice_type", "voice_prompt", "created_at",
	}
	AudioAssetColumns = []string{
		"storage_id", "user_id", "source", "content_type", "size_bytes", "duration_seconds", "created_at",
	}
)

// MockTaskEnqueuer records enqueued tasks and their options. When Err is set
// every Enqueue fails with it.
type MockTaskEnqueuer struct {
	EnqueuedTasks []*asynq.Task
	Options       [][]asynq.Option
	Err           error
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.EnqueuedTasks = append(m.EnqueuedTasks, task)
	m.Options = append(m.Options, opts)
	return &asynq.TaskInfo{ID: "test-task-id", Queue: "default"}, nil
}

// NewMockDB swaps db.DB for a sqlmock connection for the duration of the test.
func NewMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	sqlxDB := sqlx.NewDb(mockDb, "sqlmock")

	originalDB := db.DB
	db.DB = sqlxDB
	t.Cleanup(func() {
		db.DB = originalDB
		mockDb.Close()
	})

	return sqlxDB, mock
}
