package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podnplay/internal/storage"
	"podnplay/internal/test"
	"podnplay/pkg/tasks"
)

type fakeStore struct {
	missing map[string]bool
	objects []storage.Object
	deleted []string
}

func (f *fakeStore) URL(ctx context.Context, id string) (string, error) {
	if f.missing[id] {
		return "", storage.ErrNotFound
	}
	return "https://cdn.example/" + id, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) List(ctx context.Context, before time.Time) ([]storage.Object, error) {
	return f.objects, nil
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func stubProbe(t *testing.T, fn func(ctx context.Context, source string) (float64, error)) {
	original := probeDuration
	probeDuration = fn
	t.Cleanup(func() { probeDuration = original })
}

func TestHandleProbeAudioTask(t *testing.T) {
	_, mock := test.NewMockDB(t)
	var probed string
	stubProbe(t, func(ctx context.Context, source string) (float64, error) {
		probed = source
		return 184.2, nil
	})

	var outcomes []string
	handler := NewTaskHandler(&fakeStore{}, time.Hour, nil, func(o string) { outcomes = append(outcomes, o) })
	task := asynq.NewTask(tasks.TypeProbeAudio, mustMarshal(t, tasks.ProbeAudioTaskPayload{StorageID: "audio/1"}))

	mock.ExpectExec(`UPDATE audio_assets SET duration_seconds = \$1 WHERE storage_id = \$2`).
		WithArgs(184.2, "audio/1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := handler.HandleProbeAudioTask(context.Background(), task)
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example/audio/1", probed)
	assert.Equal(t, []string{"success"}, outcomes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleProbeAudioTaskMissingObject(t *testing.T) {
	test.NewMockDB(t)
	stubProbe(t, func(ctx context.Context, source string) (float64, error) {
		t.Fatal("probe must not run for a missing object")
		return 0, nil
	})

	handler := NewTaskHandler(&fakeStore{missing: map[string]bool{"audio/gone": true}}, time.Hour, nil, nil)
	task := asynq.NewTask(tasks.TypeProbeAudio, mustMarshal(t, tasks.ProbeAudioTaskPayload{StorageID: "audio/gone"}))

	assert.NoError(t, handler.HandleProbeAudioTask(context.Background(), task))
}

func TestHandleProbeAudioTaskProbeFailureRetries(t *testing.T) {
	test.NewMockDB(t)
	stubProbe(t, func(ctx context.Context, source string) (float64, error) {
		return 0, errors.New("ffprobe: connection refused")
	})

	handler := NewTaskHandler(&fakeStore{}, time.Hour, nil, nil)
	task := asynq.NewTask(tasks.TypeProbeAudio, mustMarshal(t, tasks.ProbeAudioTaskPayload{StorageID: "audio/1"}))

	err := handler.HandleProbeAudioTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleProbeAudioTaskBadPayload(t *testing.T) {
	handler := NewTaskHandler(&fakeStore{}, time.Hour, nil, nil)
	err := handler.HandleProbeAudioTask(context.Background(), asynq.NewTask(tasks.TypeProbeAudio, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSweepUploadsTask(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Now()
	store := &fakeStore{objects: []storage.Object{
		{Key: "audio/recorded", LastModified: now.Add(-48 * time.Hour)},
		{Key: "audio/stray", LastModified: now.Add(-48 * time.Hour)},
	}}
	handler := NewTaskHandler(store, 24*time.Hour, nil, nil)

	mock.ExpectQuery(`LEFT JOIN podcasts`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(test.AudioAssetColumns).AddRow("audio/orphan", int64(1), "generated", "audio/mpeg", int64(5), nil, now.Add(-48*time.Hour)))
	mock.ExpectExec(`DELETE FROM audio_assets WHERE storage_id = \$1`).
		WithArgs("audio/orphan").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM audio_assets WHERE storage_id = \$1`).
		WithArgs("audio/recorded").
		WillReturnRows(sqlmock.NewRows(test.AudioAssetColumns).AddRow("audio/recorded", int64(1), "uploaded", "audio/wav", int64(5), 12.0, now))
	mock.ExpectQuery(`FROM audio_assets WHERE storage_id = \$1`).
		WithArgs("audio/stray").
		WillReturnError(sql.ErrNoRows)

	err := handler.HandleSweepUploadsTask(context.Background(), asynq.NewTask(tasks.TypeSweepUploads, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"audio/orphan", "audio/stray"}, store.deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
