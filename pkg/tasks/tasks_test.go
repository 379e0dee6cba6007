package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podnplay/internal/test"
)

func TestDurationQueueEnqueuesProbe(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	q := DurationQueue{Client: enqueuer}

	require.NoError(t, q.RequestDuration(context.Background(), "audio/abc"))
	require.Len(t, enqueuer.EnqueuedTasks, 1)
	assert.Equal(t, TypeProbeAudio, enqueuer.EnqueuedTasks[0].Type())
	require.Len(t, enqueuer.Options[0], 2)
	assert.Equal(t, asynq.UniqueOpt, enqueuer.Options[0][0].Type())
	assert.Equal(t, asynq.QueueOpt, enqueuer.Options[0][1].Type())
	assert.Equal(t, QueueHigh, enqueuer.Options[0][1].Value())

	var p ProbeAudioTaskPayload
	require.NoError(t, json.Unmarshal(enqueuer.EnqueuedTasks[0].Payload(), &p))
	assert.Equal(t, "audio/abc", p.StorageID)
}

func TestDurationQueueReportsEnqueueFailure(t *testing.T) {
	q := DurationQueue{Client: &test.MockTaskEnqueuer{Err: errors.New("redis unavailable")}}
	assert.Error(t, q.RequestDuration(context.Background(), "audio/abc"))
}

func TestNewSweepUploadsTask(t *testing.T) {
	task, err := NewSweepUploadsTask()
	require.NoError(t, err)
	assert.Equal(t, TypeSweepUploads, task.Type())
	assert.Empty(t, task.Payload())
}
