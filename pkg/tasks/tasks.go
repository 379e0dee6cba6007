package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeProbeAudio   = "audio:probe"
	TypeSweepUploads = "uploads:sweep"
)

type ProbeAudioTaskPayload struct {
	StorageID string
}

func NewProbeAudioTask(storageID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ProbeAudioTaskPayload{StorageID: storageID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeProbeAudio, payload, asynq.MaxRetry(5), asynq.Timeout(2*time.Minute)), nil
}

func NewSweepUploadsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeSweepUploads, nil, asynq.MaxRetry(1)), nil
}

// QueueHigh is the queue for probe tasks. Everything else uses the default queue.
const QueueHigh = "high"

// DurationQueue asks the worker to measure audio durations.
type DurationQueue struct {
	Client TaskEnqueuer
}

func (q DurationQueue) RequestDuration(ctx context.Context, storageID string) error {
	task, err := NewProbeAudioTask(storageID)
	if err != nil {
		return err
	}
	// Unique keeps repeated requests for one asset from piling up.
	_, err = q.Client.Enqueue(task, asynq.Unique(time.Hour), asynq.Queue(QueueHigh))
	return err
}
