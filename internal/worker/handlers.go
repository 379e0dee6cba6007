package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"podnplay/internal/audio"
	"podnplay/internal/db"
	"podnplay/internal/storage"
	"podnplay/pkg/tasks"
)

var probeDuration = audio.ProbeDuration

// ObjectStore is the storage the worker reads and cleans up.
type ObjectStore interface {
	URL(ctx context.Context, storageID string) (string, error)
	Delete(ctx context.Context, storageID string) error
	List(ctx context.Context, before time.Time) ([]storage.Object, error)
}

type TaskHandler struct {
	store     ObjectStore
	orphanTTL time.Duration
	logger    *zap.Logger
	onProbe   func(outcome string)
}

func NewTaskHandler(store ObjectStore, orphanTTL time.Duration, logger *zap.Logger, onProbe func(outcome string)) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if onProbe == nil {
		onProbe = func(string) {}
	}
	return &TaskHandler{store: store, orphanTTL: orphanTTL, logger: logger, onProbe: onProbe}
}

// HandleProbeAudioTask measures an uploaded asset's duration and stores it.
func (h *TaskHandler) HandleProbeAudioTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.ProbeAudioTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w: %w", err, asynq.SkipRetry)
	}

	log := h.logger.With(zap.String("storage_id", p.StorageID))
	log.Info("probing audio duration")

	url, err := h.store.URL(ctx, p.StorageID)
	if errors.Is(err, storage.ErrNotFound) {
		h.onProbe("missing")
		log.Warn("audio object is gone, skipping probe")
		return nil
	}
	if err != nil {
		h.onProbe("failure")
		return fmt.Errorf("failed to resolve audio url: %w", err)
	}

	seconds, err := probeDuration(ctx, url)
	if err != nil {
		h.onProbe("failure")
		return fmt.Errorf("failed to probe duration: %w", err)
	}

	if err := db.SetAudioDuration(ctx, p.StorageID, seconds); err != nil {
		h.onProbe("failure")
		return fmt.Errorf("failed to store duration: %w", err)
	}

	h.onProbe("success")
	log.Info("audio duration stored", zap.Float64("seconds", seconds))
	return nil
}

// HandleSweepUploadsTask removes uploads that never became part of a
// podcast, including objects uploaded directly that were never recorded.
func (h *TaskHandler) HandleSweepUploadsTask(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-h.orphanTTL)
	h.logger.Info("sweeping orphaned uploads", zap.Time("cutoff", cutoff))

	assets, err := db.ListOrphanAudioAssets(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list orphaned assets: %w", err)
	}

	removed := 0
	for _, a := range assets {
		if err := h.store.Delete(ctx, a.StorageID); err != nil {
			h.logger.Warn("failed to delete orphaned object", zap.String("storage_id", a.StorageID), zap.Error(err))
			continue
		}
		if err := db.DeleteAudioAsset(ctx, a.StorageID); err != nil {
			h.logger.Warn("failed to delete orphaned asset row", zap.String("storage_id", a.StorageID), zap.Error(err))
			continue
		}
		removed++
	}

	objects, err := h.store.List(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stored objects: %w", err)
	}
	for _, obj := range objects {
		_, err := db.GetAudioAsset(ctx, obj.Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			h.logger.Warn("failed to look up asset", zap.String("storage_id", obj.Key), zap.Error(err))
			continue
		}
		if err := h.store.Delete(ctx, obj.Key); err != nil {
			h.logger.Warn("failed to delete unrecorded object", zap.String("storage_id", obj.Key), zap.Error(err))
			continue
		}
		removed++
	}

	h.logger.Info("finished sweeping uploads", zap.Int("removed", removed))
	return nil
}
