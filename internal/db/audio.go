package db

import (
	"context"
	"time"

	"podnplay/internal/models"
)

// RecordAudioAsset stores a freshly uploaded object.
func RecordAudioAsset(ctx context.Context, a models.AudioAsset) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO audio_assets (storage_id, user_id, source, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (storage_id) DO NOTHING`,
		a.StorageID, a.UserID, a.Source, a.ContentType, a.SizeBytes)
	return err
}

func GetAudioAsset(ctx context.Context, storageID string) (models.AudioAsset, error) {
	asset := models.AudioAsset{}
	err := DB.GetContext(ctx, &asset, `
		SELECT storage_id, user_id, source, content_type, size_bytes, duration_seconds, created_at
		FROM audio_assets WHERE storage_id = $1`, storageID)
	return asset, err
}

func SetAudioDuration(ctx context.Context, storageID string, seconds float64) error {
	_, err := DB.ExecContext(ctx, "UPDATE audio_assets SET duration_seconds = $1 WHERE storage_id = $2", seconds, storageID)
	return err
}

// ListOrphanAudioAssets returns assets created before the cutoff that no
// podcast references.
func ListOrphanAudioAssets(ctx context.Context, before time.Time) ([]models.AudioAsset, error) {
	assets := []models.AudioAsset{}
	err := DB.SelectContext(ctx, &assets, `
		SELECT a.storage_id, a.user_id, a.source, a.content_type, a.size_bytes, a.duration_seconds, a.created_at
		FROM audio_assets a
		LEFT JOIN podcasts p ON p.audio_storage_id = a.storage_id
		WHERE p.id IS NULL AND a.created_at < $1
		ORDER BY a.created_at`, before)
	return assets, err
}

func DeleteAudioAsset(ctx context.Context, storageID string) error {
	_, err := DB.ExecContext(ctx, "DELETE FROM audio_assets WHERE storage_id = $1", storageID)
	return err
}
