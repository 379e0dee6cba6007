package models

import "time"

const (
	AudioSourceGenerated = "generated"
	AudioSourceUploaded  = "uploaded"
)

// AudioAsset records an object written to storage by the creation workflow.
type AudioAsset struct {
	StorageID       string    `db:"storage_id"`
	UserID          int64     `db:"user_id"`
	Source          string    `db:"source"`
	ContentType     string    `db:"content_type"`
	SizeBytes       int64     `db:"size_bytes"`
	DurationSeconds *float64  `db:"duration_seconds"`
	CreatedAt       time.Time `db:"created_at"`
}

// Audio is what a finished workflow reports to the podcast form.
// A zero Duration means the duration is not known yet. VoiceType and
// VoicePrompt are set only for generated audio.
type Audio struct {
	URL         string  `json:"url"`
	StorageID   string  `json:"storageId"`
	Duration    float64 `json:"duration"`
	Source      string  `json:"source,omitempty"`
	VoiceType   string  `json:"voiceType,omitempty"`
	VoicePrompt string  `json:"voicePrompt,omitempty"`
}
