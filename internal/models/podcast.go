package models

import "time"

// Podcast is a published podcast. The discovery view only reads the summary
// fields: ID, Title, Description and ImageURL.
type Podcast struct {
	ID             string    `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"-"`
	Title          string    `db:"podcast_title" json:"title"`
	Description    string    `db:"podcast_description" json:"description"`
	ImageURL       *string   `db:"image_url" json:"imageUrl,omitempty"`
	AudioStorageID string    `db:"audio_storage_id" json:"audioStorageId"`
	AudioDuration  float64   `db:"audio_duration" json:"audioDuration"`
	VoiceType      *string   `db:"voice_type" json:"voiceType,omitempty"`
	VoicePrompt    *string   `db:"voice_prompt" json:"voicePrompt,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
