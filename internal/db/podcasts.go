package db

import (
	"context"
	"strings"

	"podnplay/internal/models"
)

const podcastColumns = `id, user_id, podcast_title, podcast_description, image_url,
	audio_storage_id, audio_duration, voice_type, voice_prompt, created_at`

// SearchPodcasts returns podcasts whose title or description contains the
// search text, newest first. An empty search returns the whole catalog.
// The returned slice is never nil.
func SearchPodcasts(ctx context.Context, search string) ([]models.Podcast, error) {
	search = strings.TrimSpace(search)
	podcasts := []models.Podcast{}
	if search == "" {
		err := DB.SelectContext(ctx, &podcasts, `SELECT `+podcastColumns+` FROM podcasts ORDER BY created_at DESC`)
		return podcasts, err
	}

	query := `
		SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE podcast_title ILIKE '%' || $1 || '%'
		   OR podcast_description ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
	`
	err := DB.SelectContext(ctx, &podcasts, query, escapeLike(search))
	return podcasts, err
}

func GetPodcastByID(ctx context.Context, id string) (models.Podcast, error) {
	podcast := models.Podcast{}
	err := DB.GetContext(ctx, &podcast, `SELECT `+podcastColumns+` FROM podcasts WHERE id = $1`, id)
	return podcast, err
}

// CreatePodcast inserts a podcast and returns it with its generated id.
func CreatePodcast(ctx context.Context, p models.Podcast) (models.Podcast, error) {
	query := `
		INSERT INTO podcasts (user_id, podcast_title, podcast_description, image_url,
			audio_storage_id, audio_duration, voice_type, voice_prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + podcastColumns
	created := models.Podcast{}
	err := DB.GetContext(ctx, &created, query,
		p.UserID, p.Title, p.Description, p.ImageURL,
		p.AudioStorageID, p.AudioDuration, p.VoiceType, p.VoicePrompt)
	return created, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
