package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podnplay/internal/models"
)

func TestGenerateRSS(t *testing.T) {
	image := "https://img.example/cover.png"
	podcasts := []models.Podcast{
		{
			ID:             "0b6a6c1e-0000-4000-8000-000000000001",
			Title:          "Go Weekly",
			Description:    "News from the Go world",
			ImageURL:       &image,
			AudioStorageID: "audio/abc",
			AudioDuration:  125.6,
			CreatedAt:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:             "0b6a6c1e-0000-4000-8000-000000000002",
			Title:          "Deep Sea",
			Description:    "Ocean stories",
			AudioStorageID: "audio/def",
			CreatedAt:      time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	rss, err := GenerateRSS(podcasts, "https://podnplay.example/")
	require.NoError(t, err)

	assert.Contains(t, rss, "<title>PodNPlay</title>")
	assert.Contains(t, rss, "Go Weekly")
	assert.Contains(t, rss, "Deep Sea")
	assert.Contains(t, rss, "https://podnplay.example/audio/audio/abc")
	assert.Contains(t, rss, "https://podnplay.example/podcasts/0b6a6c1e-0000-4000-8000-000000000002")
	assert.Contains(t, rss, "<itunes:duration>")
	assert.Contains(t, rss, image)
}

func TestGenerateRSSEmptyCatalog(t *testing.T) {
	rss, err := GenerateRSS(nil, "http://localhost:8080")
	require.NoError(t, err)
	assert.Contains(t, rss, "<channel>")
	assert.NotContains(t, rss, "<item>")
}

func TestGenerateRSSRejectsUntitledPodcast(t *testing.T) {
	_, err := GenerateRSS([]models.Podcast{{ID: "x", Description: "no title", AudioStorageID: "audio/x"}}, "http://localhost:8080")
	assert.Error(t, err)
}
