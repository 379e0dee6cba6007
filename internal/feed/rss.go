package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	"podnplay/internal/models"
)

const (
	feedTitle       = "PodNPlay"
	feedDescription = "Podcasts created on PodNPlay."
)

// GenerateRSS renders the catalog as a podcast feed. Enclosures point at the
// server's audio redirect so feed readers never see expiring storage URLs.
func GenerateRSS(podcasts []models.Podcast, baseURL string) (string, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	var lastBuild time.Time
	if len(podcasts) > 0 {
		lastBuild = podcasts[0].CreatedAt
	}
	p := podcast.New(feedTitle, baseURL+"/discover", feedDescription, &lastBuild, &lastBuild)
	p.AddImage(baseURL + "/static/icons/logo.svg")

	for _, pc := range podcasts {
		created := pc.CreatedAt
		item := podcast.Item{
			GUID:        pc.ID,
			Title:       pc.Title,
			Description: pc.Description,
			Link:        fmt.Sprintf("%s/podcasts/%s", baseURL, pc.ID),
			PubDate:     &created,
		}
		item.AddEnclosure(fmt.Sprintf("%s/audio/%s", baseURL, pc.AudioStorageID), podcast.MP3, 0)
		if pc.AudioDuration > 0 {
			item.AddDuration(int64(pc.AudioDuration))
		}
		if pc.ImageURL != nil && *pc.ImageURL != "" {
			item.AddImage(*pc.ImageURL)
		}
		if _, err := p.AddItem(item); err != nil {
			return "", fmt.Errorf("failed to add podcast %s to feed: %w", pc.ID, err)
		}
	}

	return p.String(), nil
}
