package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"podnplay/internal/db"
	"podnplay/internal/feed"
	"podnplay/internal/middleware"
	"podnplay/internal/models"
	"podnplay/internal/notify"
	"podnplay/internal/storage"
	"podnplay/internal/workflow"
)

const (
	msgNoAudio       = "Please generate or upload audio first"
	msgCreateFailed  = "Error creating a podcast"
	msgInvalidFields = "Please fill in the podcast details"
)

type podcastForm struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"required,max=2000"`
	ImageURL    string `validate:"omitempty,url"`
}

type podcastPage struct {
	Title       string
	Description string
	ImageURL    string
	AudioURL    string
	Duration    string
	VoiceType   string
	VoicePrompt string
}

// SubmitPodcast publishes the draft's audio as a podcast.
func (h *Handlers) SubmitPodcast(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)

	form := podcastForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		ImageURL:    strings.TrimSpace(r.FormValue("image_url")),
	}
	if err := h.validate.Struct(form); err != nil {
		d.Notices.Notify(notify.Notification{
			Title:       msgInvalidFields,
			Description: describeValidation(err),
			Variant:     notify.VariantDestructive,
		})
		h.rejectSubmit(w, r, d, http.StatusUnprocessableEntity)
		return
	}

	h.refreshDuration(r.Context(), d)
	snap := d.Workflow.Snapshot()
	audio := d.Audio()
	if snap.State.Phase != workflow.PhaseReady || audio.StorageID == "" {
		d.Notices.Notify(notify.Info(msgNoAudio))
		h.rejectSubmit(w, r, d, http.StatusConflict)
		return
	}

	p := models.Podcast{
		UserID:         user.ID,
		Title:          form.Title,
		Description:    form.Description,
		ImageURL:       lo.EmptyableToPtr(form.ImageURL),
		AudioStorageID: audio.StorageID,
		AudioDuration:  audio.Duration,
	}
	if audio.Source == models.AudioSourceGenerated {
		p.VoiceType = lo.EmptyableToPtr(audio.VoiceType)
		p.VoicePrompt = lo.EmptyableToPtr(audio.VoicePrompt)
	}

	created, err := db.CreatePodcast(r.Context(), p)
	if err != nil {
		h.logger.Error("failed to create podcast", zap.Int64("user_id", user.ID), zap.Error(err))
		d.Notices.Notify(notify.Destructive(msgCreateFailed))
		h.rejectSubmit(w, r, d, http.StatusInternalServerError)
		return
	}

	h.logger.Info("podcast created", zap.String("podcast_id", created.ID), zap.Int64("user_id", user.ID))
	h.drafts.Discard(d.ID)
	clearDraftCookie(w)

	if wantsJSON(r) {
		h.writeJSON(w, http.StatusCreated, created)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) rejectSubmit(w http.ResponseWriter, r *http.Request, d *workflow.Draft, status int) {
	if wantsJSON(r) {
		h.writeJSON(w, status, h.draftResponse(d))
		return
	}
	http.Redirect(w, r, createURL, http.StatusSeeOther)
}

func describeValidation(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}

// PodcastPage shows a single podcast with its player.
func (h *Handlers) PodcastPage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := db.GetPodcastByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load podcast", zap.String("podcast_id", id), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	content := podcastPage{
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    lo.FromPtr(p.ImageURL),
		AudioURL:    "/audio/" + p.AudioStorageID,
		VoiceType:   lo.FromPtr(p.VoiceType),
		VoicePrompt: lo.FromPtr(p.VoicePrompt),
	}
	if p.AudioDuration > 0 {
		content.Duration = formatDuration(p.AudioDuration)
	}
	h.render(w, r, http.StatusOK, "podcast.html", p.Title, content, nil)
}

func formatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Audio redirects to a short-lived URL for a stored object.
func (h *Handlers) Audio(w http.ResponseWriter, r *http.Request) {
	storageID := mux.Vars(r)["storageID"]
	url, err := h.store.URL(r.Context(), storageID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Audio not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to resolve audio url", zap.String("storage_id", storageID), zap.Error(err))
		http.Error(w, "Failed to resolve audio", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	podcasts, err := db.SearchPodcasts(r.Context(), "")
	if err != nil {
		h.logger.Error("failed to load podcasts", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateRSS(podcasts, h.baseURL)
	if err != nil {
		h.logger.Error("failed to generate rss", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}
