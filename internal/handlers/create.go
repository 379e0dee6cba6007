package handlers

import (
	"context"
	"database/sql"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"podnplay/internal/db"
	"podnplay/internal/middleware"
	"podnplay/internal/models"
	"podnplay/internal/notify"
	"podnplay/internal/speech"
	"podnplay/internal/storage"
	"podnplay/internal/workflow"
)

const (
	draftCookie    = "draft"
	maxUploadBytes = 200 << 20
	createURL      = "/create"

	msgBusy           = "Please wait for the current operation to finish"
	msgNothingToRetry = "There is no audio to retry"
	msgFileTooLarge   = "The audio file is too large"
)

type createPage struct {
	DraftID     string
	Mode        workflow.Mode
	State       workflow.State
	Busy        bool
	Voices      []string
	VoiceType   string
	VoicePrompt string
	Audio       models.Audio
}

// workflowResponse is the JSON view of a draft.
type workflowResponse struct {
	DraftID string                `json:"draftId"`
	Mode    workflow.Mode         `json:"mode"`
	State   workflow.State        `json:"state"`
	Audio   models.Audio          `json:"audio"`
	Notices []notify.Notification `json:"notices"`
}

// currentDraft returns the user's draft from the draft cookie, starting a
// new one when there is none.
func (h *Handlers) currentDraft(w http.ResponseWriter, r *http.Request, user *models.User) *workflow.Draft {
	if c, err := r.Cookie(draftCookie); err == nil {
		if d, ok := h.drafts.Get(c.Value, user.ID); ok {
			return d
		}
	}
	d := h.drafts.Create(user.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     draftCookie,
		Value:    d.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return d
}

func clearDraftCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: draftCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// refreshDuration copies a measured duration from the database into a
// ready draft whose duration is still unknown.
func (h *Handlers) refreshDuration(ctx context.Context, d *workflow.Draft) {
	snap := d.Workflow.Snapshot()
	if snap.State.Phase != workflow.PhaseReady || snap.State.Audio.Duration > 0 {
		return
	}
	asset, err := db.GetAudioAsset(ctx, snap.State.Audio.StorageID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.logger.Warn("failed to load audio asset", zap.String("storage_id", snap.State.Audio.StorageID), zap.Error(err))
		}
		return
	}
	if asset.DurationSeconds != nil {
		d.Workflow.SetDuration(asset.StorageID, *asset.DurationSeconds)
	}
}

func (h *Handlers) draftResponse(d *workflow.Draft) workflowResponse {
	snap := d.Workflow.Snapshot()
	return workflowResponse{
		DraftID: d.ID,
		Mode:    snap.Mode,
		State:   snap.State,
		Audio:   d.Audio(),
		Notices: d.Notices.Drain(),
	}
}

// respond finishes a form action: JSON clients get the draft state, browsers
// are sent back to the create page.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, d *workflow.Draft, err error) {
	switch {
	case errors.Is(err, workflow.ErrBusy):
		d.Notices.Notify(notify.Info(msgBusy))
	case errors.Is(err, workflow.ErrNothingToRetry):
		d.Notices.Notify(notify.Info(msgNothingToRetry))
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, createURL, http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	var validation *workflow.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &validation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrBusy), errors.Is(err, workflow.ErrNothingToRetry):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled):
	default:
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, h.draftResponse(d))
}

// CreatePage renders the podcast creation form.
func (h *Handlers) CreatePage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)
	h.refreshDuration(r.Context(), d)

	snap := d.Workflow.Snapshot()
	voiceType, voicePrompt := d.Voice()
	content := createPage{
		DraftID:     d.ID,
		Mode:        snap.Mode,
		State:       snap.State,
		Busy:        snap.State.Busy(),
		Voices:      speech.Voices,
		VoiceType:   voiceType,
		VoicePrompt: voicePrompt,
		Audio:       d.Audio(),
	}
	h.render(w, r, http.StatusOK, "create.html", "Create Podcast", content, d.Notices.Drain())
}

// WorkflowState reports the draft's state for polling clients.
func (h *Handlers) WorkflowState(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)
	h.refreshDuration(r.Context(), d)
	h.writeJSON(w, http.StatusOK, h.draftResponse(d))
}

func (h *Handlers) SetMode(w http.ResponseWriter, r *http.Request) {
	mode, err := workflow.ParseMode(r.FormValue("mode"))
	if err != nil {
		http.Error(w, "Invalid mode", http.StatusBadRequest)
		return
	}
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)
	d.Workflow.SetMode(mode)
	h.respond(w, r, d, nil)
}

func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)

	voice := r.FormValue("voice")
	prompt := r.FormValue("prompt")
	d.SetVoice(voice, prompt)
	d.Workflow.SetMode(workflow.ModeAI)

	err := d.Workflow.Generate(r.Context(), voice, prompt)
	h.respond(w, r, d, err)
}

func (h *Handlers) RetryUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)
	err := d.Workflow.RetryUpload(r.Context())
	h.respond(w, r, d, err)
}

func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)
	if !d.Workflow.Cancel() {
		h.logger.Debug("nothing to cancel", zap.String("draft_id", d.ID))
	}
	h.respond(w, r, d, nil)
}

// Upload accepts a multipart form with the audio file in the "audio" field.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)
	d.Workflow.SetMode(workflow.ModeUpload)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			d.Notices.Notify(notify.Destructive(msgFileTooLarge))
			if wantsJSON(r) {
				h.writeJSON(w, http.StatusRequestEntityTooLarge, h.draftResponse(d))
				return
			}
			http.Redirect(w, r, createURL, http.StatusSeeOther)
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
	}

	var file *storage.File
	f, header, err := r.FormFile("audio")
	switch {
	case err == nil:
		defer f.Close()
		file = &storage.File{
			Name:        header.Filename,
			ContentType: contentType(header.Filename, header.Header.Get("Content-Type")),
			Size:        header.Size,
			Body:        f,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	err = d.Workflow.Upload(r.Context(), file)
	h.respond(w, r, d, err)
}

// contentType prefers the declared type and falls back to the file extension.
func contentType(name, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			return mediaType
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
	}
	return declared
}

// UploadURL issues a one-time upload destination for direct uploads. The
// object is adopted into the draft with AttachUpload once the PUT is done.
func (h *Handlers) UploadURL(w http.ResponseWriter, r *http.Request) {
	target, err := h.store.GenerateUploadURL(r.Context())
	if err != nil {
		h.logger.Error("failed to generate upload url", zap.Error(err))
		http.Error(w, "Failed to generate upload URL", http.StatusBadGateway)
		return
	}
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)
	d.Workflow.Expect(target.Key)
	h.writeJSON(w, http.StatusOK, target)
}

// AttachUpload adopts a directly uploaded object as the draft's audio.
func (h *Handlers) AttachUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	d := h.currentDraft(w, r, user)
	d.Workflow.SetMode(workflow.ModeUpload)

	err := d.Workflow.Attach(r.Context(), r.FormValue("storage_id"), r.FormValue("content_type"))
	h.respond(w, r, d, err)
}
