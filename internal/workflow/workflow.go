// Package workflow drives the creation of a podcast's audio: either
// synthesized from a text prompt or uploaded by the user.
//
// A Workflow runs at most one operation at a time. Steps of an operation run
// strictly in order and each one checks the operation context first, so
// Cancel takes effect at the next step boundary.
package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"podnplay/internal/models"
	"podnplay/internal/notify"
	"podnplay/internal/speech"
	"podnplay/internal/storage"
)

const (
	msgEmptyPrompt      = "Please provide a prompt to generate a podcast"
	msgInvalidVoice     = "Please select a valid voice"
	msgGenerated        = "Podcast generated successfully"
	msgGenerateFailed   = "Error creating a podcast"
	msgGenerateCanceled = "Podcast generation canceled"
	msgNoFile           = "Please select an audio file"
	msgNotAudio         = "Please upload an audio file"
	msgUploaded         = "Audio uploaded successfully"
	msgUploadFailed     = "Error uploading audio"
	msgUploadCanceled   = "Audio upload canceled"
	msgUnknownUpload    = "Upload not found, please upload the file again"
)

// Operation names used for metrics and logs.
const (
	OpGenerate = "generate"
	OpUpload   = "upload"
	OpRetry    = "retry"
	OpAttach   = "attach"
)

// Outcomes reported to Services.Observe.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
	OutcomeInvalid  = "invalid"
)

type Uploader interface {
	StartUpload(ctx context.Context, files []storage.File) ([]storage.UploadResponse, error)
}

type URLResolver interface {
	URL(ctx context.Context, storageID string) (string, error)
}

type AssetRecorder interface {
	RecordAudioAsset(ctx context.Context, asset models.AudioAsset) error
}

// DurationRequester asks for an asset's duration to be measured out of band.
type DurationRequester interface {
	RequestDuration(ctx context.Context, storageID string) error
}

// Reporter receives the finished audio. It is called again when the
// duration becomes known.
type Reporter func(models.Audio)

// Services are the collaborators a Workflow calls.
type Services struct {
	Synthesizer speech.Synthesizer
	Uploader    Uploader
	URLs        URLResolver
	Assets      AssetRecorder
	Durations   DurationRequester
	Logger      *zap.Logger
	// Timeout bounds a single operation. Zero means no timeout.
	Timeout time.Duration
	// Observe, when set, is called once per operation with its outcome.
	Observe func(operation, outcome string)
}

// Workflow is one podcast creation session's audio state machine.
type Workflow struct {
	svc      Services
	userID   int64
	notifier notify.Notifier
	report   Reporter

	mu      sync.Mutex
	mode    Mode
	state   State
	pending []byte
	cancel  context.CancelFunc

	// voice and prompt of the last generation, kept with pending.
	voice  string
	prompt string

	// storage ids handed out for direct uploads and not yet attached.
	expected map[string]bool
}

// New returns an idle workflow owned by userID in upload mode.
func New(svc Services, userID int64, notifier notify.Notifier, report Reporter) *Workflow {
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}
	return &Workflow{
		svc:      svc,
		userID:   userID,
		notifier: notifier,
		report:   report,
		mode:     ModeUpload,
		state:    idle(),
	}
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.state
	if s.Audio != nil {
		a := *s.Audio
		s.Audio = &a
	}
	return Snapshot{Mode: w.mode, State: s}
}

func (w *Workflow) SetMode(m Mode) {
	w.mu.Lock()
	w.mode = m
	w.mu.Unlock()
}

// Cancel aborts the in-flight operation. It reports false when nothing is running.
func (w *Workflow) Cancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.Busy() || w.cancel == nil {
		return false
	}
	w.cancel()
	return true
}

// SetDuration records the measured duration of the ready audio.
func (w *Workflow) SetDuration(storageID string, seconds float64) {
	w.mu.Lock()
	if w.state.Phase != PhaseReady || w.state.Audio.StorageID != storageID || w.state.Audio.Duration == seconds {
		w.mu.Unlock()
		return
	}
	w.state.Audio.Duration = seconds
	audio := *w.state.Audio
	w.mu.Unlock()

	w.emit(audio)
}

// Generate synthesizes speech for prompt with voice and stores it.
func (w *Workflow) Generate(ctx context.Context, voice, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return w.reject(OpGenerate, notify.Info(msgEmptyPrompt), &ValidationError{Field: "prompt", Message: msgEmptyPrompt})
	}
	if !speech.ValidVoice(voice) {
		return w.reject(OpGenerate, notify.Info(msgInvalidVoice), &ValidationError{Field: "voice", Message: msgInvalidVoice})
	}

	ctx, err := w.begin(ctx, PhaseGenerating, func() error {
		w.voice, w.prompt = voice, prompt
		return nil
	})
	if err != nil {
		return err
	}
	w.emit(models.Audio{})

	audio, payload, err := w.synthesizeAndStore(ctx, voice, prompt)
	return w.finish(ctx, OpGenerate, audio, payload, err)
}

// RetryUpload stores audio kept from a generation that failed after synthesis.
func (w *Workflow) RetryUpload(ctx context.Context) error {
	var payload []byte
	var voice, prompt string
	ctx, err := w.begin(ctx, PhaseUploading, func() error {
		if w.state.Phase != PhaseFailed || w.pending == nil {
			return ErrNothingToRetry
		}
		payload, voice, prompt = w.pending, w.voice, w.prompt
		return nil
	})
	if err != nil {
		return err
	}

	audio, err := w.storeGenerated(ctx, payload, voice, prompt)
	if err != nil {
		return w.finish(ctx, OpRetry, audio, payload, err)
	}
	return w.finish(ctx, OpRetry, audio, nil, nil)
}

// Expect records a storage id issued for a direct upload so that Attach
// accepts it.
func (w *Workflow) Expect(storageID string) {
	w.mu.Lock()
	if w.expected == nil {
		w.expected = make(map[string]bool)
	}
	w.expected[storageID] = true
	w.mu.Unlock()
}

// Attach adopts an object the user uploaded directly to storage under an id
// obtained through Expect.
func (w *Workflow) Attach(ctx context.Context, storageID, contentType string) error {
	if !strings.HasPrefix(contentType, "audio/") {
		return w.reject(OpAttach, notify.Destructive(msgNotAudio), &ValidationError{Field: "file", Message: msgNotAudio})
	}

	ctx, err := w.begin(ctx, PhaseUploading, func() error {
		if !w.expected[storageID] {
			return &ValidationError{Field: "storageId", Message: msgUnknownUpload}
		}
		return nil
	})
	var validation *ValidationError
	if errors.As(err, &validation) {
		return w.reject(OpAttach, notify.Destructive(msgUnknownUpload), err)
	}
	if err != nil {
		return err
	}

	audio, err := w.attach(ctx, storageID, contentType)
	if err == nil {
		w.mu.Lock()
		delete(w.expected, storageID)
		w.mu.Unlock()
	}
	return w.finish(ctx, OpAttach, audio, nil, err)
}

func (w *Workflow) attach(ctx context.Context, storageID, contentType string) (models.Audio, error) {
	if err := ctx.Err(); err != nil {
		return models.Audio{}, err
	}
	if _, err := w.svc.URLs.URL(ctx, storageID); err != nil {
		return models.Audio{}, fmt.Errorf("check object %s: %w", storageID, err)
	}
	return w.register(ctx, models.AudioAsset{
		StorageID:   storageID,
		UserID:      w.userID,
		Source:      models.AudioSourceUploaded,
		ContentType: contentType,
	})
}

// Upload stores a user-provided audio file.
func (w *Workflow) Upload(ctx context.Context, file *storage.File) error {
	if file == nil {
		return w.reject(OpUpload, notify.Info(msgNoFile), &ValidationError{Field: "file", Message: msgNoFile})
	}
	if !strings.HasPrefix(file.ContentType, "audio/") {
		return w.reject(OpUpload, notify.Destructive(msgNotAudio), &ValidationError{Field: "file", Message: msgNotAudio})
	}

	ctx, err := w.begin(ctx, PhaseUploading, nil)
	if err != nil {
		return err
	}

	audio, err := w.store(ctx, *file, models.AudioSourceUploaded)
	return w.finish(ctx, OpUpload, audio, nil, err)
}

func (w *Workflow) synthesizeAndStore(ctx context.Context, voice, prompt string) (models.Audio, []byte, error) {
	if err := ctx.Err(); err != nil {
		return models.Audio{}, nil, err
	}
	payload, err := w.svc.Synthesizer.Synthesize(ctx, voice, prompt)
	if err != nil {
		return models.Audio{}, nil, fmt.Errorf("synthesize: %w", err)
	}

	audio, err := w.storeGenerated(ctx, payload, voice, prompt)
	if err != nil {
		return models.Audio{}, payload, err
	}
	return audio, nil, nil
}

func (w *Workflow) storeGenerated(ctx context.Context, payload []byte, voice, prompt string) (models.Audio, error) {
	file := storage.File{
		Name:        fmt.Sprintf("podcast-%s.mp3", uuid.NewString()),
		ContentType: "audio/mpeg",
		Size:        int64(len(payload)),
		Body:        bytes.NewReader(payload),
	}
	audio, err := w.store(ctx, file, models.AudioSourceGenerated)
	if err != nil {
		return models.Audio{}, err
	}
	audio.VoiceType, audio.VoicePrompt = voice, prompt
	return audio, nil
}

func (w *Workflow) store(ctx context.Context, file storage.File, source string) (models.Audio, error) {
	if err := ctx.Err(); err != nil {
		return models.Audio{}, err
	}
	uploaded, err := w.svc.Uploader.StartUpload(ctx, []storage.File{file})
	if err != nil {
		return models.Audio{}, fmt.Errorf("upload: %w", err)
	}
	if len(uploaded) == 0 || uploaded[0].StorageID == "" {
		return models.Audio{}, errors.New("upload: no storage id returned")
	}
	return w.register(ctx, models.AudioAsset{
		StorageID:   uploaded[0].StorageID,
		UserID:      w.userID,
		Source:      source,
		ContentType: file.ContentType,
		SizeBytes:   uploaded[0].Size,
	})
}

// register records a stored object as the user's asset, resolves its
// playable URL and asks for its duration.
func (w *Workflow) register(ctx context.Context, asset models.AudioAsset) (models.Audio, error) {
	storageID := asset.StorageID
	if err := ctx.Err(); err != nil {
		return models.Audio{}, err
	}
	if err := w.svc.Assets.RecordAudioAsset(ctx, asset); err != nil {
		return models.Audio{}, fmt.Errorf("record asset %s: %w", storageID, err)
	}

	if err := ctx.Err(); err != nil {
		return models.Audio{}, err
	}
	url, err := w.svc.URLs.URL(ctx, storageID)
	if err != nil {
		return models.Audio{}, fmt.Errorf("resolve url for %s: %w", storageID, err)
	}
	if url == "" {
		return models.Audio{}, fmt.Errorf("resolve url for %s: empty url", storageID)
	}

	if w.svc.Durations != nil {
		if err := w.svc.Durations.RequestDuration(ctx, storageID); err != nil {
			w.svc.Logger.Warn("duration request failed", zap.String("storage_id", storageID), zap.Error(err))
		}
	}
	return models.Audio{URL: url, StorageID: storageID, Source: asset.Source}, nil
}

// begin moves the workflow into a busy phase. check, when set, runs under
// the lock before the transition.
func (w *Workflow) begin(parent context.Context, phase Phase, check func() error) (context.Context, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Busy() {
		return nil, ErrBusy
	}
	if check != nil {
		if err := check(); err != nil {
			return nil, err
		}
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if w.svc.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, w.svc.Timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	w.cancel = cancel
	w.state = State{Phase: phase}
	return ctx, nil
}

// finish leaves the busy phase. payload is kept for RetryUpload on failure.
func (w *Workflow) finish(ctx context.Context, op string, audio models.Audio, payload []byte, err error) error {
	canceled := err != nil && errors.Is(ctx.Err(), context.Canceled)

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if err != nil {
		reason := err.Error()
		if canceled {
			reason = "canceled"
		}
		w.state = failed(reason, payload != nil)
		w.pending = payload
	} else {
		w.state = ready(audio)
		w.pending = nil
	}
	w.mu.Unlock()

	log := w.svc.Logger.With(zap.String("operation", op), zap.Int64("user_id", w.userID))
	switch {
	case err == nil:
		log.Info("audio ready", zap.String("storage_id", audio.StorageID))
		w.observe(op, OutcomeSuccess)
		w.notify(notify.Info(successMessage(op)))
		w.emit(audio)
		return nil
	case canceled:
		log.Info("operation canceled")
		w.observe(op, OutcomeCanceled)
		w.notify(notify.Info(canceledMessage(op)))
	default:
		log.Error("operation failed", zap.Error(err), zap.Bool("retryable", payload != nil))
		w.observe(op, OutcomeFailure)
		w.notify(notify.Destructive(failureMessage(op)))
	}
	return err
}

func (w *Workflow) reject(op string, n notify.Notification, err error) error {
	w.observe(op, OutcomeInvalid)
	w.notify(n)
	return err
}

func (w *Workflow) notify(n notify.Notification) {
	if w.notifier != nil {
		w.notifier.Notify(n)
	}
}

func (w *Workflow) observe(op, outcome string) {
	if w.svc.Observe != nil {
		w.svc.Observe(op, outcome)
	}
}

func (w *Workflow) emit(a models.Audio) {
	if w.report != nil {
		w.report(a)
	}
}

func successMessage(op string) string {
	if op == OpUpload || op == OpAttach {
		return msgUploaded
	}
	return msgGenerated
}

func failureMessage(op string) string {
	if op == OpUpload || op == OpAttach {
		return msgUploadFailed
	}
	return msgGenerateFailed
}

func canceledMessage(op string) string {
	if op == OpUpload || op == OpAttach {
		return msgUploadCanceled
	}
	return msgGenerateCanceled
}
