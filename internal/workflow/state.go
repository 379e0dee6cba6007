package workflow

import (
	"errors"
	"fmt"

	"podnplay/internal/models"
)

var (
	// ErrBusy is returned when an operation starts while another one is in flight.
	ErrBusy = errors.New("workflow: an operation is already in progress")
	// ErrNothingToRetry is returned by RetryUpload when no synthesized audio is kept.
	ErrNothingToRetry = errors.New("workflow: no synthesized audio to retry")
)

// Phase tags the workflow state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseUploading  Phase = "uploading"
	PhaseReady      Phase = "ready"
	PhaseFailed     Phase = "failed"
)

// Mode selects between AI generation and a custom upload.
type Mode string

const (
	ModeAI     Mode = "ai"
	ModeUpload Mode = "upload"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAI, ModeUpload:
		return Mode(s), nil
	}
	return "", fmt.Errorf("workflow: unknown mode %q", s)
}

// State is the workflow state. Audio is set only in PhaseReady; Reason and
// Retryable only in PhaseFailed.
type State struct {
	Phase     Phase         `json:"phase"`
	Audio     *models.Audio `json:"audio,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Retryable bool          `json:"retryable,omitempty"`
}

// Busy reports whether an operation is in flight.
func (s State) Busy() bool {
	return s.Phase == PhaseGenerating || s.Phase == PhaseUploading
}

func idle() State { return State{Phase: PhaseIdle} }

func ready(a models.Audio) State { return State{Phase: PhaseReady, Audio: &a} }

func failed(reason string, retryable bool) State {
	return State{Phase: PhaseFailed, Reason: reason, Retryable: retryable}
}

// Snapshot is a copy of the workflow's observable state.
type Snapshot struct {
	Mode  Mode  `json:"mode"`
	State State `json:"state"`
}

// ValidationError reports input rejected before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
