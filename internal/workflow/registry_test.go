package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryScopesDraftsToOwner(t *testing.T) {
	reg := NewRegistry(Services{}, time.Hour)
	d := reg.Create(1)

	got, ok := reg.Get(d.ID, 1)
	require.True(t, ok)
	assert.Same(t, d, got)

	_, ok = reg.Get(d.ID, 2)
	assert.False(t, ok)

	reg.Discard(d.ID)
	_, ok = reg.Get(d.ID, 1)
	assert.False(t, ok)
}

func TestDraftReceivesReportedAudio(t *testing.T) {
	h := newHarness(t, fakeURLs{})
	reg := NewRegistry(h.wf.svc, time.Hour)
	d := reg.Create(7)
	d.SetVoice("alloy", "Hello world")

	require.NoError(t, d.Workflow.Generate(context.Background(), "alloy", "Hello world"))

	audio := d.Audio()
	assert.Equal(t, "audio/1", audio.StorageID)
	assert.NotEmpty(t, audio.URL)
	voice, prompt := d.Voice()
	assert.Equal(t, "alloy", voice)
	assert.Equal(t, "Hello world", prompt)
	assert.Len(t, d.Notices.Drain(), 1)
}

func TestDiscardCancelsInFlightOperation(t *testing.T) {
	synth := &fakeSynth{block: true, started: make(chan struct{})}
	reg := NewRegistry(Services{Synthesizer: synth, Uploader: &fakeUploader{}, URLs: fakeURLs{}, Assets: &fakeAssets{}}, time.Hour)
	d := reg.Create(1)

	done := make(chan error, 1)
	go func() { done <- d.Workflow.Generate(context.Background(), "alloy", "text") }()
	<-synth.started

	reg.Discard(d.ID)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("discard did not cancel the operation")
	}
}
