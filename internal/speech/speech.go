package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyInput is returned when there is no text to synthesize.
var ErrEmptyInput = errors.New("speech: empty input")

// Voices lists the selectable voices in display order.
var Voices = []string{
	string(openai.VoiceAlloy),
	string(openai.VoiceEcho),
	string(openai.VoiceFable),
	string(openai.VoiceOnyx),
	string(openai.VoiceNova),
	string(openai.VoiceShimmer),
}

// ValidVoice reports whether voice is one of Voices.
func ValidVoice(voice string) bool {
	return lo.Contains(Voices, voice)
}

// Synthesizer turns text into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, voice, input string) ([]byte, error)
}

// speechClient is the part of *openai.Client used here.
type speechClient interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAISynthesizer synthesizes speech with the OpenAI audio API.
type OpenAISynthesizer struct {
	client speechClient
	model  openai.SpeechModel
}

func NewOpenAISynthesizer(apiKey, model string) *OpenAISynthesizer {
	return newOpenAISynthesizer(openai.NewClient(apiKey), model)
}

func newOpenAISynthesizer(client speechClient, model string) *OpenAISynthesizer {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	return &OpenAISynthesizer{client: client, model: openai.SpeechModel(model)}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, voice, input string) ([]byte, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if !ValidVoice(voice) {
		return nil, fmt.Errorf("speech: unknown voice %q", voice)
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          input,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech: empty audio response")
	}
	return audio, nil
}
