package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/openai/openai-go"
)

// OpenAISpeaker uses the OpenAI speech endpoint with WAV output.
type OpenAISpeaker struct {
	client *openai.Client
	model  string
}

var _ Speaker = (*OpenAISpeaker)(nil)

// NewOpenAISpeaker returns a speaker for model (e.g. gpt-4o-mini-tts).
func NewOpenAISpeaker(client *openai.Client, model string) *OpenAISpeaker {
	return &OpenAISpeaker{client: client, model: model}
}

// Provider implements Speaker.
func (s *OpenAISpeaker) Provider() models.VoiceProvider { return models.VoiceProviderOpenAI }

// Speak implements Speaker. The language is passed as a delivery instruction.
func (s *OpenAISpeaker) Speak(ctx context.Context, req Request) ([]byte, error) {
	params := openai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(req.VoiceID),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	}
	if req.Language != "" {
		params.Instructions = openai.String(fmt.Sprintf("Speak naturally in the language with code %q.", req.Language))
	}
	resp, err := s.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai speech: read body: %w", err)
	}
	return data, nil
}
