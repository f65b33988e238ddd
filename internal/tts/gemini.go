package tts

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/wav"
	"google.golang.org/genai"
)

// GeminiSpeaker uses Gemini audio output. The API returns raw 16-bit PCM,
// which is wrapped in a WAV header.
type GeminiSpeaker struct {
	client *genai.Client
	model  string
}

var _ Speaker = (*GeminiSpeaker)(nil)

// NewGeminiSpeaker returns a speaker for model (e.g. gemini-2.5-flash-preview-tts).
func NewGeminiSpeaker(client *genai.Client, model string) *GeminiSpeaker {
	return &GeminiSpeaker{client: client, model: model}
}

// Provider implements Speaker.
func (s *GeminiSpeaker) Provider() models.VoiceProvider { return models.VoiceProviderGemini }

// Speak implements Speaker.
func (s *GeminiSpeaker) Speak(ctx context.Context, req Request) ([]byte, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: req.VoiceID},
			},
			LanguageCode: languageCode(req.Language),
		},
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: req.Text}}, Role: genai.RoleUser},
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai speech: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("genai speech: no candidates")
	}
	var pcm bytes.Buffer
	format := wav.Speech
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil {
			continue
		}
		if rate := pcmRate(p.InlineData.MIMEType); rate > 0 {
			format.SampleRate = rate
		}
		pcm.Write(p.InlineData.Data)
	}
	if pcm.Len() == 0 {
		return nil, fmt.Errorf("genai speech: no audio in response")
	}
	return wav.Encode(format, pcm.Bytes()), nil
}

// pcmRate reads the rate parameter of a mime type like "audio/L16;codec=pcm;rate=24000".
func pcmRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && strings.EqualFold(k, "rate") {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}

var regionalCodes = map[string]string{
	"en": "en-US", "de": "de-DE", "fr": "fr-FR", "es": "es-US", "it": "it-IT",
	"pt": "pt-BR", "nl": "nl-NL", "ja": "ja-JP", "ko": "ko-KR", "hi": "hi-IN",
	"id": "id-ID", "ru": "ru-RU", "pl": "pl-PL", "tr": "tr-TR", "vi": "vi-VN",
	"th": "th-TH", "ar": "ar-EG", "zh": "cmn-CN",
}

// languageCode expands bare ISO 639-1 codes to the BCP-47 tags the API expects.
// Unknown codes return "" so the model detects the language itself.
func languageCode(lang string) string {
	lang = strings.TrimSpace(lang)
	if strings.Contains(lang, "-") {
		return lang
	}
	return regionalCodes[strings.ToLower(lang)]
}
