// Package tts turns dialogue text into stored WAV assets using a speech backend.
package tts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperjump/studycast/internal/blob"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/wav"
)

// Request is one utterance to synthesize.
type Request struct {
	Text     string
	Language string
	VoiceID  string
	// Key is the storage key for the asset. A random key is used when empty.
	Key string
}

// Asset is a stored, synthesized clip.
type Asset struct {
	URL         string
	ContentType string
	Samples     int
	SampleRate  int
}

// Duration returns the clip length in seconds.
func (a *Asset) Duration() float64 {
	if a == nil || a.SampleRate == 0 {
		return 0
	}
	return float64(a.Samples) / float64(a.SampleRate)
}

// Synthesizer produces a stored audio asset for a request.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Asset, error)
}

// Speaker is a speech backend that returns a complete WAV file.
type Speaker interface {
	Speak(ctx context.Context, req Request) ([]byte, error)
	Provider() models.VoiceProvider
}

// StoreSynthesizer runs a Speaker and uploads its output to a blob store.
type StoreSynthesizer struct {
	speaker Speaker
	store   blob.Store
}

var _ Synthesizer = (*StoreSynthesizer)(nil)

// NewSynthesizer returns a Synthesizer that stores the speaker's output in store.
func NewSynthesizer(speaker Speaker, store blob.Store) *StoreSynthesizer {
	return &StoreSynthesizer{speaker: speaker, store: store}
}

// Synthesize speaks req.Text and stores the WAV. Sample count comes from the
// payload length since streamed headers may carry placeholder sizes.
func (s *StoreSynthesizer) Synthesize(ctx context.Context, req Request) (*Asset, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("tts: %w: empty text", models.ErrInput)
	}
	data, err := s.speaker.Speak(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("tts %s: %w", s.speaker.Provider(), err)
	}
	info, err := wav.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("tts %s: %w", s.speaker.Provider(), err)
	}
	format := info.Format
	key := req.Key
	if key == "" {
		key = "clips/" + uuid.New().String() + ".wav"
	}
	url, err := s.store.Put(ctx, key, data, "audio/wav")
	if err != nil {
		return nil, fmt.Errorf("tts: store clip: %w", err)
	}
	return &Asset{
		URL:         url,
		ContentType: "audio/wav",
		Samples:     format.Samples(len(wav.PCM(data))),
		SampleRate:  format.SampleRate,
	}, nil
}

// Router dispatches to a Synthesizer per provider.
type Router map[models.VoiceProvider]Synthesizer

// For returns the synthesizer for provider.
func (r Router) For(provider models.VoiceProvider) (Synthesizer, error) {
	s, ok := r[provider]
	if !ok || s == nil {
		return nil, fmt.Errorf("tts: provider %q is not configured", provider)
	}
	return s, nil
}
