package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/studycast/internal/blob"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/wav"
)

type stubSpeaker struct {
	out []byte
	err error
}

func (s *stubSpeaker) Speak(ctx context.Context, req Request) ([]byte, error) { return s.out, s.err }
func (s *stubSpeaker) Provider() models.VoiceProvider                        { return models.VoiceProviderOpenAI }

func newStore(t *testing.T) *blob.LocalStore {
	t.Helper()
	s, err := blob.NewLocalStore(t.TempDir(), "http://test/assets")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStoreSynthesizer_Synthesize(t *testing.T) {
	pcm := make([]byte, 48000) // one second at 24 kHz mono 16-bit
	syn := NewSynthesizer(&stubSpeaker{out: wav.Encode(wav.Speech, pcm)}, newStore(t))

	asset, err := syn.Synthesize(context.Background(), Request{Text: "hello", VoiceID: "alloy", Key: "p/seg-1.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if asset.URL != "http://test/assets/p/seg-1.wav" {
		t.Errorf("url = %s", asset.URL)
	}
	if asset.Samples != 24000 || asset.SampleRate != 24000 || asset.Duration() != 1 {
		t.Errorf("asset = %+v", asset)
	}
}

func TestStoreSynthesizer_errors(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := NewSynthesizer(&stubSpeaker{}, store).Synthesize(ctx, Request{}); !errors.Is(err, models.ErrInput) {
		t.Errorf("empty text: %v", err)
	}
	boom := errors.New("quota")
	if _, err := NewSynthesizer(&stubSpeaker{err: boom}, store).Synthesize(ctx, Request{Text: "x"}); !errors.Is(err, boom) {
		t.Errorf("backend error should be wrapped: %v", err)
	}
	if _, err := NewSynthesizer(&stubSpeaker{out: []byte("ID3....")}, store).Synthesize(ctx, Request{Text: "x"}); !errors.Is(err, wav.ErrInvalidHeader) {
		t.Errorf("non-wav output: %v", err)
	}
}

func TestRouter_For(t *testing.T) {
	r := Router{models.VoiceProviderOpenAI: NewSynthesizer(&stubSpeaker{}, newStore(t))}
	if _, err := r.For(models.VoiceProviderOpenAI); err != nil {
		t.Error(err)
	}
	if _, err := r.For(models.VoiceProviderGemini); err == nil {
		t.Error("expected error for unconfigured provider")
	}
}

func TestDefaultProfiles_coverEveryRole(t *testing.T) {
	for _, p := range []models.VoiceProvider{models.VoiceProviderOpenAI, models.VoiceProviderGemini} {
		profiles := DefaultProfiles(p)
		for _, role := range models.Roles {
			prof, ok := ProfileFor(profiles, role)
			if !ok || prof.VoiceID == "" || prof.Provider != p {
				t.Errorf("%s: missing profile for %s", p, role)
			}
		}
	}
}

func TestPCMRateAndLanguageCode(t *testing.T) {
	if got := pcmRate("audio/L16;codec=pcm;rate=24000"); got != 24000 {
		t.Errorf("pcmRate = %d", got)
	}
	if got := pcmRate("audio/L16"); got != 0 {
		t.Errorf("pcmRate without rate = %d", got)
	}
	cases := map[string]string{"en": "en-US", "DE": "de-DE", "pt-PT": "pt-PT", "xx": ""}
	for in, want := range cases {
		if got := languageCode(in); got != want {
			t.Errorf("languageCode(%q) = %q, want %q", in, got, want)
		}
	}
}
