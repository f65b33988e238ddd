package voice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/tts"
)

// fakeTTS returns one second of audio per call unless the text contains "fail".
type fakeTTS struct {
	requests []tts.Request
}

func (f *fakeTTS) Synthesize(ctx context.Context, req tts.Request) (*tts.Asset, error) {
	f.requests = append(f.requests, req)
	if strings.Contains(req.Text, "fail") {
		return nil, errors.New("voice unavailable")
	}
	return &tts.Asset{URL: "http://assets/" + req.Key, ContentType: "audio/wav", Samples: 24000 * len(f.requests), SampleRate: 24000}, nil
}

func segments() []models.PodcastSegment {
	return []models.PodcastSegment{
		{ID: "segment-1", Speaker: models.RoleHost, Text: "Welcome."},
		{ID: "segment-2", Speaker: models.RoleExpert, Text: "This will fail."},
		{ID: "segment-3", Speaker: models.RoleSimplifier, Text: "In short."},
		{ID: "segment-4", Speaker: models.RoleExpert, Text: "Onward."},
	}
}

func TestGenerateMultiVoiceAudio(t *testing.T) {
	fake := &fakeTTS{}
	syn := NewSynthesizer(tts.Router{models.VoiceProviderOpenAI: fake}, nil, nil)
	profiles := tts.DefaultProfiles(models.VoiceProviderOpenAI)

	var progress []int
	in := segments()
	out, report := syn.GenerateMultiVoiceAudio(context.Background(), "pod-1", in, profiles, "en", func(cur, total int, step string) {
		if total != 4 {
			t.Errorf("total = %d", total)
		}
		progress = append(progress, cur)
	})

	if len(out) != len(in) {
		t.Fatalf("segments = %d, want %d", len(out), len(in))
	}
	for i := range out {
		if out[i].ID != in[i].ID {
			t.Errorf("order changed at %d: %s", i, out[i].ID)
		}
	}
	if out[1].HasAudio() || out[1].Duration != 0 {
		t.Errorf("failed segment should have no audio: %+v", out[1])
	}
	if out[0].AudioURL != "http://assets/pod-1/segment-1.wav" || out[0].Duration != 1 {
		t.Errorf("segment 1 = %+v", out[0])
	}
	if out[2].Duration != 3 {
		t.Errorf("duration should come from samples, got %v", out[2].Duration)
	}
	if report.Synthesized != 3 || len(report.Failed) != 1 || report.Failed[0].ID != "segment-2" {
		t.Errorf("report = %+v", report)
	}
	if len(progress) != 4 || progress[3] != 4 {
		t.Errorf("progress calls = %v", progress)
	}
	if fake.requests[1].VoiceID != "onyx" || fake.requests[2].VoiceID != "nova" || fake.requests[0].Language != "en" {
		t.Errorf("requests = %+v", fake.requests)
	}
	if in[0].AudioURL != "" {
		t.Error("input slice must not be modified")
	}
}

func TestGenerateMultiVoiceAudio_missingProfileAndProvider(t *testing.T) {
	fake := &fakeTTS{}
	syn := NewSynthesizer(tts.Router{models.VoiceProviderOpenAI: fake}, nil, nil)
	profiles := []models.VoiceProfile{
		{Role: models.RoleHost, Provider: models.VoiceProviderOpenAI, VoiceID: "alloy"},
		{Role: models.RoleSimplifier, Provider: models.VoiceProviderGemini, VoiceID: "Puck"},
	}
	out, report := syn.GenerateMultiVoiceAudio(context.Background(), "p", segments(), profiles, "en", nil)
	if !out[0].HasAudio() {
		t.Error("host segment should be voiced")
	}
	for _, i := range []int{1, 2, 3} {
		if out[i].HasAudio() {
			t.Errorf("segment %d should have no audio", i)
		}
	}
	if len(report.Failed) != 3 {
		t.Errorf("failed = %+v", report.Failed)
	}
}

func TestGeneratePredictedQuestionsAudio(t *testing.T) {
	fake := &fakeTTS{}
	syn := NewSynthesizer(tts.Router{models.VoiceProviderOpenAI: fake}, nil, nil)
	host, _ := tts.ProfileFor(tts.DefaultProfiles(models.VoiceProviderOpenAI), models.RoleHost)
	questions := []models.PredictedQuestion{
		{ID: "question-1", Question: "Why?", Answer: "Because."},
		{ID: "question-2", Question: "How?", Answer: "It may fail."},
	}
	calls := 0
	out, report := syn.GeneratePredictedQuestionsAudio(context.Background(), "p", questions, "de", host, func(int, int, string) { calls++ })
	if out[0].AudioURL != "http://assets/p/question-1.wav" || out[1].AudioURL != "" {
		t.Errorf("questions = %+v", out)
	}
	if report.Synthesized != 1 || len(report.Failed) != 1 || calls != 2 {
		t.Errorf("report = %+v calls = %d", report, calls)
	}
	if fake.requests[0].VoiceID != "alloy" || fake.requests[0].Text != "Because." || fake.requests[0].Language != "de" {
		t.Errorf("request = %+v", fake.requests[0])
	}
}
