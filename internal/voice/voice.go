// Package voice synthesizes every dialogue segment and predicted answer with
// the voice of its speaker, isolating per-item failures.
package voice

import (
	"context"
	"fmt"
	"path"

	"github.com/hyperjump/studycast/internal/metrics"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/tts"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

// ProgressFunc observes batch progress. It is called once per item.
type ProgressFunc func(current, total int, step string)

// Failure records one item that was left without audio.
type Failure struct {
	ID  string
	Err error
}

// Report summarizes a batch.
type Report struct {
	Synthesized int
	Failed      []Failure
}

// Synthesizer voices segments and answers through a provider router.
type Synthesizer struct {
	router  tts.Router
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSynthesizer returns a Synthesizer. m may be nil.
func NewSynthesizer(router tts.Router, m *metrics.Metrics, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{router: router, metrics: m, logger: utils.LoggerOrNop(logger)}
}

// GenerateMultiVoiceAudio synthesizes each segment with the profile matching
// its speaker. Assets are keyed under keyPrefix. A failing segment keeps an
// empty AudioURL and zero duration; the batch continues. The returned slice
// has the input order.
func (s *Synthesizer) GenerateMultiVoiceAudio(ctx context.Context, keyPrefix string, segments []models.PodcastSegment, profiles []models.VoiceProfile, language string, onProgress ProgressFunc) ([]models.PodcastSegment, Report) {
	out := make([]models.PodcastSegment, len(segments))
	copy(out, segments)
	var report Report
	for i := range out {
		seg := &out[i]
		seg.AudioURL, seg.Duration = "", 0
		profile, ok := tts.ProfileFor(profiles, seg.Speaker)
		var asset *tts.Asset
		var err error
		if !ok {
			err = fmt.Errorf("no voice profile for role %s", seg.Speaker)
		} else {
			asset, err = s.speak(ctx, profile, tts.Request{
				Text:     seg.Text,
				Language: language,
				VoiceID:  profile.VoiceID,
				Key:      assetKey(keyPrefix, seg.ID),
			})
		}
		if err != nil {
			report.Failed = append(report.Failed, Failure{ID: seg.ID, Err: err})
			s.logger.Warn("segment synthesis failed",
				zap.String("segment", seg.ID), zap.String("speaker", string(seg.Speaker)), zap.Error(err))
		} else {
			seg.AudioURL = asset.URL
			seg.Duration = asset.Duration()
			report.Synthesized++
		}
		notify(onProgress, i+1, len(out), "segment "+seg.ID)
	}
	return out, report
}

// GeneratePredictedQuestionsAudio voices each prepared answer with host.
// Failures leave AudioURL empty and are reported.
func (s *Synthesizer) GeneratePredictedQuestionsAudio(ctx context.Context, keyPrefix string, questions []models.PredictedQuestion, language string, host models.VoiceProfile, onProgress ProgressFunc) ([]models.PredictedQuestion, Report) {
	out := make([]models.PredictedQuestion, len(questions))
	copy(out, questions)
	var report Report
	for i := range out {
		q := &out[i]
		q.AudioURL = ""
		asset, err := s.speak(ctx, host, tts.Request{
			Text:     q.Answer,
			Language: language,
			VoiceID:  host.VoiceID,
			Key:      assetKey(keyPrefix, q.ID),
		})
		if err != nil {
			report.Failed = append(report.Failed, Failure{ID: q.ID, Err: err})
			s.logger.Warn("answer synthesis failed", zap.String("question", q.ID), zap.Error(err))
		} else {
			q.AudioURL = asset.URL
			report.Synthesized++
		}
		notify(onProgress, i+1, len(out), "question "+q.ID)
	}
	return out, report
}

func (s *Synthesizer) speak(ctx context.Context, profile models.VoiceProfile, req tts.Request) (*tts.Asset, error) {
	syn, err := s.router.For(profile.Provider)
	if err != nil {
		s.metrics.SynthesisItem(string(profile.Provider), false)
		return nil, err
	}
	asset, err := syn.Synthesize(ctx, req)
	s.metrics.SynthesisItem(string(profile.Provider), err == nil)
	return asset, err
}

func assetKey(prefix, id string) string {
	if prefix == "" {
		return ""
	}
	return path.Join(prefix, id+".wav")
}

func notify(fn ProgressFunc, current, total int, step string) {
	if fn != nil {
		fn(current, total, step)
	}
}
