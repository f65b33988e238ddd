package assembler

import (
	"bytes"
	"context"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/wav"
	"go.uber.org/zap"
)

// BuildWAV concatenates the PCM of every voiced segment, in order, behind one
// fresh 24 kHz mono 16-bit header. Assets of at most 44 bytes carry no PCM and
// are skipped; a fetch failure aborts with an AssemblyError.
func (a *Assembler) BuildWAV(ctx context.Context, p *models.IntelligentPodcast) (d *Download, err error) {
	defer func() { a.record("wav", p, err) }()
	if err := checkReady(p); err != nil {
		return nil, err
	}

	var pcm bytes.Buffer
	skipped := 0
	for i := range p.Segments {
		seg := &p.Segments[i]
		if !seg.HasAudio() {
			continue
		}
		b, err := a.fetch(ctx, seg)
		if err != nil {
			return nil, err
		}
		payload := wav.PCM(b.Data)
		if len(payload) == 0 {
			skipped++
			a.logger.Debug("skipping segment without pcm", zap.String("segment", seg.ID), zap.Int("bytes", len(b.Data)))
			continue
		}
		pcm.Write(payload)
	}
	if pcm.Len() == 0 {
		return nil, models.ErrNoAudio
	}
	if skipped > 0 {
		a.logger.Info("assembled wav with skipped segments", zap.String("podcast", p.ID), zap.Int("skipped", skipped))
	}
	return &Download{
		Filename:    SafeFilename(p.Title) + ".wav",
		ContentType: "audio/wav",
		Data:        wav.Encode(wav.Speech, pcm.Bytes()),
	}, nil
}
