// Package assembler builds downloadable audio from a ready podcast: one
// concatenated WAV file, or a zip bundle of per-segment clips and a transcript.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hyperjump/studycast/internal/blob"
	"github.com/hyperjump/studycast/internal/metrics"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

// maxFilenameRunes bounds the sanitized title used in download names.
const maxFilenameRunes = 120

// Download is an assembled file.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Assembler fetches segment assets and packages them.
type Assembler struct {
	fetcher blob.Fetcher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New returns an Assembler. m may be nil.
func New(fetcher blob.Fetcher, m *metrics.Metrics, logger *zap.Logger) *Assembler {
	return &Assembler{fetcher: fetcher, metrics: m, logger: utils.LoggerOrNop(logger)}
}

// checkReady enforces the shared preconditions of both download formats.
func checkReady(p *models.IntelligentPodcast) error {
	if p == nil {
		return models.ErrNotFound
	}
	if p.Status != models.StatusReady {
		return fmt.Errorf("%w: status is %s", models.ErrNotReady, p.Status)
	}
	for i := range p.Segments {
		if p.Segments[i].HasAudio() {
			return nil
		}
	}
	return models.ErrNoAudio
}

// fetch retrieves one segment's asset. Any failure aborts the build.
func (a *Assembler) fetch(ctx context.Context, seg *models.PodcastSegment) (*blob.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := a.fetcher.Fetch(ctx, seg.AudioURL)
	if err != nil {
		return nil, &models.AssemblyError{SegmentID: seg.ID, Err: err}
	}
	return b, nil
}

func (a *Assembler) record(format string, p *models.IntelligentPodcast, err error) {
	a.metrics.Assembly(format, err == nil)
	if err != nil && !errors.Is(err, models.ErrNotReady) && !errors.Is(err, models.ErrNoAudio) {
		a.logger.Error("assembly failed", zap.String("format", format), zap.String("podcast", p.ID), zap.Error(err))
	}
}

// SafeFilename turns a title into a portable file name stem: forbidden and
// control characters become '_', whitespace runs collapse to one space and
// the result is cut to 120 characters. An empty result is "podcast".
func SafeFilename(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune('_')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(b.String()), " ")
	if runes := []rune(name); len(runes) > maxFilenameRunes {
		name = strings.TrimSpace(string(runes[:maxFilenameRunes]))
	}
	if name == "" {
		return "podcast"
	}
	return name
}
