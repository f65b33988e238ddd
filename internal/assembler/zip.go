package assembler

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/klauspost/compress/flate"
)

// BuildZip bundles transcript.txt and one NNN_<speaker>.<ext> clip per voiced
// segment. Empty assets are skipped; a fetch failure aborts with an AssemblyError.
func (a *Assembler) BuildZip(ctx context.Context, p *models.IntelligentPodcast) (d *Download, err error) {
	defer func() { a.record("zip", p, err) }()
	if err := checkReady(p); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	if err := addFile(zw, "transcript.txt", []byte(Transcript(p.Segments))); err != nil {
		return nil, err
	}
	clips := 0
	for i := range p.Segments {
		seg := &p.Segments[i]
		if !seg.HasAudio() {
			continue
		}
		b, err := a.fetch(ctx, seg)
		if err != nil {
			return nil, err
		}
		if len(b.Data) == 0 {
			continue
		}
		name := fmt.Sprintf("%03d_%s.%s", i+1, seg.Speaker, extension(b.ContentType, seg.AudioURL))
		if err := addFile(zw, name, b.Data); err != nil {
			return nil, err
		}
		clips++
	}
	if clips == 0 {
		return nil, models.ErrNoAudio
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish zip: %w", err)
	}
	return &Download{
		Filename:    SafeFilename(p.Title) + ".zip",
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}

// Transcript renders every segment as "SPEAKER: text", separated by blank lines.
func Transcript(segments []models.PodcastSegment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = strings.ToUpper(string(s.Speaker)) + ": " + s.Text
	}
	return strings.Join(parts, "\n\n")
}

func addFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// extension is wav when the declared type or URL says so, mp3 otherwise.
func extension(contentType, url string) string {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "wav") || strings.HasSuffix(strings.ToLower(url), ".wav") {
		return "wav"
	}
	return "mp3"
}
