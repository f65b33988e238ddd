// Package importer turns files and API submissions into stored study documents.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/studycast/internal/extract"
	"github.com/hyperjump/studycast/internal/fileid"
	"github.com/hyperjump/studycast/internal/metrics"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/storage"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

// Importer stores documents extracted from files or submitted directly.
type Importer struct {
	store      storage.DocumentStore
	extractor  *extract.Extractor
	extensions []string
	language   string
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithExtensions restricts file imports to the given extensions (".pdf" or "pdf").
func WithExtensions(exts []string) Option {
	return func(im *Importer) { im.extensions = exts }
}

// WithLanguage tags imported files with a language code.
func WithLanguage(lang string) Option {
	return func(im *Importer) { im.language = lang }
}

// WithMetrics counts imported documents.
func WithMetrics(m *metrics.Metrics) Option {
	return func(im *Importer) { im.metrics = m }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// New creates an Importer writing to store.
func New(store storage.DocumentStore, extractor *extract.Extractor, opts ...Option) *Importer {
	im := &Importer{store: store, extractor: extractor}
	for _, opt := range opts {
		opt(im)
	}
	if im.extractor == nil {
		im.extractor = extract.NewExtractor()
	}
	im.logger = utils.LoggerOrNop(im.logger)
	return im
}

// ImportDocument stores a document submitted as text. A missing id is
// generated; a missing title becomes "Untitled".
func (im *Importer) ImportDocument(ctx context.Context, owner string, input *models.DocumentInput) (*models.DocumentContent, error) {
	if input == nil || strings.TrimSpace(input.Content) == "" {
		return nil, models.InputErrorf("content is required")
	}
	doc := &models.DocumentContent{
		ID:        strings.TrimSpace(input.ID),
		OwnerID:   owner,
		Title:     utils.CollapseWhitespace(input.Title),
		Content:   strings.TrimSpace(input.Content),
		PageCount: input.PageCount,
		Language:  strings.ToLower(strings.TrimSpace(input.Language)),
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Title == "" {
		doc.Title = "Untitled"
	}
	if doc.PageCount <= 0 {
		doc.PageCount = extract.EstimatePages(doc.Content)
	}
	if err := im.store.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}
	im.metrics.DocumentImported()
	return doc, nil
}

// ImportFile extracts and stores the file at path for owner. The document id
// is derived from the path. A file already stored after its last
// modification is skipped; the returned bool reports whether it was written.
func (im *Importer) ImportFile(ctx context.Context, owner, path string) (*models.DocumentContent, bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false, fmt.Errorf("absolute path: %w", err)
	}
	if !im.Allowed(absPath) {
		return nil, false, models.InputErrorf("extension %q is not importable", filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, false, models.InputErrorf("not a regular file: %s", absPath)
	}

	id := fileid.ForPath(owner, absPath)
	if existing, err := im.store.GetDocument(ctx, owner, id); err == nil && !existing.ExtractedAt.Before(info.ModTime()) {
		im.logger.Debug("importer skipping unchanged file", zap.String("path", absPath))
		return existing, false, nil
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	extracted, err := im.extractor.Extract(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("extract %s: %w", absPath, err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, false, models.InputErrorf("no text found in %s", absPath)
	}
	doc := &models.DocumentContent{
		ID:          id,
		OwnerID:     owner,
		Title:       extracted.Title,
		Content:     extracted.Text,
		PageCount:   extracted.PageCount,
		Language:    im.language,
		ExtractedAt: time.Now().UTC(),
	}
	if err := im.store.SaveDocument(ctx, doc); err != nil {
		return nil, false, err
	}
	im.metrics.DocumentImported()
	im.logger.Debug("importer file imported", zap.String("path", absPath), zap.String("doc_id", id))
	return doc, true, nil
}

// ImportDirectory imports every allowed regular file under dir. When
// recursive is false only the top level is read. Files that fail to import
// are logged and skipped; it returns the number of documents written.
func (im *Importer) ImportDirectory(ctx context.Context, owner, dir string, recursive bool) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	n := 0
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !im.Allowed(path) {
			return nil
		}
		// Resolve symlinks so only regular files are read.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		_, wrote, importErr := im.ImportFile(ctx, owner, path)
		if importErr != nil {
			im.logger.Warn("import failed", zap.String("path", path), zap.Error(importErr))
			return nil
		}
		if wrote {
			n++
		}
		return nil
	})
	return n, err
}

// Remove deletes the document imported from path, if any.
func (im *Importer) Remove(ctx context.Context, owner, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	err = im.store.DeleteDocument(ctx, owner, fileid.ForPath(owner, absPath))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	im.logger.Debug("importer document removed", zap.String("path", absPath))
	return nil
}

// Allowed reports whether path has an importable extension. With no
// configured extensions every file is allowed.
func (im *Importer) Allowed(path string) bool {
	if len(im.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, a := range im.extensions {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}
