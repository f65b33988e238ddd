// Package extract turns uploaded study files into plain text documents.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/studycast/pkg/utils"
)

// wordsPerPage estimates page counts for formats without real pages.
const wordsPerPage = 500

// Document is the text of one file plus what we could learn about its shape.
type Document struct {
	Title     string
	Text      string
	PageCount int
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its document.
// The title is derived from the file name.
func (e *Extractor) Extract(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc, err := e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, err
	}
	doc.Title = TitleFromPath(path)
	return doc, nil
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
// Unknown extensions are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Document, error) {
	var (
		text  string
		pages int
		err   error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, pages, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".odt", ".rtf":
		text, err = extractWithCat(content, ext)
	case ".xlsx":
		text, pages, err = extractExcel(content)
	case ".pptx":
		text, pages, err = extractPPTX(content)
	case ".odp":
		text, err = extractOpenDocument(content, "ODP", odpTextP, odpTextSpan, odpTextH)
	case ".ods":
		text, err = extractOpenDocument(content, "ODS", odpTextP, odpTextSpan)
	default:
		text = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	if pages == 0 {
		pages = EstimatePages(text)
	}
	return &Document{Text: text, PageCount: pages}, nil
}

// TitleFromPath turns "cell_biology-notes.pdf" into "cell biology notes".
func TitleFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '.' {
			return ' '
		}
		return r
	}, base)
	base = utils.CollapseWhitespace(base)
	if base == "" {
		return "Untitled"
	}
	return base
}

// EstimatePages approximates a page count from the word count.
func EstimatePages(text string) int {
	words := utils.WordCount(text)
	if words == 0 {
		return 0
	}
	return (words + wordsPerPage - 1) / wordsPerPage
}
