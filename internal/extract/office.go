package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lu4p/cat"
)

const (
	contentTypesPath    = "[Content_Types].xml"
	docxDefaultBody     = "word/document.xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	openDocumentBody    = "content.xml"
)

var (
	// Text runs with any attributes: <w:t xml:space="preserve">, <a:t>, <text:p text:style-name="...">.
	wtTag       = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	atTag       = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	odpTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odpTextSpan = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odpTextH    = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)

	// The main part override may list PartName and ContentType in either order.
	docxPartName    = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	docxPartNameRev = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

	slideNumber = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

func openZip(content []byte, kind string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", kind, err)
	}
	return zr, nil
}

// readZipFile returns the named entry, or nil if the archive has no such entry.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// joinRuns concatenates the first capture group of every match, space separated.
func joinRuns(xml string, patterns ...*regexp.Regexp) string {
	var b strings.Builder
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(xml, -1) {
			run := strings.TrimSpace(m[1])
			if run == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(run)
		}
	}
	return b.String()
}

// extractDOCX reads <w:t> runs from the main document part. Real documents carry
// attributes on <w:p>, so runs are matched individually.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	body := docxDefaultBody
	if types, err := readZipFile(zr, contentTypesPath); err == nil && types != nil {
		for _, re := range []*regexp.Regexp{docxPartName, docxPartNameRev} {
			if m := re.FindSubmatch(types); len(m) > 1 {
				body = strings.TrimPrefix(string(m[1]), "/")
				break
			}
		}
	}
	xml, err := readZipFile(zr, body)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if xml == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", body)
	}
	return joinRuns(string(xml), wtTag), nil
}

// extractPPTX reads <a:t> runs slide by slide in slide-number order. Each slide is one page.
func extractPPTX(content []byte) (string, int, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return "", 0, err
	}
	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slideNumber.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n: n, name: f.Name})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var parts []string
	for _, s := range slides {
		xml, err := readZipFile(zr, s.name)
		if err != nil {
			return "", 0, fmt.Errorf("extract PPTX: %w", err)
		}
		if text := joinRuns(string(xml), atTag); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), len(slides), nil
}

// extractOpenDocument reads text elements from content.xml of an ODP or ODS package.
func extractOpenDocument(content []byte, kind string, patterns ...*regexp.Regexp) (string, error) {
	zr, err := openZip(content, kind)
	if err != nil {
		return "", err
	}
	xml, err := readZipFile(zr, openDocumentBody)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", kind, err)
	}
	if xml == nil {
		return "", fmt.Errorf("extract %s: %s not found", kind, openDocumentBody)
	}
	return joinRuns(string(xml), patterns...), nil
}

// extractWithCat handles text documents (.odt, .rtf) whose layout lu4p/cat understands.
func extractWithCat(content []byte, ext string) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return strings.TrimSpace(text), nil
}
