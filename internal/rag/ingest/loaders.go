package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
)

// Loader extracts the ordered text segments of one document.
type Loader interface {
	ExtractSegments(path string) ([]commonModels.Segment, error)
}

type textLoader struct{}
type pdfLoader struct{}
type wordLoader struct{}

func LoaderFor(kind commonModels.DocKind) (Loader, error) {
	switch kind {
	case commonModels.KindText:
		return textLoader{}, nil
	case commonModels.KindPDF:
		return pdfLoader{}, nil
	case commonModels.KindWord:
		return wordLoader{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", commonModels.ErrUnsupportedFormat, kind)
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (textLoader) ExtractSegments(path string) ([]commonModels.Segment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", commonModels.ErrIO, path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", commonModels.ErrIO, path)
	}
	return []commonModels.Segment{{Number: 1, Content: string(raw)}}, nil
}

func (pdfLoader) ExtractSegments(path string) ([]commonModels.Segment, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf %s: %v", commonModels.ErrIO, path, err)
	}

	var segments []commonModels.Segment
	numPages := f.NumPage()
	logger.Debug("extracting pdf", "path", path, "pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			logger.Debug("skipping null pdf page", "path", path, "page", i)
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			logger.Warn("skipping unreadable pdf page", "path", path, "page", i, "error", err)
			continue
		}
		segments = append(segments, commonModels.Segment{Number: i, Content: content})
	}
	return segments, nil
}

func (wordLoader) ExtractSegments(path string) ([]commonModels.Segment, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("%w: extract %s: %v", commonModels.ErrIO, path, err)
	}
	// cat does not expose page breaks, the document is one segment.
	return []commonModels.Segment{{Number: 1, Content: text}}, nil
}

var errPageTimeout = errors.New("page extraction timed out")

// protectExtract bounds GetPlainText, which can spin or panic on malformed pages.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(config.PageExtractTimeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errPageTimeout
	}
}
