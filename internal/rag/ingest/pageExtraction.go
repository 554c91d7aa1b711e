package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/dslipak/pdf"
)

var pdfMagic = []byte("%PDF-")

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

func looksLikePDF(data []byte) bool {
	//some producers put junk before the header, the reader tolerates up to 1KiB of it
	head := data[:min(len(data), 1024)]
	return bytes.Contains(head, pdfMagic)
}

// extractPDF returns the non-empty pages of the document. Pages that fail or time out are skipped.
func extractPDF(ctx context.Context, data []byte, pageTimeout time.Duration, log *logger_i.Logger) (pages []rawPage, err error) {
	//the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf parser panicked: %v", r)
		}
	}()

	f, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.Error("failed opening of pdf file", "error", err)
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		page := f.Page(i)
		if page.V.IsNull() {
			log.Debug("extractPDF", "page value is null", i)
			continue
		}

		content, err := protectExtract(ctx, page, pageTimeout)
		if err != nil {
			log.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		if content == "" {
			continue
		}
		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

var errPageTimeout = errors.New("page extraction timed out")

func protectExtract(ctx context.Context, page pdf.Page, timeout time.Duration) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("page parser panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errPageTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
