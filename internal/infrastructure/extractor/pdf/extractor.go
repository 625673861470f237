// Package pdf converts raw PDF bytes into page-indexed plain text.
// It is pure and stateless: no external calls, and no failure escapes the
// Extract boundary. The underlying reader panics on some malformed xref
// tables, so the page walk runs behind a recover.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ledongthuc "github.com/ledongthuc/pdf"

	"github.com/docsift/docsift/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, filename string, data []byte) (result domain.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failure("parse", fmt.Sprintf("pdf reader panic: %v", r))
		}
	}()

	// Zero-length input is an empty document, not a parse failure.
	if len(data) == 0 {
		return domain.ParseResult{Content: &domain.ParsedContent{
			Metadata: domain.ParseMetadata{
				Filename:   filename,
				ParsedAt:   time.Now().UTC(),
				TotalPages: 0,
			},
			Pages: []domain.PageContent{},
		}}
	}

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return failure("parse", fmt.Sprintf("open pdf: %v", err))
	}

	totalPages := reader.NumPage()
	pages := make([]domain.PageContent, 0, totalPages)
	for num := 1; num <= totalPages; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			pages = append(pages, domain.PageContent{PageNumber: num})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not invalidate the document.
			pages = append(pages, domain.PageContent{PageNumber: num})
			continue
		}
		pages = append(pages, domain.PageContent{
			PageNumber: num,
			Text:       text,
			Length:     len(text),
		})
	}

	return domain.ParseResult{Content: &domain.ParsedContent{
		Metadata: domain.ParseMetadata{
			Filename:   filename,
			ParsedAt:   time.Now().UTC(),
			TotalPages: totalPages,
		},
		Pages: pages,
	}}
}

func failure(kind, message string) domain.ParseResult {
	return domain.ParseResult{Error: &domain.ExtractionError{
		Kind:    kind,
		Message: message,
	}}
}
