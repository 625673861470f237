package pdf

import (
	"bytes"
	"context"
	"fmt"
	"testing"
)

// minimalPDF builds a valid single-page PDF with an empty content stream,
// computing xref offsets as it goes.
func minimalPDF(t *testing.T) []byte {
	t.Helper()

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R >>\nendobj\n",
		"4 0 obj\n<< /Length 0 >>\nstream\n\nendstream\nendobj\n",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefPos)
	return buf.Bytes()
}

func TestExtractSinglePage(t *testing.T) {
	result := NewExtractor().Extract(context.Background(), "one-page.pdf", minimalPDF(t))

	if result.Failed() {
		t.Fatalf("Extract() failed: %+v", result.Error)
	}
	if result.Content.Metadata.TotalPages != 1 {
		t.Fatalf("expected 1 page, got %d", result.Content.Metadata.TotalPages)
	}
	if len(result.Content.Pages) != 1 || result.Content.Pages[0].PageNumber != 1 {
		t.Fatalf("unexpected pages: %+v", result.Content.Pages)
	}
	if result.Content.Metadata.Filename != "one-page.pdf" {
		t.Fatalf("unexpected filename: %s", result.Content.Metadata.Filename)
	}
}

func TestExtractEmptyInputIsEmptyDocument(t *testing.T) {
	result := NewExtractor().Extract(context.Background(), "empty.pdf", nil)

	if result.Failed() {
		t.Fatalf("empty input must not be a parse failure: %+v", result.Error)
	}
	if result.Content.Metadata.TotalPages != 0 {
		t.Fatalf("expected 0 pages, got %d", result.Content.Metadata.TotalPages)
	}
	if len(result.Content.Pages) != 0 {
		t.Fatalf("expected no pages, got %+v", result.Content.Pages)
	}
}

func TestExtractGarbageReturnsErrorVariant(t *testing.T) {
	result := NewExtractor().Extract(context.Background(), "garbage.pdf", []byte("not a pdf at all"))

	if !result.Failed() {
		t.Fatal("expected extraction failure")
	}
	if result.Error.Kind != "parse" || result.Error.Message == "" {
		t.Fatalf("unexpected error variant: %+v", result.Error)
	}
	if result.Content != nil {
		t.Fatal("failed parse must not carry content")
	}
}

func TestExtractTruncatedPDFReturnsErrorVariant(t *testing.T) {
	doc := minimalPDF(t)
	result := NewExtractor().Extract(context.Background(), "truncated.pdf", doc[:len(doc)/2])

	if !result.Failed() {
		t.Fatal("expected extraction failure for truncated document")
	}
}
