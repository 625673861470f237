package ports

import (
	"context"
	"io"

	"github.com/docsift/docsift/internal/core/domain"
)

// DocumentProcessor runs the classification pipeline over already-stored
// bytes and returns the persisted record.
type DocumentProcessor interface {
	Process(ctx context.Context, originalFilename, storageKey string) (*domain.DocumentRecord, error)
}

// DocumentIngestor is the inbound contract for document uploads.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.DocumentRecord, error)
	UploadAsync(ctx context.Context, filename string, body io.Reader) (string, error)
}

// ReportProvider aggregates processed records for the reporting surface.
// schemaID == "" produces the full report.
type ReportProvider interface {
	Report(ctx context.Context, schemaID string) (*domain.Report, error)
}
