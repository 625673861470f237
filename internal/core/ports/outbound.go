package ports

import (
	"context"
	"io"

	"github.com/docsift/docsift/internal/core/domain"
)

// SchemaRegistry owns the set of named document schemas. Every mutating call
// persists durably before returning success.
type SchemaRegistry interface {
	List(ctx context.Context) ([]domain.SchemaInfo, error)
	Get(ctx context.Context, id string) (*domain.Schema, error)
	Add(ctx context.Context, schema domain.Schema) error
	Update(ctx context.Context, schema domain.Schema) error
	Delete(ctx context.Context, id string) error
}

// DocumentStore is the append-only record store for processed documents.
// Reads reload from durable storage; schemaID == "" lists everything.
type DocumentStore interface {
	Append(ctx context.Context, record *domain.DocumentRecord) error
	List(ctx context.Context, schemaID string) ([]domain.DocumentRecord, error)
}

// PageExtractor converts raw PDF bytes into page-indexed plain text.
// It never fails past its boundary: extraction problems come back as the
// error variant of the ParseResult.
type PageExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) domain.ParseResult
}

// DocumentClassifier assigns a schema id to parsed content via the
// text-generation backend. The returned schema id is always a member of
// knownIDs or the fallback sentinel; failures degrade to the fallback
// result instead of surfacing as errors.
type DocumentClassifier interface {
	Classify(ctx context.Context, parsed domain.ParseResult, knownIDs []string) domain.ClassificationResult
}

// DataValidator validates extracted field data against a registered schema.
// A missing schema yields an invalid result, not an error; the error return
// is reserved for registry read failures.
type DataValidator interface {
	Validate(ctx context.Context, schemaID string, data map[string]any) (domain.ValidationResult, error)
}

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries ingest events to workers and announces processed
// records to downstream consumers.
type MessageQueue interface {
	PublishIngest(ctx context.Context, event domain.IngestEvent) error
	PublishDocumentProcessed(ctx context.Context, record *domain.DocumentRecord) error
	SubscribeIngest(ctx context.Context, handler func(context.Context, domain.IngestEvent) error) error
}
