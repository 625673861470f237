package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
	"github.com/docsift/docsift/internal/observability/metrics"
)

// ClassificationPipeline turns stored PDF bytes into a schema-tagged,
// confidence-scored, optionally field-validated record.
//
// Stage failures degrade instead of aborting: extraction and classification
// problems are recorded inline in the resulting record, and every upload
// yields exactly one persisted record. Only store-append failures propagate,
// since silent data loss is not acceptable. No stage runs more than once.
type ClassificationPipeline struct {
	registry   ports.SchemaRegistry
	storage    ports.ObjectStorage
	extractor  ports.PageExtractor
	classifier ports.DocumentClassifier
	validator  ports.DataValidator
	store      ports.DocumentStore
	queue      ports.MessageQueue
	metrics    *metrics.PipelineMetrics
	logger     *slog.Logger
}

// NewClassificationPipeline wires the pipeline. queue and pipelineMetrics
// are optional; a nil queue skips the processed-event publish and nil
// metrics skip instrumentation.
func NewClassificationPipeline(
	registry ports.SchemaRegistry,
	storage ports.ObjectStorage,
	extractor ports.PageExtractor,
	classifier ports.DocumentClassifier,
	validator ports.DataValidator,
	store ports.DocumentStore,
	queue ports.MessageQueue,
	pipelineMetrics *metrics.PipelineMetrics,
	logger *slog.Logger,
) *ClassificationPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassificationPipeline{
		registry:   registry,
		storage:    storage,
		extractor:  extractor,
		classifier: classifier,
		validator:  validator,
		store:      store,
		queue:      queue,
		metrics:    pipelineMetrics,
		logger:     logger,
	}
}

func (p *ClassificationPipeline) Process(ctx context.Context, originalFilename, storageKey string) (*domain.DocumentRecord, error) {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.StartDocument()
	}

	parsed := p.extract(ctx, originalFilename, storageKey)
	knownIDs := p.knownSchemaIDs(ctx)
	classification := p.classify(ctx, parsed, knownIDs)
	schemaID := resolveSchemaID(classification, knownIDs)
	validation := p.validate(ctx, schemaID, classification)

	record := &domain.DocumentRecord{
		ClassificationID: "doc-" + uuid.NewString(),
		Filename:         originalFilename,
		SchemaID:         schemaID,
		ProcessedAt:      time.Now().UTC(),
		ParsedContent:    parsed,
		Classification:   classification,
		Validation:       validation,
		Confidence:       recordConfidence(classification),
	}

	if err := p.store.Append(ctx, record); err != nil {
		if p.metrics != nil {
			p.metrics.FinishDocument(time.Since(start), err)
		}
		return nil, domain.WrapError(domain.ErrPersistence, "append document record", err)
	}

	p.publishProcessed(ctx, record)

	if p.metrics != nil {
		p.metrics.FinishDocument(time.Since(start), nil)
	}
	p.logger.Info("document_processed",
		"classification_id", record.ClassificationID,
		"filename", record.Filename,
		"schema_id", record.SchemaID,
		"confidence", record.Confidence,
		"extraction_failed", parsed.Failed(),
	)
	return record, nil
}

func (p *ClassificationPipeline) extract(ctx context.Context, originalFilename, storageKey string) domain.ParseResult {
	reader, err := p.storage.Open(ctx, storageKey)
	if err != nil {
		return domain.ParseResult{Error: &domain.ExtractionError{
			Kind:    "read",
			Message: fmt.Sprintf("open stored document: %v", err),
		}}
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return domain.ParseResult{Error: &domain.ExtractionError{
			Kind:    "read",
			Message: fmt.Sprintf("read stored document: %v", err),
		}}
	}
	return p.extractor.Extract(ctx, originalFilename, data)
}

func (p *ClassificationPipeline) knownSchemaIDs(ctx context.Context) []string {
	infos, err := p.registry.List(ctx)
	if err != nil {
		p.logger.Error("list schemas for classification", "error", err)
		return nil
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	return ids
}

// classify shields the pipeline from classifier implementation faults: a
// panic degrades to a nil classification rather than failing the upload.
func (p *ClassificationPipeline) classify(ctx context.Context, parsed domain.ParseResult, knownIDs []string) (result *domain.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("classifier panic", "panic", r)
			if p.metrics != nil {
				p.metrics.ClassificationFallback()
			}
			result = nil
		}
	}()

	cls := p.classifier.Classify(ctx, parsed, knownIDs)
	if p.metrics != nil && cls.SchemaID == domain.FallbackSchemaID {
		p.metrics.ClassificationFallback()
	}
	return &cls
}

// validate runs only when the classifier produced field data. A present but
// empty mapping is still validated; a nil mapping skips validation entirely.
func (p *ClassificationPipeline) validate(ctx context.Context, schemaID string, classification *domain.ClassificationResult) *domain.ValidationResult {
	if classification == nil || classification.ExtractedData == nil {
		return nil
	}

	result, err := p.validator.Validate(ctx, schemaID, classification.ExtractedData)
	if err != nil {
		p.logger.Error("validate extracted data", "schema_id", schemaID, "error", err)
		return nil
	}
	return &result
}

func (p *ClassificationPipeline) publishProcessed(ctx context.Context, record *domain.DocumentRecord) {
	if p.queue == nil {
		return
	}
	if err := p.queue.PublishDocumentProcessed(ctx, record); err != nil {
		p.logger.Warn("publish processed event", "classification_id", record.ClassificationID, "error", err)
	}
}

// resolveSchemaID prefers the classifier's choice when it is a known id or
// the fallback sentinel, then the first registered schema, then the sentinel.
func resolveSchemaID(classification *domain.ClassificationResult, knownIDs []string) string {
	if classification != nil {
		id := classification.SchemaID
		if id == domain.FallbackSchemaID || slices.Contains(knownIDs, id) {
			return id
		}
	}
	if len(knownIDs) > 0 {
		return knownIDs[0]
	}
	return domain.FallbackSchemaID
}

func recordConfidence(classification *domain.ClassificationResult) float64 {
	if classification == nil {
		return 0
	}
	return classification.Confidence
}
