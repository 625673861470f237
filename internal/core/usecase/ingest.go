package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
)

// IngestDocumentUseCase stores upload bytes and either runs the pipeline
// synchronously or hands the work to a queue consumer.
type IngestDocumentUseCase struct {
	storage   ports.ObjectStorage
	processor ports.DocumentProcessor
	queue     ports.MessageQueue
}

func NewIngestDocumentUseCase(
	storage ports.ObjectStorage,
	processor ports.DocumentProcessor,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		storage:   storage,
		processor: processor,
		queue:     queue,
	}
}

func (uc *IngestDocumentUseCase) Upload(ctx context.Context, filename string, body io.Reader) (*domain.DocumentRecord, error) {
	storageKey, err := uc.save(ctx, filename, body)
	if err != nil {
		return nil, err
	}
	return uc.processor.Process(ctx, filename, storageKey)
}

// UploadAsync stores the bytes and enqueues an ingest event for the worker.
// Requires a configured queue.
func (uc *IngestDocumentUseCase) UploadAsync(ctx context.Context, filename string, body io.Reader) (string, error) {
	if uc.queue == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "async upload", fmt.Errorf("no message queue configured"))
	}

	storageKey, err := uc.save(ctx, filename, body)
	if err != nil {
		return "", err
	}

	event := domain.IngestEvent{StorageKey: storageKey, Filename: filename}
	if err := uc.queue.PublishIngest(ctx, event); err != nil {
		return "", fmt.Errorf("publish ingest event: %w", err)
	}
	return storageKey, nil
}

func (uc *IngestDocumentUseCase) save(ctx context.Context, filename string, body io.Reader) (string, error) {
	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(filename))
	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return "", domain.WrapError(domain.ErrPersistence, "save upload", err)
	}
	return storageKey, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.pdf"
	}
	return base
}
