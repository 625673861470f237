// Package filestore keeps all document records in a single JSON collection
// file. Every read reloads from disk and every append is a serialized
// read-modify-write finished with an atomic rename, which closes the
// last-writer-wins race between concurrent uploads within a process.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/docsift/docsift/internal/core/domain"
)

type Store struct {
	path string

	mu sync.Mutex
}

func New(path string) (*Store, error) {
	if path == "" {
		path = "./data/documents.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create docstore dir: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) Append(_ context.Context, record *domain.DocumentRecord) error {
	if record == nil {
		return domain.WrapError(domain.ErrInvalidInput, "append record", errors.New("nil record"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return err
	}
	records = append(records, *record)
	return s.writeLocked(records)
}

func (s *Store) List(_ context.Context, schemaID string) ([]domain.DocumentRecord, error) {
	s.mu.Lock()
	records, err := s.loadLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if schemaID == "" {
		return records, nil
	}
	filtered := make([]domain.DocumentRecord, 0, len(records))
	for _, record := range records {
		if record.SchemaID == schemaID {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

func (s *Store) loadLocked() ([]domain.DocumentRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.DocumentRecord{}, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "read document collection", err)
	}
	if len(raw) == 0 {
		return []domain.DocumentRecord{}, nil
	}

	var records []domain.DocumentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "decode document collection", err)
	}
	return records, nil
}

func (s *Store) writeLocked(records []domain.DocumentRecord) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "encode document collection", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".documents-*.tmp")
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "write document collection", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.WrapError(domain.ErrPersistence, "write document collection", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.WrapError(domain.ErrPersistence, "write document collection", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return domain.WrapError(domain.ErrPersistence, "write document collection", err)
	}
	return nil
}
