// Package fileregistry stores document schemas as one JSON-Schema file per
// schema id under a directory. Reads go back to disk every time so the
// listing order survives process restarts, and mutations use
// write-temp-then-rename so a crash mid-write leaves the prior state intact.
package fileregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docsift/docsift/internal/core/domain"
)

var schemaIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

type Registry struct {
	dir       string
	protected map[string]bool

	// Serializes read-modify-write mutations within this process.
	mu sync.Mutex
}

// New opens the registry directory, creating it if needed, and seeds any
// missing predefined schemas. Predefined ids become the protected set and
// cannot be deleted.
func New(dir string, predefined map[string]json.RawMessage) (*Registry, error) {
	if dir == "" {
		dir = "./data/schemas"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create schema dir: %w", err)
	}

	r := &Registry{
		dir:       dir,
		protected: make(map[string]bool, len(predefined)),
	}
	for id, body := range predefined {
		r.protected[id] = true
		path := r.schemaPath(id)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat predefined schema %s: %w", id, err)
		}
		if err := validateSchemaBody(body); err != nil {
			return nil, domain.WrapError(domain.ErrSchemaInvalid, "seed predefined schema "+id, err)
		}
		if err := r.writeAtomic(id, body); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) List(_ context.Context) ([]domain.SchemaInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "read schema dir", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	infos := make([]domain.SchemaInfo, 0, len(names))
	for _, name := range names {
		id := strings.TrimSuffix(name, ".json")
		schema, err := r.load(id)
		if err != nil {
			return nil, err
		}
		infos = append(infos, schema.Info())
	}
	return infos, nil
}

func (r *Registry) Get(_ context.Context, id string) (*domain.Schema, error) {
	return r.load(id)
}

func (r *Registry) Add(_ context.Context, schema domain.Schema) error {
	if !schemaIDPattern.MatchString(schema.ID) {
		return domain.WrapError(domain.ErrInvalidInput, "add schema", fmt.Errorf("invalid schema id %q", schema.ID))
	}
	if err := validateSchemaBody(schema.Body); err != nil {
		return domain.WrapError(domain.ErrSchemaInvalid, "add schema", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.schemaPath(schema.ID)); err == nil {
		return domain.WrapError(domain.ErrSchemaExists, "add schema", fmt.Errorf("schema %q already exists", schema.ID))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return domain.WrapError(domain.ErrPersistence, "add schema", err)
	}
	return r.writeAtomic(schema.ID, schema.Body)
}

// Update fully replaces the stored body.
func (r *Registry) Update(_ context.Context, schema domain.Schema) error {
	if err := validateSchemaBody(schema.Body); err != nil {
		return domain.WrapError(domain.ErrSchemaInvalid, "update schema", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.schemaPath(schema.ID)); errors.Is(err, fs.ErrNotExist) {
		return domain.WrapError(domain.ErrSchemaNotFound, "update schema", fmt.Errorf("schema %q", schema.ID))
	} else if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update schema", err)
	}
	return r.writeAtomic(schema.ID, schema.Body)
}

func (r *Registry) Delete(_ context.Context, id string) error {
	if r.protected[id] {
		return domain.WrapError(domain.ErrSchemaProtected, "delete schema", fmt.Errorf("schema %q is predefined", id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.schemaPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.WrapError(domain.ErrSchemaNotFound, "delete schema", fmt.Errorf("schema %q", id))
	}
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "delete schema", err)
	}
	return nil
}

func (r *Registry) load(id string) (*domain.Schema, error) {
	if !schemaIDPattern.MatchString(id) {
		return nil, domain.WrapError(domain.ErrSchemaNotFound, "load schema", fmt.Errorf("invalid schema id %q", id))
	}

	body, err := os.ReadFile(r.schemaPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.WrapError(domain.ErrSchemaNotFound, "load schema", fmt.Errorf("schema %q", id))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "load schema", err)
	}

	schema := &domain.Schema{
		ID:      id,
		Title:   id,
		Version: "1.0",
		Body:    body,
	}
	var header struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Version     string `json:"version"`
	}
	if err := json.Unmarshal(body, &header); err == nil {
		if header.Title != "" {
			schema.Title = header.Title
		}
		schema.Description = header.Description
		if header.Version != "" {
			schema.Version = header.Version
		}
	}
	return schema, nil
}

func (r *Registry) writeAtomic(id string, body json.RawMessage) error {
	tmp, err := os.CreateTemp(r.dir, ".schema-*.tmp")
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "write schema", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.WrapError(domain.ErrPersistence, "write schema", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.WrapError(domain.ErrPersistence, "write schema", err)
	}
	if err := os.Rename(tmpName, r.schemaPath(id)); err != nil {
		_ = os.Remove(tmpName)
		return domain.WrapError(domain.ErrPersistence, "write schema", err)
	}
	return nil
}

func (r *Registry) schemaPath(id string) string {
	return filepath.Join(r.dir, id+".json")
}

// validateSchemaBody checks the body is itself a structurally well-formed
// JSON Schema (Draft 7) before it is accepted into the registry. Document
// data is not validated here; that happens at validation time.
func validateSchemaBody(body json.RawMessage) error {
	if len(body) == 0 {
		return errors.New("empty schema body")
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource("schema.json", strings.NewReader(string(body))); err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	if _, err := compiler.Compile("schema.json"); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return nil
}
