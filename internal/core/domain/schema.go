package domain

import "encoding/json"

// Schema is a named JSON-Schema document describing one document type.
// Body holds the raw JSON-Schema payload; Title, Description and Version are
// derived from the body's top-level keys when present.
type Schema struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Version     string          `json:"version"`
	Body        json.RawMessage `json:"body"`
}

// SchemaInfo is the listing projection of a Schema.
type SchemaInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

func (s Schema) Info() SchemaInfo {
	return SchemaInfo{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Version:     s.Version,
	}
}
