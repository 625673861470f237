package domain

import "time"

// FallbackSchemaID is the sentinel assigned when classification cannot
// resolve a document to any registered schema.
const FallbackSchemaID = "generic"

type PageContent struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	Length     int    `json:"length"`
}

type ParseMetadata struct {
	Filename   string    `json:"filename"`
	ParsedAt   time.Time `json:"parsed_at"`
	TotalPages int       `json:"total_pages"`
}

type ParsedContent struct {
	Metadata ParseMetadata `json:"metadata"`
	Pages    []PageContent `json:"pages"`
}

type ExtractionError struct {
	Kind    string `json:"error_kind"`
	Message string `json:"message"`
}

// ParseResult carries either extracted content or the extraction failure.
// Exactly one of the two fields is set; downstream stages must check Failed
// instead of assuming content exists.
type ParseResult struct {
	Content *ParsedContent   `json:"content,omitempty"`
	Error   *ExtractionError `json:"error,omitempty"`
}

func (r ParseResult) Failed() bool {
	return r.Error != nil
}

// FullText concatenates page texts in page order. Empty on failed parses.
func (r ParseResult) FullText() string {
	if r.Content == nil {
		return ""
	}
	var out string
	for i, page := range r.Content.Pages {
		if i > 0 {
			out += " "
		}
		out += page.Text
	}
	return out
}

type ClassificationResult struct {
	SchemaID      string         `json:"schema_id"`
	Confidence    float64        `json:"confidence"`
	Reasoning     string         `json:"reasoning"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
}

type ValidationResult struct {
	IsValid      bool   `json:"is_valid"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// DocumentRecord is the persisted outcome of one upload. Immutable once
// appended; identified by ClassificationID.
type DocumentRecord struct {
	ClassificationID string                `json:"classification_id"`
	Filename         string                `json:"filename"`
	SchemaID         string                `json:"schema_id"`
	ProcessedAt      time.Time             `json:"processed_at"`
	ParsedContent    ParseResult           `json:"parsed_content"`
	Classification   *ClassificationResult `json:"classification"`
	Validation       *ValidationResult     `json:"validation"`
	Confidence       float64               `json:"confidence"`
}

// IngestEvent is the queue payload for asynchronous processing of an
// already-stored upload.
type IngestEvent struct {
	StorageKey string `json:"storage_key"`
	Filename   string `json:"filename"`
}
