package domain

import "time"

// UnknownSchemaBucket groups records whose schema_id no longer resolves in
// the registry. Dangling references are tolerated at read time rather than
// treated as errors.
const UnknownSchemaBucket = "unknown"

type SchemaUsage struct {
	Title      string  `json:"title"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type ConfidenceStats struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type ConfidenceMetrics struct {
	Average  float64                    `json:"average"`
	Median   float64                    `json:"median"`
	BySchema map[string]ConfidenceStats `json:"by_schema,omitempty"`
}

type Report struct {
	GeneratedAt    time.Time              `json:"generated_at"`
	SchemaID       string                 `json:"schema_id,omitempty"`
	TotalDocuments int                    `json:"total_documents"`
	SchemasUsed    map[string]SchemaUsage `json:"schemas_used"`
	Confidence     ConfidenceMetrics      `json:"confidence_metrics"`
	DocumentList   []DocumentRecord       `json:"document_list"`
}
