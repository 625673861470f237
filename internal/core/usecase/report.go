package usecase

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
)

// ReportUseCase aggregates processed records for the reporting surface.
// Records pointing at schemas that were deleted after processing are counted
// under the unknown bucket instead of failing the report.
type ReportUseCase struct {
	registry ports.SchemaRegistry
	store    ports.DocumentStore
}

func NewReportUseCase(registry ports.SchemaRegistry, store ports.DocumentStore) *ReportUseCase {
	return &ReportUseCase{registry: registry, store: store}
}

func (uc *ReportUseCase) Report(ctx context.Context, schemaID string) (*domain.Report, error) {
	documents, err := uc.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list document records: %w", err)
	}
	schemas, err := uc.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	usage := schemaUsage(documents, schemas)

	if schemaID != "" {
		filtered := make([]domain.DocumentRecord, 0, len(documents))
		for _, doc := range documents {
			if doc.SchemaID == schemaID {
				filtered = append(filtered, doc)
			}
		}
		if len(filtered) == 0 && !schemaRegistered(schemas, schemaID) {
			return nil, domain.WrapError(domain.ErrSchemaNotFound, "schema report", fmt.Errorf("no documents for schema %q", schemaID))
		}
		documents = filtered
	}

	return &domain.Report{
		GeneratedAt:    time.Now().UTC(),
		SchemaID:       schemaID,
		TotalDocuments: len(documents),
		SchemasUsed:    usage,
		Confidence:     confidenceMetrics(documents),
		DocumentList:   documents,
	}, nil
}

// schemaUsage counts documents per schema including registered schemas with
// zero documents and an unknown bucket for dangling references.
func schemaUsage(documents []domain.DocumentRecord, schemas []domain.SchemaInfo) map[string]domain.SchemaUsage {
	counts := make(map[string]int)
	for _, doc := range documents {
		counts[doc.SchemaID]++
	}

	total := len(documents)
	usage := make(map[string]domain.SchemaUsage, len(schemas)+1)
	for _, schema := range schemas {
		usage[schema.ID] = domain.SchemaUsage{
			Title:      schema.Title,
			Count:      counts[schema.ID],
			Percentage: percentage(counts[schema.ID], total),
		}
		delete(counts, schema.ID)
	}

	unknown := 0
	for id, count := range counts {
		if id == domain.FallbackSchemaID {
			usage[domain.FallbackSchemaID] = domain.SchemaUsage{
				Title:      "Generic",
				Count:      count,
				Percentage: percentage(count, total),
			}
			continue
		}
		unknown += count
	}
	if unknown > 0 {
		usage[domain.UnknownSchemaBucket] = domain.SchemaUsage{
			Title:      "Unknown",
			Count:      unknown,
			Percentage: percentage(unknown, total),
		}
	}
	return usage
}

func confidenceMetrics(documents []domain.DocumentRecord) domain.ConfidenceMetrics {
	if len(documents) == 0 {
		return domain.ConfidenceMetrics{}
	}

	bySchema := make(map[string][]float64)
	all := make([]float64, 0, len(documents))
	for _, doc := range documents {
		all = append(all, doc.Confidence)
		bySchema[doc.SchemaID] = append(bySchema[doc.SchemaID], doc.Confidence)
	}

	stats := make(map[string]domain.ConfidenceStats, len(bySchema))
	for id, values := range bySchema {
		stats[id] = domain.ConfidenceStats{
			Average: round2(mean(values)),
			Median:  round2(median(values)),
			Min:     round2(slices.Min(values)),
			Max:     round2(slices.Max(values)),
		}
	}

	return domain.ConfidenceMetrics{
		Average:  round2(mean(all)),
		Median:   round2(median(all)),
		BySchema: stats,
	}
}

func schemaRegistered(schemas []domain.SchemaInfo, id string) bool {
	for _, schema := range schemas {
		if schema.ID == id {
			return true
		}
	}
	return false
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
