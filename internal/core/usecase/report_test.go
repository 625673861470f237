package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/docsift/docsift/internal/core/domain"
)

type listStoreStub struct {
	records []domain.DocumentRecord
	err     error
}

func (s *listStoreStub) Append(context.Context, *domain.DocumentRecord) error { return nil }

func (s *listStoreStub) List(context.Context, string) ([]domain.DocumentRecord, error) {
	return s.records, s.err
}

func reportFixture() (*registryStub, *listStoreStub) {
	registry := &registryStub{infos: []domain.SchemaInfo{
		{ID: "invoice", Title: "Invoice"},
		{ID: "receipt", Title: "Receipt"},
	}}
	store := &listStoreStub{records: []domain.DocumentRecord{
		{ClassificationID: "doc-1", SchemaID: "invoice", Confidence: 0.9},
		{ClassificationID: "doc-2", SchemaID: "invoice", Confidence: 0.7},
		{ClassificationID: "doc-3", SchemaID: domain.FallbackSchemaID, Confidence: 0.2},
		{ClassificationID: "doc-4", SchemaID: "deleted-schema", Confidence: 0.5},
	}}
	return registry, store
}

func TestReportCountsUsageIncludingZeroAndUnknown(t *testing.T) {
	registry, store := reportFixture()
	uc := NewReportUseCase(registry, store)

	report, err := uc.Report(context.Background(), "")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.TotalDocuments != 4 {
		t.Errorf("TotalDocuments = %d, want 4", report.TotalDocuments)
	}

	invoice := report.SchemasUsed["invoice"]
	if invoice.Count != 2 || invoice.Title != "Invoice" || invoice.Percentage != 50 {
		t.Errorf("invoice usage = %+v, want count 2, 50%%", invoice)
	}
	receipt := report.SchemasUsed["receipt"]
	if receipt.Count != 0 {
		t.Errorf("receipt usage = %+v, want zero count entry", receipt)
	}
	generic := report.SchemasUsed[domain.FallbackSchemaID]
	if generic.Count != 1 || generic.Title != "Generic" {
		t.Errorf("generic usage = %+v, want count 1 titled Generic", generic)
	}
	unknown := report.SchemasUsed[domain.UnknownSchemaBucket]
	if unknown.Count != 1 || unknown.Title != "Unknown" {
		t.Errorf("unknown usage = %+v, want dangling reference bucket", unknown)
	}
}

func TestReportConfidenceMetrics(t *testing.T) {
	registry, store := reportFixture()
	uc := NewReportUseCase(registry, store)

	report, err := uc.Report(context.Background(), "")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if report.Confidence.Average != 0.57 {
		t.Errorf("Average = %v, want 0.57", report.Confidence.Average)
	}
	// Even-length median averages the two middle values: (0.5+0.7)/2.
	if report.Confidence.Median != 0.6 {
		t.Errorf("Median = %v, want 0.6", report.Confidence.Median)
	}
	invoice := report.Confidence.BySchema["invoice"]
	if invoice.Min != 0.7 || invoice.Max != 0.9 || invoice.Average != 0.8 {
		t.Errorf("invoice stats = %+v, want min 0.7 max 0.9 avg 0.8", invoice)
	}
	if invoice.Median != 0.8 {
		t.Errorf("invoice median = %v, want 0.8", invoice.Median)
	}
}

func TestReportFilteredBySchema(t *testing.T) {
	registry, store := reportFixture()
	uc := NewReportUseCase(registry, store)

	report, err := uc.Report(context.Background(), "invoice")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2", report.TotalDocuments)
	}
	for _, doc := range report.DocumentList {
		if doc.SchemaID != "invoice" {
			t.Errorf("document %s has schema %q, want invoice", doc.ClassificationID, doc.SchemaID)
		}
	}
}

func TestReportRegisteredSchemaWithoutDocumentsIsEmptyNotMissing(t *testing.T) {
	registry, store := reportFixture()
	uc := NewReportUseCase(registry, store)

	report, err := uc.Report(context.Background(), "receipt")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.TotalDocuments != 0 {
		t.Errorf("TotalDocuments = %d, want 0", report.TotalDocuments)
	}
}

func TestReportUnknownSchemaIsNotFound(t *testing.T) {
	registry, store := reportFixture()
	uc := NewReportUseCase(registry, store)

	_, err := uc.Report(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrSchemaNotFound) {
		t.Fatalf("Report() error = %v, want ErrSchemaNotFound", err)
	}
}

func TestReportEmptyStore(t *testing.T) {
	registry, _ := reportFixture()
	uc := NewReportUseCase(registry, &listStoreStub{})

	report, err := uc.Report(context.Background(), "")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.TotalDocuments != 0 {
		t.Errorf("TotalDocuments = %d, want 0", report.TotalDocuments)
	}
	if report.Confidence.Average != 0 {
		t.Errorf("Average = %v, want 0", report.Confidence.Average)
	}
}

func TestReportStoreFailurePropagates(t *testing.T) {
	registry, _ := reportFixture()
	uc := NewReportUseCase(registry, &listStoreStub{err: errors.New("disk gone")})

	if _, err := uc.Report(context.Background(), ""); err == nil {
		t.Error("Report() succeeded, want error")
	}
}
