package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docsift/docsift/internal/core/domain"
)

type storeFake struct {
	records []domain.DocumentRecord
	err     error
	gotID   string
}

func (s *storeFake) Append(context.Context, *domain.DocumentRecord) error { return nil }

func (s *storeFake) List(_ context.Context, schemaID string) ([]domain.DocumentRecord, error) {
	s.gotID = schemaID
	return s.records, s.err
}

func TestExportWritesRecordRows(t *testing.T) {
	store := &storeFake{records: []domain.DocumentRecord{
		{
			ClassificationID: "doc-1",
			Filename:         "invoice.pdf",
			SchemaID:         "invoice",
			Confidence:       0.92,
			ProcessedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			ParsedContent: domain.ParseResult{
				Content: &domain.ParsedContent{
					Metadata: domain.ParseMetadata{TotalPages: 3},
				},
			},
			Validation: &domain.ValidationResult{IsValid: false, ErrorMessage: "missing total"},
		},
	}}
	svc := NewService(store, nil)

	raw, err := svc.ExportRecordsXLSX(context.Background(), "invoice")
	if err != nil {
		t.Fatalf("ExportRecordsXLSX() error = %v", err)
	}
	if store.gotID != "invoice" {
		t.Errorf("store queried with schema %q, want invoice", store.gotID)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Documents")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("workbook has %d rows, want header + 1 record", len(rows))
	}
	if rows[0][0] != "Processed At" {
		t.Errorf("header[0] = %q, want Processed At", rows[0][0])
	}
	record := rows[1]
	if record[1] != "doc-1" || record[2] != "invoice.pdf" || record[3] != "invoice" {
		t.Errorf("record row = %v, want doc-1/invoice.pdf/invoice", record)
	}
	if record[6] != "no" || record[7] != "missing total" {
		t.Errorf("validation columns = %v, want no/missing total", record[6:])
	}
}

func TestExportEmptyStoreHasOnlyHeader(t *testing.T) {
	svc := NewService(&storeFake{}, nil)

	raw, err := svc.ExportRecordsXLSX(context.Background(), "")
	if err != nil {
		t.Fatalf("ExportRecordsXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Documents")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("workbook has %d rows, want header only", len(rows))
	}
}

func TestExportPropagatesStoreFailure(t *testing.T) {
	svc := NewService(&storeFake{err: errors.New("disk gone")}, nil)

	if _, err := svc.ExportRecordsXLSX(context.Background(), ""); err == nil {
		t.Error("ExportRecordsXLSX() succeeded, want error")
	}
}
