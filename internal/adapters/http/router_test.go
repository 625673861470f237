package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docsift/docsift/internal/core/domain"
)

type ingestorFake struct {
	record   *domain.DocumentRecord
	asyncKey string
	err      error
	gotName  string
}

func (f *ingestorFake) Upload(_ context.Context, filename string, _ io.Reader) (*domain.DocumentRecord, error) {
	f.gotName = filename
	return f.record, f.err
}

func (f *ingestorFake) UploadAsync(_ context.Context, filename string, _ io.Reader) (string, error) {
	f.gotName = filename
	return f.asyncKey, f.err
}

type docStoreFake struct {
	records []domain.DocumentRecord
	err     error
	gotID   string
}

func (f *docStoreFake) Append(context.Context, *domain.DocumentRecord) error { return nil }

func (f *docStoreFake) List(_ context.Context, schemaID string) ([]domain.DocumentRecord, error) {
	f.gotID = schemaID
	return f.records, f.err
}

type registryFake struct {
	schemas map[string]domain.Schema
	addErr  error
	delErr  error
}

func (f *registryFake) List(context.Context) ([]domain.SchemaInfo, error) {
	infos := make([]domain.SchemaInfo, 0, len(f.schemas))
	for _, s := range f.schemas {
		infos = append(infos, s.Info())
	}
	return infos, nil
}

func (f *registryFake) Get(_ context.Context, id string) (*domain.Schema, error) {
	s, ok := f.schemas[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSchemaNotFound, "get schema", errors.New(id))
	}
	return &s, nil
}

func (f *registryFake) Add(context.Context, domain.Schema) error    { return f.addErr }
func (f *registryFake) Update(context.Context, domain.Schema) error { return nil }
func (f *registryFake) Delete(context.Context, string) error        { return f.delErr }

type validatorFake struct {
	result domain.ValidationResult
	err    error
}

func (f *validatorFake) Validate(context.Context, string, map[string]any) (domain.ValidationResult, error) {
	return f.result, f.err
}

type reportsFake struct {
	report *domain.Report
	err    error
}

func (f *reportsFake) Report(context.Context, string) (*domain.Report, error) {
	return f.report, f.err
}

type routerFixture struct {
	ingestor  *ingestorFake
	store     *docStoreFake
	registry  *registryFake
	validator *validatorFake
	reports   *reportsFake
}

func newTestRouter(t *testing.T, options RouterOptions) (http.Handler, *routerFixture) {
	t.Helper()
	fx := &routerFixture{
		ingestor:  &ingestorFake{},
		store:     &docStoreFake{},
		registry:  &registryFake{schemas: map[string]domain.Schema{}},
		validator: &validatorFake{},
		reports:   &reportsFake{report: &domain.Report{GeneratedAt: time.Now()}},
	}
	router := NewRouter(fx.ingestor, fx.store, fx.registry, fx.validator, fx.reports, nil, options)
	return router.Handler(), fx
}

func multipartPDF(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4")); err != nil {
		t.Fatalf("part.Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close() error = %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadDocumentReturnsRecord(t *testing.T) {
	handler, fx := newTestRouter(t, RouterOptions{})
	fx.ingestor.record = &domain.DocumentRecord{ClassificationID: "doc-1", SchemaID: "invoice"}

	body, contentType := multipartPDF(t, "invoice.pdf")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", res.Code, res.Body.String())
	}
	if fx.ingestor.gotName != "invoice.pdf" {
		t.Errorf("ingestor received filename %q, want invoice.pdf", fx.ingestor.gotName)
	}
	var record domain.DocumentRecord
	if err := json.NewDecoder(res.Body).Decode(&record); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if record.ClassificationID != "doc-1" {
		t.Errorf("record id = %q, want doc-1", record.ClassificationID)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	handler, _ := newTestRouter(t, RouterOptions{})

	body, contentType := multipartPDF(t, "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.Code)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	handler, _ := newTestRouter(t, RouterOptions{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.Code)
	}
}

func TestUploadAsyncWithoutQueueIs501(t *testing.T) {
	handler, _ := newTestRouter(t, RouterOptions{AsyncEnabled: false})

	body, contentType := multipartPDF(t, "invoice.pdf")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents?mode=async", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", res.Code)
	}
}

func TestUploadAsyncQueuesDocument(t *testing.T) {
	handler, fx := newTestRouter(t, RouterOptions{AsyncEnabled: true})
	fx.ingestor.asyncKey = "abc123_invoice.pdf"

	body, contentType := multipartPDF(t, "invoice.pdf")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents?mode=async", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", res.Code, res.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["storage_key"] != "abc123_invoice.pdf" {
		t.Errorf("storage_key = %q, want abc123_invoice.pdf", resp["storage_key"])
	}
}

func TestListDocumentsPassesSchemaFilter(t *testing.T) {
	handler, fx := newTestRouter(t, RouterOptions{})
	fx.store.records = []domain.DocumentRecord{{ClassificationID: "doc-1", SchemaID: "contract"}}

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?schema_id=contract", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
	if fx.store.gotID != "contract" {
		t.Errorf("store queried with %q, want contract", fx.store.gotID)
	}
}

func TestSchemaErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func(*routerFixture)
		wantStatus int
	}{
		{
			name:       "missing schema is 404",
			method:     http.MethodGet,
			path:       "/v1/schemas/ghost",
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "duplicate id is 409",
			method: http.MethodPost,
			path:   "/v1/schemas",
			body:   `{"id":"invoice","schema":{"type":"object"}}`,
			setup: func(fx *routerFixture) {
				fx.registry.addErr = domain.WrapError(domain.ErrSchemaExists, "add schema", errors.New("invoice"))
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:   "invalid schema body is 422",
			method: http.MethodPost,
			path:   "/v1/schemas",
			body:   `{"id":"bad","schema":{"type":"nope"}}`,
			setup: func(fx *routerFixture) {
				fx.registry.addErr = domain.WrapError(domain.ErrSchemaInvalid, "add schema", errors.New("unknown type"))
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "protected delete is 403",
			method: http.MethodDelete,
			path:   "/v1/schemas/invoice",
			setup: func(fx *routerFixture) {
				fx.registry.delErr = domain.WrapError(domain.ErrSchemaProtected, "delete schema", errors.New("invoice"))
			},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, fx := newTestRouter(t, RouterOptions{})
			if tc.setup != nil {
				tc.setup(fx)
			}

			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, tc.path, body)
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", res.Code, tc.wantStatus, res.Body.String())
			}
		})
	}
}

func TestValidateEndpointReturnsResult(t *testing.T) {
	handler, fx := newTestRouter(t, RouterOptions{})
	fx.validator.result = domain.ValidationResult{IsValid: false, ErrorMessage: "total is required"}

	req := httptest.NewRequest(http.MethodPost, "/v1/schemas/invoice/validate",
		strings.NewReader(`{"data":{"vendor":"acme"}}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
	var result domain.ValidationResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.IsValid || result.ErrorMessage != "total is required" {
		t.Errorf("result = %+v, want invalid with message", result)
	}
}

func TestReportForUnknownSchemaIs404(t *testing.T) {
	handler, fx := newTestRouter(t, RouterOptions{})
	fx.reports.err = domain.WrapError(domain.ErrSchemaNotFound, "report", errors.New("ghost"))

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/ghost", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", res.Code)
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	handler, _ := newTestRouter(t, RouterOptions{RateLimitRPS: 1, RateLimitBurst: 1})

	req1 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	handler, _ := newTestRouter(t, RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Errorf("request id header = %q, want req-42", got)
	}
}
