package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
	"github.com/docsift/docsift/internal/export"
)

type Router struct {
	ingestor  ports.DocumentIngestor
	store     ports.DocumentStore
	registry  ports.SchemaRegistry
	validator ports.DataValidator
	reports   ports.ReportProvider
	exporter  *export.Service

	uploadMaxBytes int64
	asyncEnabled   bool
	rateLimitRPS   float64
	rateLimitBurst int
}

type RouterOptions struct {
	UploadMaxBytes int64
	AsyncEnabled   bool
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	store ports.DocumentStore,
	registry ports.SchemaRegistry,
	validator ports.DataValidator,
	reports ports.ReportProvider,
	exporter *export.Service,
	options RouterOptions,
) *Router {
	if options.UploadMaxBytes <= 0 {
		options.UploadMaxBytes = 20 << 20
	}
	return &Router{
		ingestor:       ingestor,
		store:          store,
		registry:       registry,
		validator:      validator,
		reports:        reports,
		exporter:       exporter,
		uploadMaxBytes: options.UploadMaxBytes,
		asyncEnabled:   options.AsyncEnabled,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/schemas", rt.schemas)
	mux.HandleFunc("/v1/schemas/", rt.schemaByID)
	mux.HandleFunc("/v1/reports", rt.report)
	mux.HandleFunc("/v1/reports/", rt.reportSub)

	var handler http.Handler = mux
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.uploadMaxBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(strings.TrimSpace(filepathExt(fileHeader.Filename)), ".pdf") {
		writeError(w, http.StatusBadRequest, "only .pdf uploads are accepted")
		return
	}

	if r.URL.Query().Get("mode") == "async" {
		if !rt.asyncEnabled {
			writeError(w, http.StatusNotImplemented, "async processing is not configured")
			return
		}
		key, err := rt.ingestor.UploadAsync(r.Context(), fileHeader.Filename, file)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":      "queued",
			"storage_key": key,
		})
		return
	}

	record, err := rt.ingestor.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	records, err := rt.store.List(r.Context(), r.URL.Query().Get("schema_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": records,
		"count":     len(records),
	})
}

func (rt *Router) schemas(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		infos, err := rt.registry.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schemas": infos, "count": len(infos)})
	case http.MethodPost:
		schema, ok := decodeSchema(w, r, "")
		if !ok {
			return
		}
		if err := rt.registry.Add(r.Context(), schema); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, schema.Info())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) schemaByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/schemas/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "schema id is required")
		return
	}

	if id, found := strings.CutSuffix(rest, "/validate"); found {
		rt.validateData(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		schema, err := rt.registry.Get(r.Context(), rest)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, schema)
	case http.MethodPut:
		schema, ok := decodeSchema(w, r, rest)
		if !ok {
			return
		}
		if err := rt.registry.Update(r.Context(), schema); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, schema.Info())
	case http.MethodDelete:
		if err := rt.registry.Delete(r.Context(), rest); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) validateData(w http.ResponseWriter, r *http.Request, schemaID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if schemaID == "" {
		writeError(w, http.StatusBadRequest, "schema id is required")
		return
	}

	var req struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, "data object is required")
		return
	}

	result, err := rt.validator.Validate(r.Context(), schemaID, req.Data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rt.serveReport(w, r, "")
}

func (rt *Router) reportSub(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	if rest == "export" {
		rt.exportReport(w, r)
		return
	}
	if rest == "" {
		writeError(w, http.StatusBadRequest, "schema id is required")
		return
	}
	rt.serveReport(w, r, rest)
}

func (rt *Router) serveReport(w http.ResponseWriter, r *http.Request, schemaID string) {
	report, err := rt.reports.Report(r.Context(), schemaID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) exportReport(w http.ResponseWriter, r *http.Request) {
	if rt.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}

	raw, err := rt.exporter.ExportRecordsXLSX(r.Context(), r.URL.Query().Get("schema_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// decodeSchema reads a schema payload from the request body. pathID, when
// non-empty, pins the schema id to the URL path segment.
func decodeSchema(w http.ResponseWriter, r *http.Request, pathID string) (domain.Schema, bool) {
	var req struct {
		ID     string          `json:"id"`
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return domain.Schema{}, false
	}
	if pathID != "" {
		req.ID = pathID
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "schema id is required")
		return domain.Schema{}, false
	}
	if len(req.Schema) == 0 {
		writeError(w, http.StatusBadRequest, "schema body is required")
		return domain.Schema{}, false
	}
	return domain.Schema{ID: req.ID, Body: req.Schema}, true
}

func filepathExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, mapErrorToHTTPStatus(err), fmt.Sprintf("%v", err))
}
