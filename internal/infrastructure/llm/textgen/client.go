// Package textgen is the classification client for the external
// text-generation backend. The model is an untrusted, non-deterministic
// collaborator: every output is advisory, parsed heuristically and checked
// against the closed schema-id set before being trusted. Any failure along
// the way degrades to the fallback result; Classify never returns an error.
package textgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxNewTokens int
	Temperature  float64
	// TextLimit caps the document prefix included in the prompt.
	TextLimit int
}

type Client struct {
	baseURL      string
	maxNewTokens int
	temperature  float64
	textLimit    int
	httpClient   *http.Client
	executor     *resilience.Executor
	logger       *slog.Logger
}

func New(cfg Config, executor *resilience.Executor, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxNewTokens := cfg.MaxNewTokens
	if maxNewTokens <= 0 {
		maxNewTokens = 500
	}
	textLimit := cfg.TextLimit
	if textLimit <= 0 {
		textLimit = 2000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxNewTokens: maxNewTokens,
		temperature:  cfg.Temperature,
		textLimit:    textLimit,
		httpClient:   &http.Client{Timeout: timeout},
		executor:     executor,
		logger:       logger,
	}
}

// classificationPayload is the structure expected inside the model's prose.
// Confidence is a pointer so an omitted field can default to 0.5 instead of 0.
type classificationPayload struct {
	SchemaID      string         `json:"schema_id"`
	Confidence    *float64       `json:"confidence"`
	Reasoning     string         `json:"reasoning"`
	ExtractedData map[string]any `json:"extracted_data"`
}

func (c *Client) Classify(ctx context.Context, parsed domain.ParseResult, knownIDs []string) domain.ClassificationResult {
	if parsed.Failed() {
		return fallbackResult(fmt.Sprintf("extraction failed: %s", parsed.Error.Message))
	}

	text := parsed.FullText()
	if strings.TrimSpace(text) == "" {
		// A parsed-but-empty document (no pages, or pages with no text)
		// carries no signal worth a model call.
		return fallbackResult("document contains no extractable text")
	}
	if len(text) > c.textLimit {
		cut := c.textLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	generated, err := c.generate(ctx, buildClassificationPrompt(text, knownIDs))
	if err != nil {
		c.logger.Warn("classification request failed", "error", err)
		return fallbackResult(fmt.Sprintf("classification request failed: %v", err))
	}

	fragment, ok := ExtractFragment(generated)
	if !ok {
		c.logger.Warn("no JSON fragment in model output", "output_len", len(generated))
		return fallbackResult("no JSON fragment found in model output")
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(fragment), &payload); err != nil {
		c.logger.Warn("malformed classification fragment", "error", err)
		return fallbackResult(fmt.Sprintf("malformed classification JSON: %v", err))
	}

	result := domain.ClassificationResult{
		SchemaID:      payload.SchemaID,
		Confidence:    normalizeConfidence(payload.Confidence),
		Reasoning:     payload.Reasoning,
		ExtractedData: payload.ExtractedData,
	}
	if !slices.Contains(knownIDs, result.SchemaID) {
		// The model picked outside the closed set; keep its reasoning but
		// refuse the id.
		result.SchemaID = domain.FallbackSchemaID
	}
	return result
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	request := generateRequest{
		Prompt:       prompt,
		MaxNewTokens: c.maxNewTokens,
		Temperature:  c.temperature,
	}

	var response generateResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", request, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "textgen.generate", call, classifyGenerateError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Text), nil
}

func fallbackResult(reasoning string) domain.ClassificationResult {
	return domain.ClassificationResult{
		SchemaID:   domain.FallbackSchemaID,
		Confidence: 0,
		Reasoning:  reasoning,
	}
}

// normalizeConfidence clamps into [0,1] and defaults an absent value to 0.5.
func normalizeConfidence(confidence *float64) float64 {
	if confidence == nil {
		return 0.5
	}
	switch {
	case *confidence < 0:
		return 0
	case *confidence > 1:
		return 1
	default:
		return *confidence
	}
}
