// Package jsonschema validates extracted field data against a registered
// schema body using Draft 7 semantics.
package jsonschema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	schemalib "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
)

type Validator struct {
	registry ports.SchemaRegistry
}

func NewValidator(registry ports.SchemaRegistry) *Validator {
	return &Validator{registry: registry}
}

// Validate checks data against the schema's body. A missing schema yields an
// invalid result rather than an error; the error return is reserved for
// registry read failures. For identical inputs and registry state the result
// is identical.
func (v *Validator) Validate(ctx context.Context, schemaID string, data map[string]any) (domain.ValidationResult, error) {
	schema, err := v.registry.Get(ctx, schemaID)
	if err != nil {
		if domain.IsKind(err, domain.ErrSchemaNotFound) {
			return domain.ValidationResult{
				IsValid:      false,
				ErrorMessage: fmt.Sprintf("schema not found: %s", schemaID),
			}, nil
		}
		return domain.ValidationResult{}, fmt.Errorf("load schema %s: %w", schemaID, err)
	}

	compiled, err := compile(schema.Body)
	if err != nil {
		// A stored body that no longer compiles reads as a validation
		// failure, not an infrastructure error.
		return domain.ValidationResult{
			IsValid:      false,
			ErrorMessage: fmt.Sprintf("schema %s does not compile: %v", schemaID, err),
		}, nil
	}

	// Round-trip through JSON so numbers and nested values take the shapes
	// the validator expects.
	normalized, err := normalize(data)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("normalize document data: %w", err)
	}

	if err := compiled.Validate(normalized); err != nil {
		return domain.ValidationResult{
			IsValid:      false,
			ErrorMessage: firstValidationMessage(err),
		}, nil
	}
	return domain.ValidationResult{IsValid: true}, nil
}

func compile(body json.RawMessage) (*schemalib.Schema, error) {
	compiler := schemalib.NewCompiler()
	compiler.Draft = schemalib.Draft7
	if err := compiler.AddResource("schema.json", strings.NewReader(string(body))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func normalize(data map[string]any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// firstValidationMessage digs out the most specific leaf cause so callers
// see "missing properties: 'total'" instead of the generic root message.
func firstValidationMessage(err error) string {
	var valErr *schemalib.ValidationError
	if !errors.As(err, &valErr) {
		return err.Error()
	}
	leaf := valErr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	if loc := strings.TrimPrefix(leaf.InstanceLocation, "/"); loc != "" {
		return fmt.Sprintf("%s: %s", loc, leaf.Message)
	}
	return leaf.Message
}
