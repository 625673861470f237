package textgen

import (
	"fmt"
	"strings"

	"github.com/docsift/docsift/internal/core/domain"
)

func buildClassificationPrompt(text string, knownIDs []string) string {
	ids := strings.Join(knownIDs, ", ")
	if ids == "" {
		ids = domain.FallbackSchemaID
	}

	return fmt.Sprintf(`Analyze the following document text and determine its type.
Possible document types are: %s.
If you cannot confidently match the document to any of these types,
return %q as the schema_id.

Document text:
%s

Provide a JSON response with the following keys:
schema_id (string), confidence (number from 0 to 1), reasoning (string),
extracted_data (object with the fields you found).
Respond ONLY with the valid JSON, no additional text.`, ids, domain.FallbackSchemaID, text)
}
