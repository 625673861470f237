package textgen

// ExtractFragment locates the first balanced {...} span in free-form model
// output. Classification output is unstructured prose wrapping a JSON-like
// fragment; this scan is string- and escape-aware so braces inside JSON
// strings do not unbalance the span. Kept as a standalone pure function so
// it can be exercised against adversarial outputs independently of the
// network path.
func ExtractFragment(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
