// Package template resolves {{field.path}} placeholders against event
// payloads and session variables.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.\-]+)\s*\}\}`)

// Lookup resolves a dotted path inside nested string-keyed maps. It returns
// false when any segment is missing or a non-map value is traversed into.
func Lookup(data map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	current := any(data)

	for _, segment := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Render substitutes every {{path}} placeholder in input with the stringified
// value found in data. Unresolvable placeholders are left verbatim so a
// misconfigured template degrades visibly instead of silently dropping text.
func Render(input string, data map[string]any) string {
	if !strings.Contains(input, "{{") {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		path := placeholderPattern.FindStringSubmatch(match)[1]

		value, ok := Lookup(data, path)
		if !ok {
			return match
		}

		return Stringify(value)
	})
}

// RenderParams renders every string value of a params map, leaving non-string
// values untouched. The input map is not mutated.
func RenderParams(params map[string]any, data map[string]any) map[string]any {
	if params == nil {
		return nil
	}

	rendered := make(map[string]any, len(params))

	for key, value := range params {
		if s, ok := value.(string); ok {
			rendered[key] = Render(s, data)

			continue
		}

		rendered[key] = value
	}

	return rendered
}

// Stringify formats a payload value the way placeholders and string
// comparisons expect: floats without a trailing ".000000" when integral.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
