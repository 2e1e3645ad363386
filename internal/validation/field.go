package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/camelcase"
)

// ErrInvalidArgument is wrapped by every field normalization failure.
var ErrInvalidArgument = errors.New("invalid argument")

// ParseJSONField normalizes a mapping field. A map is kept as-is, a string
// is decoded as a JSON object, anything else is rejected. The JSON literal
// "null" decodes to a nil map, which is what ToDict emits for a nil map.
func ParseJSONField(field string, value any) (map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("%w: %s field must be a JSON encoded string or a map: %v", ErrInvalidArgument, field, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %s field must be a JSON encoded string or a map, got %T", ErrInvalidArgument, field, value)
	}
}

// Decamelize turns a camelCase key into snake_case. Keys that are already
// snake_case come back unchanged.
func Decamelize(key string) string {
	words := make([]string, 0, 4)
	for _, part := range camelcase.Split(key) {
		if strings.Trim(part, "_") == "" {
			continue
		}
		if isDigits(part) && len(words) > 0 {
			words[len(words)-1] += part
			continue
		}
		words = append(words, strings.ToLower(part))
	}
	return strings.Join(words, "_")
}

// DecamelizeKeys renames the top-level keys of an object. Values, including
// nested objects, are left untouched.
func DecamelizeKeys[V any](fields map[string]V) map[string]V {
	out := make(map[string]V, len(fields))
	for k, v := range fields {
		out[Decamelize(k)] = v
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
