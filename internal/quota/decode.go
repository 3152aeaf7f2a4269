// Package quota implements the quota normalization and view engine: it
// turns heterogeneous provider responses fetched through the CPA management
// API into uniform, renderable summaries.
package quota

import (
	"encoding/json"
	"strings"
)

// The upstream bodies mix camelCase and snake_case field names and omit
// optional objects freely. These helpers decode out of map[string]any with
// explicit fallback chains and explicit "absent" results instead of loose
// truthiness checks.

// asObject returns v as a JSON object. A string value is JSON-parsed first;
// anything else yields nil.
func asObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err == nil {
			return m
		}
		return nil
	default:
		return nil
	}
}

// objField returns the first nested object found under any of the keys.
func objField(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if o, ok := m[k].(map[string]any); ok {
			return o
		}
	}
	return nil
}

// strField returns the first non-empty trimmed string under any of the keys.
func strField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

// numField returns the first numeric value under any of the keys.
func numField(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := m[k].(float64); ok {
			return n, true
		}
	}
	return 0, false
}

// anyField returns the first non-nil value under any of the keys.
func anyField(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// sliceField returns the first array value under any of the keys.
func sliceField(m map[string]any, keys ...string) []any {
	for _, k := range keys {
		if s, ok := m[k].([]any); ok {
			return s
		}
	}
	return nil
}

// boolField returns the boolean value under the key, defaulting to false.
func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
