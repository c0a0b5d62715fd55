package util

import "strings"

// FirstString returns the first key of m holding a non-empty string, trimmed.
// Values that are not strings count as missing.
func FirstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		s, ok := m[k].(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// HasAny reports whether any of keys is present in m with a non-null value.
func HasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return true
		}
	}
	return false
}
