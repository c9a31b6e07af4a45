package keyo

import (
	"encoding/json"
	"sort"
	"strings"
)

// FindDetail extracts the most specific human-readable message from an
// upstream error payload. Upstream nests its messages unpredictably, so the
// search is depth-first: at every object a "detail" field is preferred over
// the other values, a detail array contributes its first usable element,
// and a non-empty string wins. Returns "" when the payload carries nothing
// usable (including when it is not JSON at all).
func FindDetail(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var node any
	if err := json.Unmarshal(payload, &node); err != nil {
		return ""
	}
	return findDetail(node)
}

func findDetail(node any) string {
	switch v := node.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for _, item := range v {
			if s := findDetail(item); s != "" {
				return s
			}
		}
	case map[string]any:
		if d, ok := v["detail"]; ok {
			if s := findDetail(d); s != "" {
				return s
			}
		}
		// Deterministic descent over the remaining values.
		keys := make([]string, 0, len(v))
		for k := range v {
			if k != "detail" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s := findDetail(v[k]); s != "" {
				return s
			}
		}
	}
	return ""
}
