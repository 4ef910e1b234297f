package catalog

import "strings"

// NameKey is the case-insensitive identity of a name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeNames turns an arbitrary cast/crew value into an ordered list of
// trimmed, non-empty names with case-insensitive duplicates removed. The first
// spelling seen wins. Unsupported input yields an empty slice.
func NormalizeNames(v any) []string {
	var items []string
	switch list := v.(type) {
	case NameList:
		items = list
	case []string:
		items = list
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	default:
		return []string{}
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, raw := range items {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := NameKey(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
