package listing

import "strings"

// Page is the wire shape for offset/limit listings.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func NewPage[T any](items []T, total, limit, offset int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Limit: limit, Offset: offset}
}

// SafeOrderBy builds an ORDER BY clause from caller-supplied sort keys,
// accepting only whitelisted fields. A leading '-' means descending. Unknown
// fields are dropped; when nothing survives, fallback is used verbatim.
func SafeOrderBy(sort []string, allowed map[string]string, fallback string) string {
	var parts []string
	for _, key := range sort {
		desc := strings.HasPrefix(key, "-")
		field := strings.TrimPrefix(key, "-")
		col, ok := allowed[field]
		if !ok {
			continue
		}
		if desc {
			parts = append(parts, col+" DESC")
		} else {
			parts = append(parts, col+" ASC")
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}

// ClampLimit keeps limit/offset within sane bounds.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
