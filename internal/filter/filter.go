// Package filter implements the case-insensitive substring search used by
// every list view over data that has already been fetched.
package filter

import "strings"

type Searchable interface {
	SearchFields() []string
}

func Filter[T Searchable](items []T, term string) []T {
	return By(items, term, func(it T) []string { return it.SearchFields() })
}

// By keeps the items for which any of fields(item) contains term. A blank
// term returns items unchanged.
func By[T any](items []T, term string, fields func(T) []string) []T {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
