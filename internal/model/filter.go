package model

import "strings"

// FilterAll matches every status.
const FilterAll = "all"

// Filter is the list predicate used by the board: a status selection plus a
// free-text search over name, description and location.
type Filter struct {
	Status string
	Search string
}

// Match reports whether it passes the filter. Missing text fields are treated
// as empty strings.
func (f Filter) Match(it Item) bool {
	status := strings.ToLower(strings.TrimSpace(f.Status))
	if status != "" && status != FilterAll && string(it.Status) != status {
		return false
	}

	q := strings.ToLower(f.Search)
	if q == "" {
		return true
	}

	var description string
	if it.Description != nil {
		description = *it.Description
	}
	for _, field := range []string{it.Name, description, it.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Apply returns the items that pass the filter, preserving order.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}
