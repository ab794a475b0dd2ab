package records

import "plantkeeper/internal/types"

// MergeByID returns a new list with incoming first, followed by current minus
// any entry sharing incoming's id. current is not modified.
func MergeByID[T types.Record](current []T, incoming T) []T {
	out := make([]T, 0, len(current)+1)
	out = append(out, incoming)
	for _, rec := range current {
		if rec.RecordID() != incoming.RecordID() {
			out = append(out, rec)
		}
	}
	return out
}

// RemoveByID returns a new list without entries whose id is id.
func RemoveByID[T types.Record](current []T, id string) []T {
	out := make([]T, 0, len(current))
	for _, rec := range current {
		if rec.RecordID() != id {
			out = append(out, rec)
		}
	}
	return out
}

// Filter returns the records matching keep, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
