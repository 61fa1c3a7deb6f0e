// Package listing computes the filtered, sorted and summarised views shown
// on list pages. Every call scans the full collection; nothing is indexed.
package listing

import (
	"cmp"
	"slices"
	"strings"
)

// Filter returns the elements of items matching keep, in order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// SortBy stably sorts a copy of items by key.
func SortBy[T any, K cmp.Ordered](items []T, key func(T) K, desc bool) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		c := cmp.Compare(key(a), key(b))
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

func (o Order) desc() bool {
	return strings.EqualFold(string(o), string(Desc))
}

// matches reports whether any field contains q, ignoring case. An empty
// query matches everything.
func matches(q string, fields ...string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func equalOrEmpty(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}
