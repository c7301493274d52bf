package domain

import "sort"

// UniqueCategories returns the distinct non-empty categories in lexicographic order.
func UniqueCategories(quotes []Quote) []string {
	set := make(map[string]struct{})
	for _, q := range quotes {
		if q.Category != "" {
			set[q.Category] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}

	sort.Strings(out)

	return out
}

// FilterByCategory returns the quotes in category; CategoryAll or "" returns everything.
func FilterByCategory(quotes []Quote, category string) []Quote {
	if category == "" || category == CategoryAll {
		return quotes
	}

	pool := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Category == category {
			pool = append(pool, q)
		}
	}

	return pool
}

// Picker returns an index in [0, n). math/rand/v2's IntN satisfies it.
type Picker func(n int) int

// PickRandom selects uniformly among the quotes matching filter.
// It returns false when the filtered pool is empty; that is not an error.
func PickRandom(quotes []Quote, filter string, pick Picker) (Quote, bool) {
	pool := FilterByCategory(quotes, filter)
	if len(pool) == 0 {
		return Quote{}, false
	}

	return pool[pick(len(pool))], true
}

// HasCategory reports whether any quote belongs to category.
func HasCategory(quotes []Quote, category string) bool {
	for _, q := range quotes {
		if q.Category == category {
			return true
		}
	}

	return false
}
