// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"strings"
)

const (
	// DefaultCategory is applied to sanitized records whose category is blank.
	DefaultCategory = "General"

	// CategoryAll is the filter sentinel that bypasses category filtering.
	CategoryAll = "all"

	// ServerCategory is the category assigned to records obtained from the remote source.
	ServerCategory = "Server"
)

// Quote is a single record: a piece of text and the category it belongs to.
// The pair is the record; there is no separate identifier.
type Quote struct {
	// Text is the quotation itself. Never empty once inside a store.
	Text string `json:"text"`

	// Category groups quotes for filtering.
	Category string `json:"category"`
}

// String renders the quote the way it is shown to readers.
func (q Quote) String() string {
	return fmt.Sprintf("%q (%s)", q.Text, q.Category)
}

// NewQuote validates caller input for a new quote.
// Both fields are trimmed and must be non-empty; no default category is applied here.
func NewQuote(text, category string) (Quote, error) {
	text = strings.TrimSpace(text)
	category = strings.TrimSpace(category)

	if text == "" {
		return Quote{}, NewValidationError("text", "must not be empty")
	}

	if category == "" {
		return Quote{}, NewValidationError("category", "must not be empty")
	}

	return Quote{Text: text, Category: category}, nil
}

// RawRecord is untyped input from an import file or the remote source.
// It must pass through SanitizeRaw before it can enter a store.
type RawRecord = map[string]any

// SanitizeRaw converts untyped records into quotes.
// Non-object entries and entries whose text trims to empty are dropped;
// a blank category becomes DefaultCategory.
func SanitizeRaw(items []any) []Quote {
	out := make([]Quote, 0, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok || obj == nil {
			continue
		}

		if q, ok := sanitize(stringify(obj["text"]), stringify(obj["category"])); ok {
			out = append(out, q)
		}
	}

	return out
}

// SanitizeRecords is SanitizeRaw for records that are already typed as RawRecord.
func SanitizeRecords(records []RawRecord) []Quote {
	items := make([]any, len(records))
	for i, r := range records {
		items[i] = r
	}

	return SanitizeRaw(items)
}

// SanitizeQuotes applies the sanitation rules to typed quotes.
func SanitizeQuotes(quotes []Quote) []Quote {
	out := make([]Quote, 0, len(quotes))

	for _, q := range quotes {
		if clean, ok := sanitize(q.Text, q.Category); ok {
			out = append(out, clean)
		}
	}

	return out
}

func sanitize(text, category string) (Quote, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Quote{}, false
	}

	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}

	return Quote{Text: text, Category: category}, true
}

// stringify mirrors loose string coercion: nil becomes empty, everything else is formatted.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// KeyFunc derives the identity key of a quote for dedup and merge.
type KeyFunc func(text string) string

// ExactKey matches text byte for byte.
func ExactKey(text string) string { return text }

// FoldedKey matches text case-insensitively.
func FoldedKey(text string) string { return strings.ToLower(text) }

// KeyFuncFor returns the key function for the configured case sensitivity.
func KeyFuncFor(caseSensitive bool) KeyFunc {
	if caseSensitive {
		return ExactKey
	}

	return FoldedKey
}

// DefaultQuotes returns the seed records used when nothing has been persisted yet.
func DefaultQuotes() []Quote {
	return []Quote{
		{Text: "The best way to predict the future is to invent it.", Category: "Motivation"},
		{Text: "Life is what happens when you're busy making other plans.", Category: "Life"},
		{Text: "Code is like humor. When you have to explain it, it’s bad.", Category: "Programming"},
	}
}
