package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of quotes per page.
const DefaultLimit = 50

// MaxLimit is the maximum allowed quotes per page.
const MaxLimit = 500

// ErrInvalidCursor is returned when a cursor cannot be decoded or belongs
// to a different filter.
var ErrInvalidCursor = errors.New("invalid cursor")

// ListQuotesRequest is the query of GET /api/v1/quotes.
type ListQuotesRequest struct {
	// Category narrows the listing; empty or "all" lists everything.
	Category string `form:"category" validate:"omitempty,max=100"`

	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor"`

	// Limit is the page size (1-500, default 50).
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=500"`
}

// GetLimit returns the limit with defaults applied.
func (r *ListQuotesRequest) GetLimit() int {
	switch {
	case r.Limit <= 0:
		return DefaultLimit
	case r.Limit > MaxLimit:
		return MaxLimit
	default:
		return r.Limit
	}
}

// Offset decodes the cursor into a starting position. An empty cursor
// starts at zero.
func (r *ListQuotesRequest) Offset() (int, error) {
	if r.Cursor == "" {
		return 0, nil
	}

	c, err := DecodeCursor(r.Cursor)
	if err != nil {
		return 0, err
	}

	if c.Category != r.Category || c.Offset < 0 {
		return 0, ErrInvalidCursor
	}

	return c.Offset, nil
}

// PageResponse is one page of an ordered listing.
type PageResponse[T any] struct {
	Items      []T    `json:"items"`
	Total      int    `json:"total"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// Paginate slices items[offset:offset+limit]. Records are append-only and
// updated in place, so an offset stays stable between requests.
func Paginate[T any](items []T, offset, limit int, category string) PageResponse[T] {
	total := len(items)
	if offset > total {
		offset = total
	}

	end := min(offset+limit, total)

	page := PageResponse[T]{
		Items:   append(make([]T, 0, end-offset), items[offset:end]...),
		Total:   total,
		HasMore: end < total,
	}

	if page.HasMore {
		page.NextCursor = EncodeCursor(Cursor{Offset: end, Category: category})
	}

	return page
}

// Cursor is the position encoded in NextCursor.
type Cursor struct {
	Offset   int    `json:"o"`
	Category string `json:"c,omitempty"`
}

// EncodeCursor encodes c as URL-safe base64 JSON.
func EncodeCursor(c Cursor) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(encoded string) (Cursor, error) {
	var c Cursor

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return c, ErrInvalidCursor
	}

	if err := json.Unmarshal(data, &c); err != nil {
		return c, ErrInvalidCursor
	}

	return c, nil
}
