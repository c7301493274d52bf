package dto

import (
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Field limits for quote requests.
const (
	MaxTextLength     = 1000
	MaxCategoryLength = 100
)

// AddQuoteRequest is the body of POST /api/v1/quotes.
type AddQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notempty,max=1000"`
	Category string `json:"category" validate:"required,notempty,max=100"`
}

// RandomQuoteRequest is the query of GET /api/v1/quotes/random. An empty
// category means the selected filter.
type RandomQuoteRequest struct {
	Category string `form:"category" validate:"omitempty,max=100"`
}

// LookupRequest is the query of GET /api/v1/quotes/lookup.
type LookupRequest struct {
	Text string `form:"text" validate:"required,notempty"`
}

// FilterRequest is the body of PUT /api/v1/filter.
type FilterRequest struct {
	Category string `json:"category" validate:"required,notempty,max=100"`
}

// QuoteResponse is the wire form of a quote.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Category: q.Category}
}

// NewQuoteResponses converts a slice, never returning nil.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// RandomQuoteResponse wraps a picked quote. Quote is null when the pool is empty.
type RandomQuoteResponse struct {
	Quote    *QuoteResponse `json:"quote"`
	Category string         `json:"category"`
}

// CategoriesResponse lists distinct categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// FilterResponse reports the selected category filter.
type FilterResponse struct {
	Category string `json:"category"`
}

// ImportResponse reports an import.
type ImportResponse struct {
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Message string `json:"message"`
}

// NewImportResponse converts an import result.
func NewImportResponse(r domain.ImportResult) ImportResponse {
	return ImportResponse{Added: r.Added, Skipped: r.Skipped, Message: r.Summary()}
}

// SyncResultResponse reports one finished reconciliation.
type SyncResultResponse struct {
	Added      int             `json:"added"`
	Updated    int             `json:"updated"`
	Conflicts  int             `json:"conflicts"`
	Unresolved []ConflictEntry `json:"unresolved,omitempty"`
	Message    string          `json:"message"`
}

// ConflictEntry is a conflict left unapplied under the skip policy.
type ConflictEntry struct {
	Text           string `json:"text"`
	LocalCategory  string `json:"localCategory"`
	RemoteCategory string `json:"remoteCategory"`
}

// NewSyncResultResponse converts a merge result.
func NewSyncResultResponse(r domain.MergeResult) SyncResultResponse {
	resp := SyncResultResponse{
		Added:     r.Added,
		Updated:   r.Updated,
		Conflicts: r.Conflicts,
		Message:   r.Summary(),
	}

	for _, c := range r.Unresolved {
		resp.Unresolved = append(resp.Unresolved, ConflictEntry{
			Text:           c.Text,
			LocalCategory:  c.LocalCategory,
			RemoteCategory: c.RemoteCategory,
		})
	}

	return resp
}

// SyncStateResponse is the observable scheduler state.
type SyncStateResponse struct {
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	RunID       string              `json:"runId,omitempty"`
	LastAttempt *time.Time          `json:"lastAttempt,omitempty"`
	LastSuccess *time.Time          `json:"lastSuccess,omitempty"`
	LastOutcome string              `json:"lastOutcome,omitempty"`
	LastError   string              `json:"lastError,omitempty"`
	LastResult  *SyncResultResponse `json:"lastResult,omitempty"`
}

// NewSyncStateResponse converts a sync state.
func NewSyncStateResponse(s domain.SyncState) SyncStateResponse {
	resp := SyncStateResponse{
		Status:      string(s.Status),
		Message:     s.StatusText(),
		RunID:       s.RunID,
		LastAttempt: s.LastAttempt,
		LastSuccess: s.LastSuccess,
		LastOutcome: string(s.LastOutcome),
		LastError:   s.LastError,
	}

	if s.LastResult != nil {
		r := NewSyncResultResponse(*s.LastResult)
		resp.LastResult = &r
	}

	return resp
}
