// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrStorage, ErrUnavailable)
//   - Keep interfaces small and focused
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Storage keys used by the application.
const (
	// KeyRecords holds the JSON array of quotes.
	KeyRecords = "records"

	// KeySelectedFilter holds the last selected category filter.
	KeySelectedFilter = "selectedCategoryFilter"

	// KeyLastDisplayed holds the last quote shown to the reader (session scope).
	KeyLastDisplayed = "lastDisplayedQuote"
)

// KeyValueStore is a durable string-keyed blob store.
//
// Implementations:
//   - storage/sqlite: single-table SQLite database
//   - storage/filestore: one file per key
//   - storage/memory: process-local map, also used as the session store
type KeyValueStore interface {
	// Save writes value under key, replacing any previous value atomically.
	// Returns a domain.StorageError on failure.
	Save(ctx context.Context, key string, value []byte) error

	// Load reads the value stored under key.
	// Returns domain.ErrNotFound if nothing is stored under key.
	Load(ctx context.Context, key string) ([]byte, error)
}

// RemoteSource is the authoritative upstream the local store reconciles with.
// Implementations translate the upstream wire format into raw records and map
// transport failures to domain.ErrUnavailable.
type RemoteSource interface {
	// FetchBatch retrieves at most limit raw records. Records are untyped and
	// must be sanitized by the caller.
	FetchBatch(ctx context.Context, limit int) ([]domain.RawRecord, error)

	// Publish sends one locally created quote upstream.
	Publish(ctx context.Context, quote domain.Quote) error
}

// SyncMetrics records reconciliation telemetry.
// A nil SyncMetrics is never passed to the application; use NopSyncMetrics.
type SyncMetrics interface {
	// ObserveRun records a finished run with its outcome and duration.
	ObserveRun(outcome domain.SyncStatus, elapsed time.Duration)

	// IncDroppedTriggers counts a trigger rejected because a run was in flight.
	IncDroppedTriggers()

	// ObserveMerge records the counts of a successful merge.
	ObserveMerge(result domain.MergeResult)

	// SetStoreSize records the current number of records.
	SetStoreSize(n int)
}

// NopSyncMetrics discards everything.
type NopSyncMetrics struct{}

func (NopSyncMetrics) ObserveRun(domain.SyncStatus, time.Duration) {}
func (NopSyncMetrics) IncDroppedTriggers()                         {}
func (NopSyncMetrics) ObserveMerge(domain.MergeResult)             {}
func (NopSyncMetrics) SetStoreSize(int)                            {}
