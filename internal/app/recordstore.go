package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

// persistTimeout bounds one write of the record set. The write is detached
// from the caller's cancellation so an accepted mutation is always stored.
const persistTimeout = 5 * time.Second

// PersistFunc receives the full record set after every successful mutation.
// It runs while the store lock is held, so it must not call back into the store.
type PersistFunc func(ctx context.Context, snapshot []domain.Quote) error

// RecordStore is the in-memory authoritative sequence of quotes.
// Insertion order is preserved and duplicates are allowed structurally;
// uniqueness is enforced only by the import and merge policies.
type RecordStore struct {
	mu      sync.Mutex
	records []domain.Quote
	key     domain.KeyFunc
	persist PersistFunc
	onSize  func(int)
}

// RecordStoreConfig contains the store's dependencies.
type RecordStoreConfig struct {
	// Initial is the starting content; it is sanitized on construction.
	Initial []domain.Quote

	// Key derives identity keys. Defaults to domain.ExactKey.
	Key domain.KeyFunc

	// Persist is invoked with a snapshot after each mutation. Optional.
	Persist PersistFunc

	// OnSize is told the record count after construction and each mutation. Optional.
	OnSize func(int)
}

// NewRecordStore creates a store seeded with cfg.Initial.
func NewRecordStore(cfg RecordStoreConfig) *RecordStore {
	if cfg.Key == nil {
		cfg.Key = domain.ExactKey
	}

	s := &RecordStore{
		records: domain.SanitizeQuotes(cfg.Initial),
		key:     cfg.Key,
		persist: cfg.Persist,
		onSize:  cfg.OnSize,
	}

	s.reportSize()

	return s
}

// Add validates and appends one quote.
// Both fields are required; no default category is applied.
func (s *RecordStore) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, q)
	s.commit(ctx)

	return q, nil
}

// ReplaceAll swaps the whole content for the sanitized form of records.
// Invalid entries are dropped silently.
func (s *RecordStore) ReplaceAll(ctx context.Context, records []domain.Quote) {
	clean := domain.SanitizeQuotes(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = clean
	s.commit(ctx)
}

// AppendUnique appends sanitized records whose key is not yet present.
// Nothing is persisted when no record was added.
func (s *RecordStore) AppendUnique(ctx context.Context, records []domain.Quote) domain.ImportResult {
	clean := domain.SanitizeQuotes(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	out, result := domain.AppendUnique(s.records, clean, s.key)
	if result.Added > 0 {
		s.records = out
		s.commit(ctx)
	}

	return result
}

// Update runs fn against the current content under the store lock.
// When fn reports a change its output replaces the content and is persisted.
// fn must not block on I/O.
func (s *RecordStore) Update(ctx context.Context, fn func(current []domain.Quote) ([]domain.Quote, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(s.snapshot())
	if !changed {
		return false
	}

	s.records = next
	s.commit(ctx)

	return true
}

// FindByKey returns the first record whose key matches text.
func (s *RecordStore) FindByKey(text string) (domain.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(text)
	for _, q := range s.records {
		if s.key(q.Text) == k {
			return q, true
		}
	}

	return domain.Quote{}, false
}

// All returns a copy of the records in insertion order.
func (s *RecordStore) All() []domain.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Categories returns the distinct categories in sorted order.
func (s *RecordStore) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.UniqueCategories(s.records)
}

// Key returns the store's identity key function.
func (s *RecordStore) Key() domain.KeyFunc {
	return s.key
}

func (s *RecordStore) snapshot() []domain.Quote {
	out := make([]domain.Quote, len(s.records))
	copy(out, s.records)

	return out
}

// commit must be called with mu held.
func (s *RecordStore) commit(ctx context.Context) {
	s.reportSize()

	if s.persist == nil {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.persist(persistCtx, s.snapshot()); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "persisting records failed; keeping in-memory state",
			slog.Int("count", len(s.records)),
			slog.Any("error", err),
		)
	}
}

func (s *RecordStore) reportSize() {
	if s.onSize != nil {
		s.onSize(len(s.records))
	}
}
