// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// publishTimeout bounds a background publish of a newly added quote.
const publishTimeout = 10 * time.Second

// QuoteService is the caller-facing API over the record store, persistence
// and sync scheduler. The HTTP handlers, the CLI and the import inbox all go
// through it.
type QuoteService struct {
	store        *RecordStore
	persister    *Persister
	scheduler    *Scheduler
	publisher    ports.RemoteSource
	publishOnAdd bool
	pick         domain.Picker
	logger       *slog.Logger

	filterMu sync.RWMutex
	filter   string

	publishing sync.WaitGroup
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Store     *RecordStore
	Persister *Persister

	// Scheduler is optional; without it TriggerSyncNow reports the sync as unavailable.
	Scheduler *Scheduler

	// Publisher receives newly added quotes when PublishOnAdd is set.
	Publisher    ports.RemoteSource
	PublishOnAdd bool

	// Picker selects random indexes. Defaults to math/rand/v2.IntN.
	Picker domain.Picker

	Logger *slog.Logger
}

// NewQuoteService creates a quote service. Store and Persister are required.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("quote service: record store is required")
	}

	if cfg.Persister == nil {
		panic("quote service: persister is required")
	}

	if cfg.Picker == nil {
		cfg.Picker = rand.IntN
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &QuoteService{
		store:        cfg.Store,
		persister:    cfg.Persister,
		scheduler:    cfg.Scheduler,
		publisher:    cfg.Publisher,
		publishOnAdd: cfg.PublishOnAdd && cfg.Publisher != nil,
		pick:         cfg.Picker,
		logger:       cfg.Logger,
		filter:       domain.CategoryAll,
	}
}

// RestoreFilter loads the persisted category filter, honoring it only when it
// still names an existing category.
func (s *QuoteService) RestoreFilter(ctx context.Context) string {
	filter := s.persister.LoadFilter(ctx, s.store.Categories())

	s.filterMu.Lock()
	s.filter = filter
	s.filterMu.Unlock()

	return filter
}

// AddQuote validates and stores a new quote.
// With publishing enabled the quote is also sent upstream in the background;
// the outcome is logged only.
func (s *QuoteService) AddQuote(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := s.store.Add(ctx, text, category)
	if err != nil {
		s.logger.DebugContext(ctx, "rejected quote", slog.Any("error", err))
		return domain.Quote{}, err
	}

	s.logger.InfoContext(ctx, "quote added", slog.String("category", q.Category))

	if s.publishOnAdd {
		s.publish(ctx, q)
	}

	return q, nil
}

// ImportQuotes parses a JSON array and appends every quote whose text is not
// already present. Invalid files yield a domain.ParseError and change nothing.
func (s *QuoteService) ImportQuotes(ctx context.Context, data []byte) (domain.ImportResult, error) {
	quotes, err := DecodeImport(data)
	if err != nil {
		s.logger.WarnContext(ctx, "import rejected", slog.Any("error", err))
		return domain.ImportResult{}, err
	}

	result := s.store.AppendUnique(ctx, quotes)

	s.logger.InfoContext(ctx, "quotes imported",
		slog.Int("added", result.Added),
		slog.Int("skipped", result.Skipped),
	)

	return result, nil
}

// ExportSnapshot serializes every quote as a pretty-printed JSON array.
func (s *QuoteService) ExportSnapshot(_ context.Context) ([]byte, error) {
	return EncodeQuotes(s.store.All(), true)
}

// PickRandom returns a uniformly chosen quote matching filter.
// An empty filter uses the selected filter. The pick is remembered as the
// last displayed quote. ok is false when no quote matches.
func (s *QuoteService) PickRandom(ctx context.Context, filter string) (domain.Quote, bool) {
	if filter == "" {
		filter = s.SelectedFilter()
	}

	q, ok := domain.PickRandom(s.store.All(), filter, s.pick)
	if !ok {
		return domain.Quote{}, false
	}

	if err := s.persister.SaveLastDisplayed(ctx, q); err != nil {
		s.logger.WarnContext(ctx, "recording last displayed quote failed", slog.Any("error", err))
	}

	return q, true
}

// UniqueCategories returns the distinct categories in sorted order.
func (s *QuoteService) UniqueCategories() []string {
	return s.store.Categories()
}

// FindQuote looks a quote up by its text.
func (s *QuoteService) FindQuote(text string) (domain.Quote, error) {
	q, ok := s.store.FindByKey(text)
	if !ok {
		return domain.Quote{}, domain.NewNotFoundError("quote", text)
	}

	return q, nil
}

// ListQuotes returns the quotes in category, or all of them for "" and "all".
func (s *QuoteService) ListQuotes(category string) []domain.Quote {
	return domain.FilterByCategory(s.store.All(), category)
}

// SelectedFilter returns the current category filter.
func (s *QuoteService) SelectedFilter() string {
	s.filterMu.RLock()
	defer s.filterMu.RUnlock()

	return s.filter
}

// SetSelectedFilter changes and persists the category filter.
// The filter must be "all" or an existing category.
func (s *QuoteService) SetSelectedFilter(ctx context.Context, filter string) error {
	if filter != domain.CategoryAll && !domain.HasCategory(s.store.All(), filter) {
		return domain.NewValidationError("category", "unknown category "+filter)
	}

	s.filterMu.Lock()
	s.filter = filter
	s.filterMu.Unlock()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.persister.SaveFilter(saveCtx, filter); err != nil {
		s.logger.WarnContext(ctx, "persisting filter failed", slog.Any("error", err))
	}

	return nil
}

// LastDisplayed returns the quote most recently picked in this session.
func (s *QuoteService) LastDisplayed(ctx context.Context) (domain.Quote, bool) {
	return s.persister.LoadLastDisplayed(ctx)
}

// TriggerSyncNow runs a reconciliation immediately.
// It returns ErrSyncInProgress when a run is already in flight.
func (s *QuoteService) TriggerSyncNow(ctx context.Context) (domain.MergeResult, error) {
	if s.scheduler == nil {
		return domain.MergeResult{}, domain.NewUnavailableError("sync", "no remote source configured")
	}

	return s.scheduler.TriggerNow(ctx)
}

// GetSyncState returns the current sync state.
func (s *QuoteService) GetSyncState() domain.SyncState {
	if s.scheduler == nil {
		return domain.SyncState{Status: domain.SyncIdle}
	}

	return s.scheduler.State()
}

// Wait blocks until background publishes have finished.
func (s *QuoteService) Wait() {
	s.publishing.Wait()
}

func (s *QuoteService) publish(ctx context.Context, q domain.Quote) {
	s.publishing.Add(1)

	go func() {
		defer s.publishing.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, q); err != nil {
			s.logger.WarnContext(ctx, "publishing quote failed", slog.Any("error", err))
			return
		}

		s.logger.InfoContext(ctx, "quote published upstream")
	}()
}
