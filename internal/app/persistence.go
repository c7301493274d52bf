package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// Persister maps application state onto key-value stores.
// Reads never fail: missing or malformed content degrades to defaults and is logged.
type Persister struct {
	durable ports.KeyValueStore
	session ports.KeyValueStore
	seed    bool
	logger  *slog.Logger
}

// PersisterConfig contains the persister's dependencies.
type PersisterConfig struct {
	// Durable survives restarts and holds records and the selected filter.
	Durable ports.KeyValueStore

	// Session holds per-process state such as the last displayed quote.
	Session ports.KeyValueStore

	// Seed loads domain.DefaultQuotes when no records were ever stored.
	Seed bool

	Logger *slog.Logger
}

// NewPersister creates a persister. Durable and Session are required.
func NewPersister(cfg PersisterConfig) *Persister {
	if cfg.Durable == nil {
		panic("persister: durable store is required")
	}

	if cfg.Session == nil {
		panic("persister: session store is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Persister{
		durable: cfg.Durable,
		session: cfg.Session,
		seed:    cfg.Seed,
		logger:  cfg.Logger,
	}
}

// LoadRecords restores the record set.
func (p *Persister) LoadRecords(ctx context.Context) []domain.Quote {
	data, err := p.durable.Load(ctx, ports.KeyRecords)
	if err != nil {
		if !domain.IsNotFound(err) {
			p.logger.WarnContext(ctx, "loading records failed; starting from defaults", slog.Any("error", err))
		}

		return p.defaults()
	}

	quotes, err := DecodeQuotes(ports.KeyRecords, data)
	if err != nil {
		p.logger.WarnContext(ctx, "stored records are malformed; starting from defaults", slog.Any("error", err))
		return p.defaults()
	}

	return quotes
}

// SaveRecords writes the full record set.
func (p *Persister) SaveRecords(ctx context.Context, quotes []domain.Quote) error {
	data, err := EncodeQuotes(quotes, false)
	if err != nil {
		return domain.NewStorageError("encode", ports.KeyRecords, err)
	}

	return p.durable.Save(ctx, ports.KeyRecords, data)
}

// LoadFilter restores the selected category filter. A stored value is honored
// only when it is domain.CategoryAll or one of categories; otherwise "all" is used.
func (p *Persister) LoadFilter(ctx context.Context, categories []string) string {
	data, err := p.durable.Load(ctx, ports.KeySelectedFilter)
	if err != nil {
		if !domain.IsNotFound(err) {
			p.logger.WarnContext(ctx, "loading filter failed", slog.Any("error", err))
		}

		return domain.CategoryAll
	}

	filter := string(data)
	if filter == domain.CategoryAll {
		return filter
	}

	for _, c := range categories {
		if c == filter {
			return filter
		}
	}

	p.logger.DebugContext(ctx, "stored filter no longer matches a category", slog.String("filter", filter))

	return domain.CategoryAll
}

// SaveFilter stores the selected category filter.
func (p *Persister) SaveFilter(ctx context.Context, filter string) error {
	return p.durable.Save(ctx, ports.KeySelectedFilter, []byte(filter))
}

// LoadLastDisplayed returns the quote most recently shown in this session.
func (p *Persister) LoadLastDisplayed(ctx context.Context) (domain.Quote, bool) {
	data, err := p.session.Load(ctx, ports.KeyLastDisplayed)
	if err != nil {
		if !domain.IsNotFound(err) {
			p.logger.WarnContext(ctx, "loading last displayed quote failed", slog.Any("error", err))
		}

		return domain.Quote{}, false
	}

	var q domain.Quote
	if err := json.Unmarshal(data, &q); err != nil || q.Text == "" {
		p.logger.WarnContext(ctx, "last displayed quote is malformed", slog.Any("error", err))
		return domain.Quote{}, false
	}

	return q, true
}

// SaveLastDisplayed records q as the last shown quote.
func (p *Persister) SaveLastDisplayed(ctx context.Context, q domain.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encoding last displayed quote: %w", err)
	}

	return p.session.Save(ctx, ports.KeyLastDisplayed, data)
}

func (p *Persister) defaults() []domain.Quote {
	if p.seed {
		return domain.DefaultQuotes()
	}

	return []domain.Quote{}
}
