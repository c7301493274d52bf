package acl

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

// DefaultPostsPath is the collection path on a JSONPlaceholder-style API.
const DefaultPostsPath = "/posts"

// QuoteSourceConfig contains configuration for the quote source.
type QuoteSourceConfig struct {
	// Client must have its BaseURL set to the upstream API.
	Client *clients.Client

	// Path is the collection path. Defaults to DefaultPostsPath.
	Path string

	Logger *slog.Logger
}

// QuoteSource implements ports.RemoteSource against a JSONPlaceholder-style
// posts collection: each post's title becomes a quote in the Server category.
type QuoteSource struct {
	BaseAdapter

	path   string
	logger *slog.Logger
}

// NewQuoteSource creates the adapter. Panics if Client is nil.
func NewQuoteSource(cfg QuoteSourceConfig) *QuoteSource {
	if cfg.Client == nil {
		panic("QuoteSource: Client is required")
	}

	if cfg.Path == "" {
		cfg.Path = DefaultPostsPath
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &QuoteSource{
		BaseAdapter: NewBaseAdapter(cfg.Client, cfg.Client.ServiceName()),
		path:        cfg.Path,
		logger:      cfg.Logger,
	}
}

// postResponse is the upstream post. Fields are decoded loosely so a
// malformed entry is dropped during sanitation instead of failing the batch.
type postResponse = map[string]any

// postRequest is the payload sent when publishing.
type postRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// FetchBatch implements ports.RemoteSource.
func (s *QuoteSource) FetchBatch(ctx context.Context, limit int) ([]domain.RawRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("_limit", strconv.Itoa(limit))
	}

	s.logger.Log(ctx, logging.LevelTrace, "fetching batch", slog.String("path", s.path), slog.Int("limit", limit))

	body, err := s.Get(ctx, s.path, query, "fetch batch")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]any](body)
	if err != nil {
		return nil, domain.NewUnavailableError(s.ServiceName(), err.Error())
	}

	records := TranslateSlice(posts, translatePost)

	// some upstreams ignore the limit parameter
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	s.logger.DebugContext(ctx, "fetched batch",
		slog.Int("received", len(posts)),
		slog.Int("records", len(records)),
	)

	return records, nil
}

// translatePost maps a post to a raw record. Entries that are not objects are
// dropped; text and category are left for sanitation.
func translatePost(item any) (domain.RawRecord, bool) {
	p, ok := item.(postResponse)
	if !ok || p == nil {
		return nil, false
	}

	return domain.RawRecord{
		"text":     p["title"],
		"category": domain.ServerCategory,
	}, true
}

// Publish implements ports.RemoteSource.
func (s *QuoteSource) Publish(ctx context.Context, q domain.Quote) error {
	body, err := s.PostJSON(ctx, s.path, postRequest{Title: q.Text, Body: q.Category, UserID: 1}, "publish quote")
	if err != nil {
		return err
	}

	return body.Close()
}

// Name implements ports.HealthChecker.
func (s *QuoteSource) Name() string {
	return "remote-source"
}

// Check implements ports.HealthChecker without calling upstream: it reports
// unhealthy while the circuit breaker is open.
func (s *QuoteSource) Check(context.Context) error {
	if s.Client().CircuitState() == clients.StateOpen {
		return domain.NewUnavailableError(s.ServiceName(), "circuit breaker open")
	}

	return nil
}

// NonCritical implements ports.NonCritical: local data stays usable while
// the upstream is down.
func (s *QuoteSource) NonCritical() bool {
	return true
}
