package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// DefaultBatchLimit is the number of records requested per fetch.
const DefaultBatchLimit = 5

// Reconciler fetches a remote batch and merges it into the store.
type Reconciler struct {
	source  ports.RemoteSource
	store   *RecordStore
	limit   int
	policy  domain.ConflictPolicy
	metrics ports.SyncMetrics
	logger  *slog.Logger
}

// ReconcilerConfig contains the reconciler's dependencies and options.
type ReconcilerConfig struct {
	Source  ports.RemoteSource
	Store   *RecordStore
	Limit   int
	Policy  domain.ConflictPolicy
	Metrics ports.SyncMetrics
	Logger  *slog.Logger
}

// NewReconciler creates a reconciler. Source and Store are required.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.Source == nil {
		panic("reconciler: remote source is required")
	}

	if cfg.Store == nil {
		panic("reconciler: record store is required")
	}

	if cfg.Limit <= 0 {
		cfg.Limit = DefaultBatchLimit
	}

	if cfg.Policy == "" {
		cfg.Policy = domain.PolicyRemoteWins
	}

	if cfg.Metrics == nil {
		cfg.Metrics = ports.NopSyncMetrics{}
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Reconciler{
		source:  cfg.Source,
		store:   cfg.Store,
		limit:   cfg.Limit,
		policy:  cfg.Policy,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Reconcile performs one fetch-and-merge. The network call happens outside
// the store lock; the merge itself is atomic with respect to other mutations.
// Only a fetch failure is returned as an error.
func (r *Reconciler) Reconcile(ctx context.Context) (domain.MergeResult, error) {
	raw, err := r.source.FetchBatch(ctx, r.limit)
	if err != nil {
		return domain.MergeResult{}, err
	}

	remote := domain.SanitizeRecords(raw)

	var result domain.MergeResult

	r.store.Update(ctx, func(current []domain.Quote) ([]domain.Quote, bool) {
		merged, res := domain.Merge(current, remote, domain.MergeOptions{
			Key:    r.store.Key(),
			Policy: r.policy,
		})
		result = res

		return merged, res.Changed()
	})

	r.metrics.ObserveMerge(result)

	for _, c := range result.Unresolved {
		r.logger.InfoContext(ctx, "conflict left unresolved",
			slog.String("text", c.Text),
			slog.String("local_category", c.LocalCategory),
			slog.String("remote_category", c.RemoteCategory),
		)
	}

	r.logger.DebugContext(ctx, "batch merged",
		slog.Int("fetched", len(raw)),
		slog.Int("valid", len(remote)),
		slog.Int("added", result.Added),
		slog.Int("updated", result.Updated),
		slog.Int("conflicts", result.Conflicts),
	)

	return result, nil
}
