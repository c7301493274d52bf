package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

const (
	// DefaultSyncInterval is the cadence of periodic runs.
	DefaultSyncInterval = 30 * time.Second

	tracerName = "github.com/jsamuelsen/quotesync/internal/app"
)

var (
	// ErrSyncInProgress is returned when a trigger arrives while a run is in flight.
	// It matches domain.ErrConflict.
	ErrSyncInProgress = domain.NewConflictError("sync", "a run is already in progress")

	// ErrSchedulerRunning is returned by StartPeriodic when the loop is already running.
	ErrSchedulerRunning = errors.New("periodic sync already running")

	errSyncPanicked = errors.New("sync panicked")
)

// Syncer performs one reconciliation run.
type Syncer interface {
	Reconcile(ctx context.Context) (domain.MergeResult, error)
}

// Scheduler runs reconciliations on demand and on a fixed cadence.
// At most one run is in flight; overlapping triggers are dropped.
type Scheduler struct {
	syncer  Syncer
	timeout time.Duration
	metrics ports.SyncMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	inFlight atomic.Bool

	mu        sync.RWMutex
	state     domain.SyncState
	observers []func(domain.SyncState)

	loopMu sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SchedulerConfig contains the scheduler's dependencies and options.
type SchedulerConfig struct {
	Syncer Syncer

	// Timeout bounds a single run. Zero means only the caller's context applies.
	Timeout time.Duration

	Metrics ports.SyncMetrics
	Logger  *slog.Logger

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewScheduler creates an idle scheduler. Syncer is required.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Syncer == nil {
		panic("scheduler: syncer is required")
	}

	if cfg.Metrics == nil {
		cfg.Metrics = ports.NopSyncMetrics{}
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Scheduler{
		syncer:  cfg.Syncer,
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With(slog.String("component", "app.Scheduler")),
		tracer:  otel.Tracer(tracerName),
		now:     cfg.Now,
		state:   domain.SyncState{Status: domain.SyncIdle},
	}
}

// OnStateChange registers fn to receive every state transition.
// fn is called synchronously from the goroutine performing the run.
func (s *Scheduler) OnStateChange(fn func(domain.SyncState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, fn)
}

// State returns a copy of the current sync state.
func (s *Scheduler) State() domain.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// TriggerNow runs one reconciliation unless one is already in flight,
// in which case it returns ErrSyncInProgress immediately.
// Failures are reported through the returned error and the sync state.
func (s *Scheduler) TriggerNow(ctx context.Context) (domain.MergeResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.IncDroppedTriggers()
		s.logger.DebugContext(ctx, "sync trigger dropped; run in flight")

		return domain.MergeResult{}, ErrSyncInProgress
	}
	defer s.finish()

	runID := ulid.Make().String()

	ctx, span := s.tracer.Start(ctx, "sync.run", trace.WithAttributes(
		attribute.String("sync.run_id", runID),
	))
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := s.logger.With(slog.String("run_id", runID))
	ctx = logging.WithContext(ctx, logger)
	started := s.now()

	s.transition(func(st *domain.SyncState) {
		st.Status = domain.SyncSyncing
		st.RunID = runID
		st.LastAttempt = &started
	})

	result, err := s.reconcile(ctx)
	elapsed := s.now().Sub(started)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		s.metrics.ObserveRun(domain.SyncFailed, elapsed)
		logger.WarnContext(ctx, "sync failed; will retry on next tick",
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)

		s.transition(func(st *domain.SyncState) {
			st.Status = domain.SyncFailed
			st.LastOutcome = domain.SyncFailed
			st.LastError = err.Error()
		})

		return domain.MergeResult{}, err
	}

	span.SetAttributes(
		attribute.Int("sync.added", result.Added),
		attribute.Int("sync.updated", result.Updated),
		attribute.Int("sync.conflicts", result.Conflicts),
	)

	s.metrics.ObserveRun(domain.SyncSucceeded, elapsed)
	logger.InfoContext(ctx, result.Summary(),
		slog.Int("added", result.Added),
		slog.Int("updated", result.Updated),
		slog.Int("conflicts", result.Conflicts),
		slog.Duration("elapsed", elapsed),
	)

	finished := s.now()

	s.transition(func(st *domain.SyncState) {
		st.Status = domain.SyncSucceeded
		st.LastOutcome = domain.SyncSucceeded
		st.LastSuccess = &finished
		st.LastError = ""
		st.LastResult = &result
	})

	return result, nil
}

// reconcile turns a panic in the syncer into a failed run.
func (s *Scheduler) reconcile(ctx context.Context) (result domain.MergeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "sync panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)

			result, err = domain.MergeResult{}, fmt.Errorf("%w: %v", errSyncPanicked, r)
		}
	}()

	return s.syncer.Reconcile(ctx)
}

// StartPeriodic launches the background loop. When runOnStart is set the
// first run happens immediately instead of after one interval.
// The loop stops when ctx is canceled or Stop is called.
func (s *Scheduler) StartPeriodic(ctx context.Context, interval time.Duration, runOnStart bool) error {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if s.cancel != nil {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)

	go s.loop(ctx, interval, runOnStart)

	s.logger.InfoContext(ctx, "periodic sync started",
		slog.Duration("interval", interval),
		slog.Bool("run_on_start", runOnStart),
	)

	return nil
}

// Stop cancels the loop, abandoning any in-flight fetch, and waits for it to exit.
// It is safe to call when the loop was never started.
func (s *Scheduler) Stop() {
	s.loopMu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.loopMu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, runOnStart bool) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if runOnStart {
		s.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	// errors are already logged and recorded in the state
	_, _ = s.TriggerNow(ctx)
}

// finish clears the in-flight flag before announcing idle, so an observer
// reacting to the idle state can trigger again.
func (s *Scheduler) finish() {
	s.inFlight.Store(false)
	s.transition(func(st *domain.SyncState) {
		st.Status = domain.SyncIdle
	})
}

func (s *Scheduler) transition(apply func(*domain.SyncState)) {
	s.mu.Lock()
	apply(&s.state)
	snapshot := s.state
	observers := make([]func(domain.SyncState), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
