// Package wiring assembles the application from configuration. Both the
// service binary and the CLI build through it.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quotesync/internal/adapters/http"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/adapters/inbox"
	"github.com/jsamuelsen/quotesync/internal/adapters/storage/filestore"
	"github.com/jsamuelsen/quotesync/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotesync/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
	"github.com/jsamuelsen/quotesync/internal/platform/metrics"
	"github.com/jsamuelsen/quotesync/internal/platform/telemetry"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// durableStore is a key-value backend that also reports health.
type durableStore interface {
	ports.KeyValueStore
	ports.HealthChecker
}

// Options carries values that do not come from configuration.
type Options struct {
	BuildInfo handlers.BuildInfo

	// LogWriter receives log output. Defaults to os.Stdout.
	LogWriter io.Writer

	// Source replaces the HTTP remote source, e.g. in tests.
	Source ports.RemoteSource
}

// App is the assembled application.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Service   *app.QuoteService
	Scheduler *app.Scheduler
	Server    *httpadapter.Server
	Inbox     *inbox.Watcher
	Health    *ports.DefaultHealthRegistry
	Metrics   *metrics.Sync

	telemetry *telemetry.Provider
	closers   []func() error
}

// Build constructs every component. Nothing is started; see Run.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a, err := build(ctx, cfg, opts)
	if err != nil && a != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}

	return a, err
}

func build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.LogWriter == nil {
		opts.LogWriter = os.Stdout
	}

	logger := logging.NewWithWriter(loggingConfig(cfg), opts.LogWriter)
	logging.SetDefault(logger)

	a := &App{Config: cfg, Logger: logger, Health: ports.NewHealthRegistry()}

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return a, fmt.Errorf("initializing telemetry: %w", err)
	}

	a.telemetry = tel

	registry := metrics.NewRegistry()

	a.Metrics, err = metrics.NewSync(registry)
	if err != nil {
		return a, fmt.Errorf("registering metrics: %w", err)
	}

	durable, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return a, err
	}

	if c, ok := durable.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	if err := a.Health.Register(durable); err != nil {
		return a, fmt.Errorf("registering storage health check: %w", err)
	}

	persister := app.NewPersister(app.PersisterConfig{
		Durable: durable,
		Session: memory.New(),
		Seed:    cfg.Seed.Defaults,
		Logger:  logger,
	})

	store := app.NewRecordStore(app.RecordStoreConfig{
		Key:     domain.KeyFuncFor(cfg.Sync.CaseSensitive),
		Persist: persister.SaveRecords,
		OnSize:  a.Metrics.SetStoreSize,
	})

	// writes back the sanitized set, so seeded defaults become durable
	store.ReplaceAll(ctx, persister.LoadRecords(ctx))

	source, err := a.remoteSource(cfg, opts, logger)
	if err != nil {
		return a, err
	}

	if source != nil && cfg.Sync.Enabled {
		reconciler := app.NewReconciler(app.ReconcilerConfig{
			Source:  source,
			Store:   store,
			Limit:   cfg.Sync.BatchLimit,
			Policy:  domain.ConflictPolicy(cfg.Sync.ConflictPolicy),
			Metrics: a.Metrics,
			Logger:  logger,
		})

		a.Scheduler = app.NewScheduler(app.SchedulerConfig{
			Syncer:  reconciler,
			Timeout: cfg.Sync.Timeout,
			Metrics: a.Metrics,
			Logger:  logger,
		})
		a.Scheduler.OnStateChange(func(s domain.SyncState) {
			logger.Debug("sync state changed", slog.String("status", string(s.Status)), slog.String("run_id", s.RunID))
		})
	}

	a.Service = app.NewQuoteService(app.QuoteServiceConfig{
		Store:        store,
		Persister:    persister,
		Scheduler:    a.Scheduler,
		Publisher:    source,
		PublishOnAdd: cfg.Sync.PublishOnAdd,
		Logger:       logger,
	})
	a.Service.RestoreFilter(ctx)

	if cfg.Inbox.Enabled {
		a.Inbox, err = inbox.New(inbox.Config{
			Dir:      cfg.Inbox.Dir,
			Importer: a.Service,
			Settle:   cfg.Inbox.Settle,
			Logger:   logger,
		})
		if err != nil {
			return a, fmt.Errorf("creating inbox: %w", err)
		}
	}

	a.Server = httpadapter.New(&cfg.Server, logger)
	httpadapter.SetupRouter(a.Server.Engine(), httpadapter.RouterConfig{
		ServiceName:   cfg.App.Name,
		HealthHandler: handlers.NewHealthHandler(a.Health, opts.BuildInfo, metrics.Handler(registry)),
		QuoteHandler:  handlers.NewQuoteHandler(a.Service),
		Timeout:       httpadapter.DefaultRequestTimeout,
	})

	return a, nil
}

// remoteSource returns the injected source or builds the HTTP one. It is
// nil when neither sync nor publishing needs it.
func (a *App) remoteSource(cfg *config.Config, opts Options, logger *slog.Logger) (ports.RemoteSource, error) {
	if opts.Source != nil {
		return opts.Source, nil
	}

	if !cfg.Sync.Enabled && !cfg.Sync.PublishOnAdd {
		return nil, nil
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quotes.BaseURL,
		ServiceName: cfg.Services.Quotes.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   cfg.App.Name + "/" + cfg.App.Version,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	source := acl.NewQuoteSource(acl.QuoteSourceConfig{
		Client: httpClient,
		Path:   cfg.Services.Quotes.Path,
		Logger: logger,
	})

	if err := a.Health.Register(source); err != nil {
		return nil, fmt.Errorf("registering remote source health check: %w", err)
	}

	return source, nil
}

// Run starts the periodic sync, the inbox and the HTTP server, and blocks
// until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.Scheduler != nil {
		if err := a.Scheduler.StartPeriodic(ctx, a.Config.Sync.Interval, a.Config.Sync.RunOnStart); err != nil {
			return fmt.Errorf("starting sync: %w", err)
		}

		g.Go(func() error {
			<-ctx.Done()
			a.Scheduler.Stop()

			return nil
		})
	}

	if a.Inbox != nil {
		if err := a.Inbox.Start(ctx); err != nil {
			if a.Scheduler != nil {
				a.Scheduler.Stop()
			}

			return fmt.Errorf("starting inbox: %w", err)
		}

		g.Go(func() error {
			<-ctx.Done()
			return a.Inbox.Stop()
		})
	}

	g.Go(func() error {
		return a.Server.Run(ctx)
	})

	return g.Wait()
}

// Close waits for background publishes and releases storage and telemetry.
// It is safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	if a.Service != nil {
		a.Service.Wait()
	}

	var errs []error

	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}

	if a.telemetry != nil {
		errs = append(errs, a.telemetry.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// openStorage selects the durable backend named by cfg.Driver.
func openStorage(ctx context.Context, cfg config.StorageConfig) (durableStore, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		s, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}

		return s, nil
	case config.StorageFile:
		s, err := filestore.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening file store: %w", err)
		}

		return s, nil
	case config.StorageMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func loggingConfig(cfg *config.Config) *logging.Config {
	return &logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}
}
