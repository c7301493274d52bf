// Package inbox imports quote files dropped into a watched directory.
//
// Every *.json file that appears in the directory is handed to the importer
// once it has stopped changing, then renamed with a ".done" or ".failed"
// suffix so it is never imported twice.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

const (
	// DefaultSettle is how long a file must be quiet before it is imported.
	DefaultSettle = 250 * time.Millisecond

	doneSuffix   = ".done"
	failedSuffix = ".failed"
)

// Importer receives the raw content of each inbox file.
type Importer interface {
	ImportQuotes(ctx context.Context, data []byte) (domain.ImportResult, error)
}

// Outcome describes one processed file.
type Outcome struct {
	Path   string
	Result domain.ImportResult
	Err    error
}

// Config contains configuration for the watcher.
type Config struct {
	Dir      string
	Importer Importer
	Settle   time.Duration
	Logger   *slog.Logger

	// OnProcessed, when set, is called after each file is moved aside.
	OnProcessed func(Outcome)
}

// Watcher watches Dir and imports new files.
type Watcher struct {
	cfg Config

	mu      sync.Mutex
	running bool
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a watcher. It does nothing until Start is called.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("inbox: directory is required")
	}

	if cfg.Importer == nil {
		return nil, errors.New("inbox: importer is required")
	}

	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cfg.Logger = cfg.Logger.With(slog.String("component", "inbox"), slog.String("dir", cfg.Dir))

	return &Watcher{cfg: cfg}, nil
}

// Start creates the directory if needed, imports files already waiting in
// it, and begins watching for new ones.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("inbox: watcher already running")
	}

	if err := os.MkdirAll(w.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("creating inbox directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	if err := fw.Add(w.cfg.Dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}

	// files that arrived while the process was down
	if err := w.Sweep(ctx); err != nil {
		w.cfg.Logger.WarnContext(ctx, "inbox sweep failed", slog.Any("error", err))
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.watcher = fw
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop(ctx)

	w.cfg.Logger.InfoContext(ctx, "inbox watching")

	return nil
}

// Stop stops watching and waits for the event loop to exit. Safe to call
// more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}

	w.running = false
	w.cancel()
	fw := w.watcher
	w.mu.Unlock()

	err := fw.Close()
	w.wg.Wait()

	if err != nil {
		return fmt.Errorf("closing watcher: %w", err)
	}

	return nil
}

// Sweep imports every pending file in the directory, oldest name first.
func (w *Watcher) Sweep(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isCandidate(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		w.process(ctx, filepath.Join(w.cfg.Dir, name))
	}

	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.cfg.Settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if isCandidate(filepath.Base(event.Name)) {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.cfg.Logger.WarnContext(ctx, "watcher error", slog.Any("error", err))

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < w.cfg.Settle {
					continue
				}

				delete(pending, path)
				w.process(ctx, path)
			}
		}
	}
}

// process imports one file and moves it aside.
func (w *Watcher) process(ctx context.Context, path string) {
	logger := w.cfg.Logger.With(slog.String("file", filepath.Base(path)))

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}

	var result domain.ImportResult
	if err == nil {
		result, err = w.cfg.Importer.ImportQuotes(ctx, data)
	}

	suffix := doneSuffix
	if err != nil {
		suffix = failedSuffix
		logger.WarnContext(ctx, "inbox import failed", slog.Any("error", err))
	} else {
		logger.InfoContext(ctx, result.Summary(),
			slog.Int("added", result.Added),
			slog.Int("skipped", result.Skipped),
		)
	}

	if renameErr := os.Rename(path, path+suffix); renameErr != nil {
		logger.ErrorContext(ctx, "moving inbox file aside", slog.Any("error", renameErr))
	}

	if w.cfg.OnProcessed != nil {
		w.cfg.OnProcessed(Outcome{Path: path, Result: result, Err: err})
	}
}

func isCandidate(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}
