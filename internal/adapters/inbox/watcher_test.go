package inbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

type fakeImporter struct {
	mu       sync.Mutex
	payloads []string
	err      error
}

func (f *fakeImporter) ImportQuotes(_ context.Context, data []byte) (domain.ImportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.payloads = append(f.payloads, string(data))
	if f.err != nil {
		return domain.ImportResult{}, f.err
	}

	return domain.ImportResult{Added: 1}, nil
}

func (f *fakeImporter) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.payloads...)
}

func newWatcher(t *testing.T, dir string, imp Importer) (*Watcher, <-chan Outcome) {
	t.Helper()

	outcomes := make(chan Outcome, 10)
	w, err := New(Config{
		Dir:         dir,
		Importer:    imp,
		Settle:      20 * time.Millisecond,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnProcessed: func(o Outcome) { outcomes <- o },
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.Stop() })

	return w, outcomes
}

func waitOutcome(t *testing.T, outcomes <-chan Outcome) Outcome {
	t.Helper()

	select {
	case o := <-outcomes:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for inbox file to be processed")
		return Outcome{}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Importer: &fakeImporter{}})
	assert.ErrorContains(t, err, "directory is required")

	_, err = New(Config{Dir: t.TempDir()})
	assert.ErrorContains(t, err, "importer is required")
}

func TestWatcher_SweepsExistingFilesOnStart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`["b"]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`["a"]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0o600))

	imp := &fakeImporter{}
	w, _ := newWatcher(t, dir, imp)

	require.NoError(t, w.Start(context.Background()))

	assert.Equal(t, []string{`["a"]`, `["b"]`}, imp.seen())
	assert.FileExists(t, filepath.Join(dir, "a.json.done"))
	assert.FileExists(t, filepath.Join(dir, "b.json.done"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestWatcher_ImportsNewFile(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{}
	w, outcomes := newWatcher(t, dir, imp)

	require.NoError(t, w.Start(context.Background()))

	path := filepath.Join(dir, "drop.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"text":"x"}]`), 0o600))

	o := waitOutcome(t, outcomes)
	require.NoError(t, o.Err)
	assert.Equal(t, path, o.Path)
	assert.Equal(t, 1, o.Result.Added)
	assert.FileExists(t, path+".done")
	assert.NoFileExists(t, path)
}

func TestWatcher_FailedImportIsMovedAside(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{err: domain.NewParseError("import", "not an array", nil)}
	w, outcomes := newWatcher(t, dir, imp)

	require.NoError(t, w.Start(context.Background()))

	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	o := waitOutcome(t, outcomes)
	assert.True(t, domain.IsParse(o.Err))
	assert.FileExists(t, path+".failed")
}

func TestWatcher_StartTwiceAndStopIdempotent(t *testing.T) {
	w, _ := newWatcher(t, t.TempDir(), &fakeImporter{})

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcher_SweepHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[]`), 0o600))

	imp := &fakeImporter{}
	w, _ := newWatcher(t, dir, imp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Sweep(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, imp.seen())
}
