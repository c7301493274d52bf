//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/wiring"
)

// fakeRemote imitates the posts endpoint of the remote source.
type fakeRemote struct {
	server *httptest.Server

	mu         sync.Mutex
	titles     []string
	status     int
	delay      time.Duration
	requestIDs []string
	published  []map[string]any

	fetches atomic.Int32
}

func newFakeRemote() *fakeRemote {
	f := &fakeRemote{status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))

	return f
}

func (f *fakeRemote) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/posts" {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	status, delay, titles := f.status, f.delay, append([]string(nil), f.titles...)
	f.requestIDs = append(f.requestIDs, r.Header.Get(middleware.HeaderRequestID))
	f.mu.Unlock()

	if r.Method == http.MethodPost {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.published = append(f.published, body)
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":101}`))

		return
	}

	f.fetches.Add(1)

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"upstream trouble"}`))

		return
	}

	posts := make([]map[string]any, 0, len(titles))
	for i, title := range titles {
		posts = append(posts, map[string]any{"id": i + 1, "userId": 1, "title": title, "body": "..."})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(posts)
}

func (f *fakeRemote) setTitles(titles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.titles = titles
}

func (f *fakeRemote) setStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status = status
}

func (f *fakeRemote) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.delay = d
}

func (f *fakeRemote) seenRequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.requestIDs...)
}

func (f *fakeRemote) close() {
	f.server.Close()
}

// harness is one in-process application talking to a fake remote.
type harness struct {
	app    *wiring.App
	api    *httptest.Server
	remote *fakeRemote
}

// harnessConfig returns a configuration with sqlite in dir, no seed data
// and no background activity.
func harnessConfig(dir, remoteURL string) (*config.Config, error) {
	cfg, err := config.LoadFrom(dir, "")
	if err != nil {
		return nil, err
	}

	cfg.App.Environment = "test"
	cfg.Log.Level = "error"
	cfg.Storage.Driver = config.StorageSQLite
	cfg.Storage.Path = filepath.Join(dir, "quotes.db")
	cfg.Seed.Defaults = false
	cfg.Services.Quotes.BaseURL = remoteURL
	cfg.Sync.Enabled = true
	cfg.Sync.RunOnStart = false
	cfg.Sync.Interval = time.Hour
	cfg.Client.Timeout = 2 * time.Second
	cfg.Client.CircuitBreaker.MaxFailures = 3

	return cfg, nil
}

func startHarness(dir string, mutate func(*config.Config)) (*harness, error) {
	remote := newFakeRemote()

	cfg, err := harnessConfig(dir, remote.server.URL)
	if err != nil {
		remote.close()
		return nil, err
	}

	if mutate != nil {
		mutate(cfg)
	}

	a, err := wiring.Build(context.Background(), cfg, wiring.Options{LogWriter: io.Discard})
	if err != nil {
		remote.close()
		return nil, err
	}

	return &harness{app: a, api: httptest.NewServer(a.Server.Engine()), remote: remote}, nil
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()

	h, err := startHarness(t.TempDir(), mutate)
	if err != nil {
		t.Fatalf("starting harness: %v", err)
	}

	t.Cleanup(h.stop)

	return h
}

func (h *harness) stop() {
	h.api.Close()
	_ = h.app.Close(context.Background())
	h.remote.close()
}
