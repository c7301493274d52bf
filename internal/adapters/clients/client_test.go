package clients

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "quotes",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	}
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := testConfig("http://example.invalid")
	cfg.ServiceName = ""

	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")
}

func TestNew_AppliesDefaults(t *testing.T) {
	cfg := testConfig("https://jsonplaceholder.typicode.com/")
	cfg.Retry.MaxAttempts = 0
	cfg.Timeout = 0

	c, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://jsonplaceholder.typicode.com", c.baseURL)
	assert.Equal(t, 1, c.cfg.Retry.MaxAttempts)
	assert.Equal(t, defaultTimeout, c.http.Timeout)
	assert.Equal(t, defaultMaxIdleConns, c.cfg.Transport.MaxIdleConns)
	assert.Equal(t, 0, cfg.Retry.MaxAttempts, "caller config is not mutated")
}

func TestClient_GetWithQueryAndHeaders(t *testing.T) {
	var got *http.Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.UserAgent = "quotesync/test"

	c, err := New(cfg)
	require.NoError(t, err)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	resp, err := c.Get(ctx, "posts", url.Values{"_limit": []string{"5"}})
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "/posts", got.URL.Path)
	assert.Equal(t, "5", got.URL.Query().Get("_limit"))
	assert.Equal(t, "req-123", got.Header.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-456", got.Header.Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "quotesync/test", got.Header.Get("User-Agent"))
}

func TestClient_SingleAttemptByDefault(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/posts", nil)

	require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_RetriesServerErrorsWhenConfigured(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxAttempts = 3

	c, err := New(cfg)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/posts", nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_ClientErrorIsReturnedNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxAttempts = 3

	c, err := New(cfg)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/posts", nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_PostJSONReplaysBodyOnRetry(t *testing.T) {
	var bodies []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxAttempts = 2

	c, err := New(cfg)
	require.NoError(t, err)

	resp, err := c.PostJSON(context.Background(), "/posts", map[string]string{"title": "hi"})
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{`{"title":"hi"}`, `{"title":"hi"}`}, bodies)
}

func TestClient_CircuitOpensAndShortCircuits(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Circuit.MaxFailures = 2

	c, err := New(cfg)
	require.NoError(t, err)

	_, _ = c.Get(context.Background(), "/posts", nil)
	assert.Equal(t, StateClosed, c.CircuitState())

	_, _ = c.Get(context.Background(), "/posts", nil)
	assert.Equal(t, StateOpen, c.CircuitState())

	before := calls.Load()

	_, err = c.Get(context.Background(), "/posts", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, calls.Load())
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = c.Get(ctx, "/posts", nil)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestClient_Backoff(t *testing.T) {
	cfg := testConfig("http://example.invalid")
	cfg.Retry.InitialInterval = 100 * time.Millisecond
	cfg.Retry.MaxInterval = time.Second
	cfg.Retry.JitterFactor = 0.25

	c, err := New(cfg)
	require.NoError(t, err)

	assert.InDelta(t, float64(200*time.Millisecond), float64(c.backoff(1)), float64(50*time.Millisecond))
	assert.InDelta(t, float64(400*time.Millisecond), float64(c.backoff(2)), float64(100*time.Millisecond))
	assert.LessOrEqual(t, c.backoff(10), cfg.Retry.MaxInterval+cfg.Retry.MaxInterval/4)
}

type testNetError struct{ timeout bool }

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"net timeout", testNetError{timeout: true}, true},
		{"net error without timeout", testNetError{}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}
