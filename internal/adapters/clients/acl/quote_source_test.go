package acl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

func newSource(t *testing.T, baseURL string) *QuoteSource {
	t.Helper()

	client, err := clients.New(testConfig(baseURL))
	require.NoError(t, err)

	return NewQuoteSource(QuoteSourceConfig{Client: client})
}

func TestNewQuoteSource_RequiresClient(t *testing.T) {
	assert.Panics(t, func() { NewQuoteSource(QuoteSourceConfig{}) })
}

func TestQuoteSource_FetchBatch(t *testing.T) {
	var gotPath, gotLimit string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("_limit")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"userId":1,"id":1,"title":"sunt aut facere","body":"..."},
			{"userId":1,"id":2,"title":"  qui est esse  "},
			{"userId":1,"id":3,"title":""},
			{"userId":1,"id":4}
		]`)
	}))
	defer server.Close()

	records, err := newSource(t, server.URL).FetchBatch(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "/posts", gotPath)
	assert.Equal(t, "5", gotLimit)
	require.Len(t, records, 4, "sanitation happens downstream")

	quotes := domain.SanitizeRecords(records)
	assert.Equal(t, []domain.Quote{
		{Text: "sunt aut facere", Category: domain.ServerCategory},
		{Text: "qui est esse", Category: domain.ServerCategory},
	}, quotes)
}

func TestQuoteSource_FetchBatchTruncatesToLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"title":"a"},{"title":"b"},{"title":"c"}]`)
	}))
	defer server.Close()

	records, err := newSource(t, server.URL).FetchBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestQuoteSource_FetchBatchDropsNonObjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"title":"good one"}, 1, null, "text", {"title":"another"}]`)
	}))
	defer server.Close()

	records, err := newSource(t, server.URL).FetchBatch(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, []domain.Quote{
		{Text: "good one", Category: domain.ServerCategory},
		{Text: "another", Category: domain.ServerCategory},
	}, domain.SanitizeRecords(records))
}

func TestQuoteSource_FetchBatchErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newSource(t, server.URL).FetchBatch(context.Background(), 5)
		assert.True(t, domain.IsUnavailable(err))
	})

	t.Run("not an array", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"title":"a"}`)
		}))
		defer server.Close()

		_, err := newSource(t, server.URL).FetchBatch(context.Background(), 5)
		assert.True(t, domain.IsUnavailable(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newSource(t, url).FetchBatch(context.Background(), 5)
		assert.True(t, domain.IsUnavailable(err))
	})
}

func TestQuoteSource_Publish(t *testing.T) {
	var got postRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":101}`)
	}))
	defer server.Close()

	err := newSource(t, server.URL).Publish(context.Background(), domain.Quote{Text: "Stay hungry", Category: "Life"})
	require.NoError(t, err)

	assert.Equal(t, postRequest{Title: "Stay hungry", Body: "Life", UserID: 1}, got)
}

func TestQuoteSource_HealthFollowsCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := newSource(t, server.URL)
	ctx := context.Background()

	assert.Equal(t, "remote-source", source.Name())
	assert.True(t, source.NonCritical())
	require.NoError(t, source.Check(ctx))

	for range 2 {
		_, err := source.FetchBatch(ctx, 5)
		require.Error(t, err)
	}

	assert.True(t, domain.IsUnavailable(source.Check(ctx)))
}
