package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
)

// maxResponseBody caps successful response bodies.
const maxResponseBody = 4 << 20

// BaseAdapter carries the client and upstream name shared by every adapter.
type BaseAdapter struct {
	client  *clients.Client
	service string
}

// NewBaseAdapter creates a base adapter for client.
func NewBaseAdapter(client *clients.Client, service string) BaseAdapter {
	return BaseAdapter{client: client, service: service}
}

// ServiceName returns the upstream name used in domain errors.
func (a *BaseAdapter) ServiceName() string {
	return a.service
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// Get issues a GET and returns the body of a 2xx response; the caller closes it.
// Failures are already domain errors.
func (a *BaseAdapter) Get(ctx context.Context, path string, query url.Values, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path, query)

	return a.body(resp, err, operation)
}

// PostJSON issues a JSON POST and returns the body of a 2xx response.
func (a *BaseAdapter) PostJSON(ctx context.Context, path string, payload any, operation string) (io.ReadCloser, error) {
	resp, err := a.client.PostJSON(ctx, path, payload)

	return a.body(resp, err, operation)
}

func (a *BaseAdapter) body(resp *http.Response, err error, operation string) (io.ReadCloser, error) {
	if err != nil {
		return nil, MapHTTPError(nil, err, a.service, operation)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()

		return nil, MapHTTPError(resp, nil, a.service, operation)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it.
func DecodeResponse[T any](body io.ReadCloser) (T, error) {
	var out T

	if body == nil {
		return out, errors.New("response body is nil")
	}
	defer body.Close()

	if err := json.NewDecoder(io.LimitReader(body, maxResponseBody)).Decode(&out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}

	return out, nil
}

// Translator converts one external DTO. ok=false drops the item.
type Translator[E, D any] func(ext E) (item D, ok bool)

// TranslateSlice applies translate to every item, keeping the accepted ones in order.
func TranslateSlice[E, D any](items []E, translate Translator[E, D]) []D {
	out := make([]D, 0, len(items))

	for _, item := range items {
		if d, ok := translate(item); ok {
			out = append(out, d)
		}
	}

	return out
}
