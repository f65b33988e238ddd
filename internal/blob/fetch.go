package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxFetchBytes bounds a single asset download.
const maxFetchBytes = 256 << 20

// HTTPFetcher fetches assets over HTTP. URLs owned by one of its stores are
// read from the store directly instead of going over the network.
type HTTPFetcher struct {
	client *http.Client
	stores []Store
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher returns a fetcher using client (http.DefaultClient when nil).
func NewHTTPFetcher(client *http.Client, stores ...Store) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, stores: stores}
}

// Fetch returns the asset at url. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Blob, error) {
	for _, s := range f.stores {
		if key, ok := s.KeyForURL(url); ok {
			return s.Get(ctx, key)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return &Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
