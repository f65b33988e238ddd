// Package blob stores synthesized audio assets and fetches them back by URL.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotExist is returned when a key has no stored object.
var ErrNotExist = errors.New("blob: object does not exist")

// Blob is fetched asset content.
type Blob struct {
	Data        []byte
	ContentType string
}

// Store persists assets under keys and hands out URLs for them.
type Store interface {
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) (*Blob, error)
	Delete(ctx context.Context, key string) error
	// KeyForURL maps a URL produced by Put back to its key.
	KeyForURL(url string) (string, bool)
}

// Fetcher retrieves asset bytes by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Blob, error)
}

// cleanKey rejects keys that are empty or would escape the store root.
func cleanKey(key string) (string, error) {
	k := path.Clean(strings.TrimPrefix(key, "/"))
	if k == "." || k == "" || k == ".." || strings.HasPrefix(k, "../") {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}
	return k, nil
}

// keyUnder returns the part of url below base, if url starts with base.
func keyUnder(base, url string) (string, bool) {
	if base == "" {
		return "", false
	}
	prefix := strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	k, err := cleanKey(strings.TrimPrefix(url, prefix))
	if err != nil {
		return "", false
	}
	return k, true
}
