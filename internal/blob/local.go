package blob

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps assets on disk and serves them under baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates dir if needed. baseURL is the URL prefix that maps to dir,
// e.g. "http://localhost:8080/assets"; when empty, file:// URLs are handed out.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}
	if baseURL == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assets directory: %w", err)
		}
		baseURL = "file://" + filepath.ToSlash(abs)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the root directory.
func (s *LocalStore) Dir() string { return s.dir }

// Put writes data through a temp file and rename so readers never see a partial asset.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("blob: put %s: %w", k, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("blob: put %s: %w", k, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("blob: put %s: %w", k, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("blob: put %s: %w", k, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("blob: put %s: %w", k, err)
	}
	return s.url(k), nil
}

// Get reads the asset at key.
func (s *LocalStore) Get(ctx context.Context, key string) (*Blob, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(k)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob: get %s: %w", k, ErrNotExist)
		}
		return nil, fmt.Errorf("blob: get %s: %w", k, err)
	}
	return &Blob{Data: data, ContentType: mime.TypeByExtension(filepath.Ext(k))}, nil
}

// Delete removes the asset at key. Missing keys are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(k))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete %s: %w", k, err)
	}
	return nil
}

// KeyForURL implements Store.
func (s *LocalStore) KeyForURL(url string) (string, bool) {
	return keyUnder(s.baseURL, url)
}

func (s *LocalStore) url(key string) string {
	return s.baseURL + "/" + key
}
