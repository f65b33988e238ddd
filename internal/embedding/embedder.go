// Package embedding provides text embedding backends and a caching wrapper.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned when there is nothing to embed.
var ErrEmptyInput = errors.New("embedding: empty input")

// Embedder produces vector embeddings for text. The same embedder must be used
// for concepts and queries so that cosine similarity is meaningful.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
