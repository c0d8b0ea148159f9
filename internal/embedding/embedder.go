// Package embedding provides text embedding via a local ONNX model or a
// remote embedding API, with per-string caching.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable signals that the embedding backend cannot produce vectors
// (model missing, network down, provider error). Callers branch on this with
// errors.Is and fall back to frequency-based analysis; it is never fatal.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Embedder produces vector embeddings for text.
// All embeddings returned by one EmbedBatch call share the same length, and
// EmbedBatch preserves input order. An empty input yields an empty result.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}
