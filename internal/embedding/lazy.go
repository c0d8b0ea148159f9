package embedding

import (
	"context"
	"fmt"
	"sync"
)

// LazyEmbedder defers construction of an expensive embedder (local model
// load, remote client setup) until the first call, guarding it with sync.Once
// so concurrent first callers trigger exactly one load. A failed load is
// remembered and reported as ErrUnavailable on every subsequent call.
type LazyEmbedder struct {
	factory    func() (Embedder, error)
	modelName  string
	dimensions int

	once     sync.Once
	delegate Embedder
	loadErr  error
}

// NewLazyEmbedder wraps factory. modelName and dimensions are reported before
// the delegate is constructed (e.g. for status endpoints).
func NewLazyEmbedder(modelName string, dimensions int, factory func() (Embedder, error)) *LazyEmbedder {
	return &LazyEmbedder{
		factory:    factory,
		modelName:  modelName,
		dimensions: dimensions,
	}
}

func (l *LazyEmbedder) load() (Embedder, error) {
	l.once.Do(func() {
		l.delegate, l.loadErr = l.factory()
	})
	if l.loadErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, l.loadErr)
	}
	return l.delegate, nil
}

// Available reports whether the delegate can be (or has been) constructed.
func (l *LazyEmbedder) Available() bool {
	_, err := l.load()
	return err == nil
}

// Embed delegates after ensuring the backend is loaded.
func (l *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	d, err := l.load()
	if err != nil {
		return nil, err
	}
	return d.Embed(ctx, text)
}

// EmbedBatch delegates after ensuring the backend is loaded.
func (l *LazyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	d, err := l.load()
	if err != nil {
		return nil, err
	}
	return d.EmbedBatch(ctx, texts)
}

// Dimensions returns the delegate's dimension when loaded, else the configured one.
func (l *LazyEmbedder) Dimensions() int {
	if l.delegate != nil && l.loadErr == nil {
		return l.delegate.Dimensions()
	}
	return l.dimensions
}

// ModelName returns the configured model identifier.
func (l *LazyEmbedder) ModelName() string {
	return l.modelName
}

// Close closes the delegate if it was ever constructed.
func (l *LazyEmbedder) Close() error {
	if l.delegate != nil && l.loadErr == nil {
		return l.delegate.Close()
	}
	return nil
}
