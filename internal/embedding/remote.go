package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hyperjump/nagare/pkg/utils"
)

// Remote call defaults. Remote embeddings are billed per call, so batches are
// chunked and every result is cached with no forced expiry.
const (
	DefaultBatchSize = 32
	maxRetries       = 3
	initialBackoff   = 100 * time.Millisecond
	maxBackoff       = 5 * time.Second
)

// RemoteEmbedder produces embeddings through an HTTP embedding API
// (OpenAI-compatible request/response shape).
type RemoteEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	batchSize  int
	httpClient *http.Client
	cache      *EmbeddingCache
}

// RemoteOptions configures a RemoteEmbedder.
type RemoteOptions struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	BatchSize  int
	CacheSize  int
	Timeout    time.Duration
}

// NewRemoteEmbedder creates a remote embedder. BaseURL and Model are required.
func NewRemoteEmbedder(opts RemoteOptions) (*RemoteEmbedder, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: remote embedding base URL not configured", ErrUnavailable)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("%w: remote embedding model not configured", ErrUnavailable)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 10000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &RemoteEmbedder{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		dimensions: opts.Dimensions,
		batchSize:  opts.BatchSize,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      NewEmbeddingCache(opts.CacheSize),
	}, nil
}

// Embed returns the embedding for a single text.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embs[0], nil
}

// EmbedBatch returns embeddings for all texts in input order. Cached entries
// are reused; only misses go to the API, chunked by batch size. Any API
// failure is reported as ErrUnavailable so callers can fall back.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	var misses []int
	for i, text := range texts {
		if cached, ok := e.cache.Get(CacheKey(e.model, text)); ok {
			embeddings[i] = cached
		} else {
			misses = append(misses, i)
		}
	}

	for start := 0; start < len(misses); start += e.batchSize {
		end := start + e.batchSize
		if end > len(misses) {
			end = len(misses)
		}
		batch := make([]string, 0, end-start)
		for _, idx := range misses[start:end] {
			batch = append(batch, texts[idx])
		}

		vectors, err := e.callWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrUnavailable, len(vectors), len(batch))
		}
		for bi, idx := range misses[start:end] {
			utils.NormalizeL2(vectors[bi])
			embeddings[idx] = vectors[bi]
			e.cache.Set(CacheKey(e.model, texts[idx]), vectors[bi])
		}
	}
	return embeddings, nil
}

// callWithRetry calls the embedding API with exponential backoff.
func (e *RemoteEmbedder) callWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
		vectors, err := e.callAPI(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func (e *RemoteEmbedder) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": e.model,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(b))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vectors := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimensions returns the configured embedding dimension (0 if unknown).
func (e *RemoteEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the remote model identifier.
func (e *RemoteEmbedder) ModelName() string {
	return e.model
}

// Close releases idle connections.
func (e *RemoteEmbedder) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}
