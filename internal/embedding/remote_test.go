package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func embeddingServer(t *testing.T, calls *int32, vecFor func(string) []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		type datum struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Data []datum `json:"data"`
		}{}
		for i, text := range req.Input {
			resp.Data = append(resp.Data, datum{Embedding: vecFor(text), Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestRemoteEmbedderBatch(t *testing.T) {
	var calls int32
	srv := embeddingServer(t, &calls, func(text string) []float32 {
		if text == "nigeria gdp" {
			return []float32{3, 4}
		}
		return []float32{0, 1}
	})
	defer srv.Close()

	e, err := NewRemoteEmbedder(RemoteOptions{BaseURL: srv.URL, Model: "test-model", Dimensions: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	embs, err := e.EmbedBatch(context.Background(), []string{"nigeria gdp", "lagos traffic"})
	if err != nil {
		t.Fatal(err)
	}
	if len(embs) != 2 {
		t.Fatalf("got %d embeddings", len(embs))
	}
	// Vectors come back L2-normalized: [3,4] -> [0.6,0.8].
	if math.Abs(float64(embs[0][0])-0.6) > 1e-5 || math.Abs(float64(embs[0][1])-0.8) > 1e-5 {
		t.Errorf("normalized vector: got %v", embs[0])
	}
}

func TestRemoteEmbedderCachesResults(t *testing.T) {
	var calls int32
	srv := embeddingServer(t, &calls, func(string) []float32 { return []float32{1, 0} })
	defer srv.Close()

	e, err := NewRemoteEmbedder(RemoteOptions{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	ctx := context.Background()
	if _, err := e.Embed(ctx, "nigeria gdp"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(ctx, "nigeria gdp"); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("api called %d times, want 1 (second call should hit cache)", n)
	}
}

func TestRemoteEmbedderAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0],"index":0}]}`))
	}))
	defer srv.Close()

	e, err := NewRemoteEmbedder(RemoteOptions{BaseURL: srv.URL, Model: "test-model", APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if _, err := e.Embed(context.Background(), "nigeria gdp"); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization: got %q", gotAuth)
	}
}

func TestRemoteEmbedderServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e, err := NewRemoteEmbedder(RemoteOptions{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	_, err = e.Embed(context.Background(), "nigeria gdp")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestRemoteEmbedderRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0],"index":0}]}`))
	}))
	defer srv.Close()

	e, err := NewRemoteEmbedder(RemoteOptions{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if _, err := e.Embed(context.Background(), "nigeria gdp"); err != nil {
		t.Fatalf("retry should have recovered: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("api called %d times, want 2", n)
	}
}

func TestRemoteEmbedderRequiresConfig(t *testing.T) {
	if _, err := NewRemoteEmbedder(RemoteOptions{Model: "m"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing base URL: got %v", err)
	}
	if _, err := NewRemoteEmbedder(RemoteOptions{BaseURL: "http://localhost"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing model: got %v", err)
	}
}
