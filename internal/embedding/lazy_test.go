package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLazyEmbedderLoadsOnce(t *testing.T) {
	var loads int32
	lazy := NewLazyEmbedder("test-model", 8, func() (Embedder, error) {
		atomic.AddInt32(&loads, 1)
		return NewMockEmbedder(8), nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := lazy.Embed(ctx, "nigeria gdp"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("factory called %d times, want 1", n)
	}
}

func TestLazyEmbedderFailedLoad(t *testing.T) {
	lazy := NewLazyEmbedder("broken", 8, func() (Embedder, error) {
		return nil, fmt.Errorf("model file missing")
	})

	if lazy.Available() {
		t.Error("Available should be false after a failed load")
	}
	_, err := lazy.Embed(context.Background(), "nigeria gdp")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
	_, err = lazy.EmbedBatch(context.Background(), []string{"nigeria gdp"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("batch: got %v, want ErrUnavailable", err)
	}
	if err := lazy.Close(); err != nil {
		t.Errorf("Close after failed load: %v", err)
	}
}

func TestLazyEmbedderReportsIdentityBeforeLoad(t *testing.T) {
	lazy := NewLazyEmbedder("all-MiniLM-L6-v2", 384, func() (Embedder, error) {
		t.Fatal("factory must not run for identity queries")
		return nil, nil
	})
	if lazy.ModelName() != "all-MiniLM-L6-v2" {
		t.Errorf("ModelName: got %q", lazy.ModelName())
	}
	if lazy.Dimensions() != 384 {
		t.Errorf("Dimensions: got %d", lazy.Dimensions())
	}
}

func TestLazyEmbedderDelegates(t *testing.T) {
	lazy := NewLazyEmbedder("test-model", 16, func() (Embedder, error) {
		return NewMockEmbedder(16), nil
	})
	emb, err := lazy.Embed(context.Background(), "lagos traffic")
	if err != nil {
		t.Fatal(err)
	}
	if len(emb) != 16 {
		t.Errorf("got %d dims, want 16", len(emb))
	}
	if !lazy.Available() {
		t.Error("Available should be true")
	}
	if lazy.Dimensions() != 16 {
		t.Errorf("Dimensions after load: got %d", lazy.Dimensions())
	}
}
