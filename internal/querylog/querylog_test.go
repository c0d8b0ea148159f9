package querylog

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "queries.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecentQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"Nigeria GDP Data", "lagos traffic", "nigeria gdp data"} {
		if _, err := store.Record(ctx, q, nil); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.RecentQueries(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	// Normalized and deduplicated: the two GDP rows collapse.
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	seen := make(map[string]bool)
	for _, r := range records {
		seen[r.Query] = true
	}
	if !seen["nigeria gdp data"] || !seen["lagos traffic"] {
		t.Errorf("records: %+v", records)
	}
}

func TestRecentQueriesDropsInvalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Record(ctx, "ab", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(ctx, "valid query", nil); err != nil {
		t.Fatal(err)
	}

	records, err := store.RecentQueries(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Query != "valid query" {
		t.Errorf("got %+v", records)
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emb := []float32{0.1, 0.2, 0.3}
	if _, err := store.Record(ctx, "nigeria inflation rate", emb); err != nil {
		t.Fatal(err)
	}

	records, err := store.RecentQueries(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	got := records[0].Embedding
	if len(got) != 3 || got[0] != 0.1 || got[2] != 0.3 {
		t.Errorf("embedding: got %v", got)
	}
}

func TestSetEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Record(ctx, "lagos housing", nil); err != nil {
		t.Fatal(err)
	}
	if err := store.SetEmbedding(ctx, "lagos housing", []float32{1, 0}); err != nil {
		t.Fatal(err)
	}

	records, err := store.RecentQueries(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || len(records[0].Embedding) != 2 {
		t.Errorf("got %+v", records)
	}
}

func TestCountQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if count, _ := store.CountQueries(ctx); count != 0 {
		t.Errorf("empty store count: got %d", count)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.Record(ctx, "nigeria census figures", nil); err != nil {
			t.Fatal(err)
		}
	}
	count, err := store.CountQueries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Counts raw rows, not distinct queries.
	if count != 3 {
		t.Errorf("got %d, want 3", count)
	}
}

func TestDatasetQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDataset(ctx,
		"Nigeria Population Census",
		"Head counts by state and local government area, collected every decade across the whole federation",
		[]string{"population", "census", "ab"},
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddDataset(ctx, "Lagos Traffic Counts", "", []string{"population"}); err != nil {
		t.Fatal(err)
	}

	records, err := store.DatasetQueries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]bool)
	for _, r := range records {
		got[r.Query] = true
	}
	for _, want := range []string{
		"nigeria population census",
		"population",
		"census",
		"lagos traffic counts",
	} {
		if !got[want] {
			t.Errorf("missing pseudo-query %q in %v", want, records)
		}
	}
	if got["ab"] {
		t.Error("out-of-bounds tag should be dropped")
	}
	// "population" appears as a tag on both datasets; it must not duplicate.
	count := 0
	for _, r := range records {
		if r.Query == "population" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate pseudo-query: %d occurrences", count)
	}
	// Description pseudo-query uses the leading words only.
	descFound := false
	for _, r := range records {
		if r.Query == "head counts by state and local government area," {
			descFound = true
		}
	}
	if !descFound {
		t.Errorf("description pseudo-query missing: %v", records)
	}
}
