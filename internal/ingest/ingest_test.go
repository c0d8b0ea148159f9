package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/nagare/internal/querylog"
)

func newTestStore(t *testing.T) *querylog.Store {
	t.Helper()
	store, err := querylog.NewStore(filepath.Join(t.TempDir(), "queries.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestImportFile(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "searches.log")
	writeFile(t, path, "Nigeria GDP Data\nab\n\nlagos traffic\n")

	w := NewWatcher([]string{dir}, []string{".log"}, store)
	n, err := w.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	// Short and blank lines are skipped.
	if n != 2 {
		t.Errorf("imported: got %d, want 2", n)
	}

	count, err := store.CountQueries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("stored: got %d, want 2", count)
	}
}

func TestImportFileSkipsUnchanged(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "searches.log")
	writeFile(t, path, "nigeria gdp data\n")

	w := NewWatcher([]string{dir}, nil, store)
	ctx := context.Background()
	if n, err := w.ImportFile(ctx, path); err != nil || n != 1 {
		t.Fatalf("first import: n=%d err=%v", n, err)
	}
	if n, err := w.ImportFile(ctx, path); err != nil || n != 0 {
		t.Errorf("unchanged file re-imported: n=%d err=%v", n, err)
	}

	// A newer modtime makes the file eligible again.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	if n, err := w.ImportFile(ctx, path); err != nil || n != 1 {
		t.Errorf("modified file not re-imported: n=%d err=%v", n, err)
	}
}

func TestMatchExtension(t *testing.T) {
	w := NewWatcher(nil, []string{".log", ".txt"}, nil)
	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/a.log", true},
		{"/tmp/a.TXT", true},
		{"/tmp/a.csv", false},
		{"/tmp/noext", false},
	}
	for _, tt := range tests {
		if got := w.matchExtension(tt.path); got != tt.want {
			t.Errorf("matchExtension(%q): got %v, want %v", tt.path, got, tt.want)
		}
	}

	all := NewWatcher(nil, nil, nil)
	if !all.matchExtension("/tmp/anything.xyz") {
		t.Error("empty extension list should match everything")
	}
}

func TestSyncExistingFiles(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.log"), "first logged query\n")
	writeFile(t, filepath.Join(dir, "b.log"), "second logged query\n")
	writeFile(t, filepath.Join(dir, "c.csv"), "ignored query here\n")

	w := NewWatcher([]string{dir}, []string{".log"}, store)
	w.SyncExistingFiles(context.Background())

	count, err := store.CountQueries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("got %d queries, want 2", count)
	}
}

func TestWatcherImportsNewFile(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	w := NewWatcher([]string{dir}, []string{".log"}, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "new.log"), "freshly dropped query\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		count, err := store.CountQueries(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if count == 1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("dropped file was not imported before the deadline")
}

func TestWatcherStopIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, newTestStore(t))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
