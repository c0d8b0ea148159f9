package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/nagare/internal/config"
)

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved path: got %q, want %q", resolved, path)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestReadQueriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	content := "nigeria gdp data\n\n  lagos traffic  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	queries, err := readQueriesFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"nigeria gdp data", "lagos traffic"}
	if len(queries) != len(want) {
		t.Fatalf("got %v, want %v", queries, want)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestBuildEmbedderMockProvider(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.ModelName = "test-mock"
	cfg.Embedding.Dimensions = 16

	emb := buildEmbedder(cfg)
	if emb.ModelName() != "test-mock" {
		t.Errorf("model name: got %q", emb.ModelName())
	}
	if emb.Dimensions() != 16 {
		t.Errorf("dimensions: got %d", emb.Dimensions())
	}
	if !emb.Available() {
		t.Error("mock provider should always be available")
	}
}

func TestBuildEmbedderRemoteRequiresBaseURL(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Embedding.Provider = "remote"

	emb := buildEmbedder(cfg)
	if emb.Available() {
		t.Error("remote provider without a base URL should be unavailable")
	}
}
