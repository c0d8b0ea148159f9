// Package querylog persists search queries and dataset metadata in SQLite
// and serves the query batches consumed by trending analysis.
package querylog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/nagare/internal/models"
)

// Store is a SQLite-backed log of search queries.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_queries (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		embedding TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_search_queries_created_at ON search_queries(created_at);

	CREATE TABLE IF NOT EXISTS dataset_metadata (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		tags TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Record logs a search query with an optional embedding; returns the row id.
func (s *Store) Record(ctx context.Context, query string, emb []float32) (string, error) {
	id := uuid.NewString()
	var embJSON sql.NullString
	if len(emb) > 0 {
		b, err := json.Marshal(emb)
		if err != nil {
			return "", fmt.Errorf("failed to marshal embedding: %w", err)
		}
		embJSON = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_queries (id, query, embedding, created_at) VALUES (?, ?, ?, ?)`,
		id, query, embJSON, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record query: %w", err)
	}
	return id, nil
}

// SetEmbedding stores an embedding for every logged row of a query, so later
// analyses reuse it instead of re-encoding.
func (s *Store) SetEmbedding(ctx context.Context, query string, emb []float32) error {
	b, err := json.Marshal(emb)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE search_queries SET embedding = ? WHERE query = ?`, string(b), query)
	return err
}

// RecentQueries returns the normalized, deduplicated queries recorded in the
// last `days` days, paired with any stored embeddings. Out-of-bounds queries
// are dropped; first-seen order (newest rows first) is preserved.
func (s *Store) RecentQueries(ctx context.Context, days int) ([]models.QueryRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, embedding FROM search_queries WHERE created_at >= ? ORDER BY created_at DESC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent searches: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var records []models.QueryRecord
	for rows.Next() {
		var query string
		var embJSON sql.NullString
		if err := rows.Scan(&query, &embJSON); err != nil {
			return nil, err
		}
		cleaned, ok := models.NormalizeQuery(query)
		if !ok {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}

		rec := models.QueryRecord{Query: cleaned}
		if embJSON.Valid && embJSON.String != "" {
			var emb []float32
			if err := json.Unmarshal([]byte(embJSON.String), &emb); err == nil {
				rec.Embedding = emb
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountQueries returns the number of logged search queries.
func (s *Store) CountQueries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_queries`).Scan(&count)
	return count, err
}

// AddDataset stores catalog dataset metadata used for the alternate
// trending view.
func (s *Store) AddDataset(ctx context.Context, title, description string, tags []string) (string, error) {
	id := uuid.NewString()
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dataset_metadata (id, title, description, tags, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, title, description, string(tagsJSON), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to add dataset: %w", err)
	}
	return id, nil
}

// DatasetQueries derives pseudo-queries from dataset titles, tags, and
// leading description words, deduplicated. This feeds the catalog-content
// trending view, a proxy for what users could be searching for.
func (s *Store) DatasetQueries(ctx context.Context) ([]models.QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, description, tags FROM dataset_metadata ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var records []models.QueryRecord
	add := func(text string) {
		cleaned, ok := models.NormalizeQuery(text)
		if !ok {
			return
		}
		if _, dup := seen[cleaned]; dup {
			return
		}
		seen[cleaned] = struct{}{}
		records = append(records, models.QueryRecord{Query: cleaned})
	}

	for rows.Next() {
		var title string
		var description, tagsJSON sql.NullString
		if err := rows.Scan(&title, &description, &tagsJSON); err != nil {
			return nil, err
		}
		add(title)
		if tagsJSON.Valid && tagsJSON.String != "" {
			var tags []string
			if err := json.Unmarshal([]byte(tagsJSON.String), &tags); err == nil {
				for _, tag := range tags {
					add(tag)
				}
			}
		}
		if description.Valid {
			words := strings.Fields(description.String)
			if len(words) > 8 {
				words = words[:8]
			}
			add(strings.Join(words, " "))
		}
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
