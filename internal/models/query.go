package models

import (
	"fmt"
	"strings"
)

// Query length bounds for analysis input. Shorter strings carry too little
// signal to embed usefully; longer ones are almost never real searches.
const (
	MinQueryLength = 4
	MaxQueryLength = 200
)

// QueryRecord pairs a search query with an optional precomputed embedding.
// A nil Embedding means the analyzer must encode the query itself.
type QueryRecord struct {
	Query     string    `json:"query"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// NormalizeQuery lowercases and trims a raw query. The boolean reports
// whether the normalized form is within the accepted length bounds.
func NormalizeQuery(raw string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if len(cleaned) < MinQueryLength || len(cleaned) > MaxQueryLength {
		return cleaned, false
	}
	return cleaned, true
}

// NormalizeQueries normalizes every query, drops out-of-bounds entries, and
// preserves input order including duplicates (callers count occurrences).
func NormalizeQueries(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, q := range raw {
		cleaned, ok := NormalizeQuery(q)
		if !ok {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

// Dedupe returns the unique queries in first-appearance order.
func Dedupe(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// SimilarRequest is the input for a similar-query search.
type SimilarRequest struct {
	TargetQuery string `json:"target_query"`
	TopK        int    `json:"top_k,omitempty"`
}

// Validate checks the target query and normalizes TopK.
// Returns an error for an empty target; clamps TopK into [1, 50].
func (r *SimilarRequest) Validate() error {
	r.TargetQuery = strings.TrimSpace(r.TargetQuery)
	if r.TargetQuery == "" {
		return fmt.Errorf("target_query cannot be empty")
	}
	if r.TopK <= 0 {
		r.TopK = 10
	}
	if r.TopK > 50 {
		r.TopK = 50
	}
	return nil
}

// RecordRequest is the input for logging a search query.
type RecordRequest struct {
	Query string `json:"query"`
}

// Validate rejects queries outside the accepted length bounds.
func (r *RecordRequest) Validate() error {
	cleaned, ok := NormalizeQuery(r.Query)
	if !ok {
		return fmt.Errorf("query must be %d-%d characters", MinQueryLength, MaxQueryLength)
	}
	r.Query = cleaned
	return nil
}
