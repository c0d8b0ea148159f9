// Package trends analyzes search query batches into trending categories
// using embeddings and similarity clustering, with a frequency fallback when
// the embedding backend is unavailable.
package trends

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/nagare/internal/cluster"
	"github.com/hyperjump/nagare/internal/embedding"
	"github.com/hyperjump/nagare/internal/models"
	"github.com/hyperjump/nagare/internal/vector"
)

// Options tunes the analyzer. Zero values select the defaults noted per field.
type Options struct {
	SimilarityThreshold float64 // density grouping threshold (default 0.7)
	MinClusterSize      int     // smallest reported cluster (default 2)
	MinClusters         int     // density degeneracy lower bound (default 2)
	KMin                int     // k-means fallback k lower bound (default 2)
	KMax                int     // k-means fallback k upper bound (default 10)
	Seed                int64   // k-means seed (default 42)
	DefaultTopN         int     // categories returned when topN <= 0 (default 10)
	MinSimilarityScore  float64 // similar-query score floor (default 0.1)
}

func (o *Options) applyDefaults() {
	if o.SimilarityThreshold == 0 {
		o.SimilarityThreshold = 0.7
	}
	if o.MinClusterSize == 0 {
		o.MinClusterSize = 2
	}
	if o.MinClusters == 0 {
		o.MinClusters = 2
	}
	if o.KMin == 0 {
		o.KMin = 2
	}
	if o.KMax == 0 {
		o.KMax = 10
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.DefaultTopN == 0 {
		o.DefaultTopN = 10
	}
	if o.MinSimilarityScore == 0 {
		o.MinSimilarityScore = 0.1
	}
}

// Analyzer runs trending analysis and similar-query search over query batches.
// It holds no per-call state; one Analyzer serves concurrent requests.
type Analyzer struct {
	embedder embedding.Embedder
	logger   *zap.Logger
	opts     Options
}

// NewAnalyzer creates an analyzer using the given embedder.
func NewAnalyzer(embedder embedding.Embedder, logger *zap.Logger, opts Options) *Analyzer {
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{embedder: embedder, logger: logger, opts: opts}
}

// AnalyzeTrending analyzes raw query strings. See AnalyzeRecords.
func (a *Analyzer) AnalyzeTrending(ctx context.Context, queries []string, topN int) *models.TrendingResult {
	records := make([]models.QueryRecord, len(queries))
	for i, q := range queries {
		records[i] = models.QueryRecord{Query: q}
	}
	return a.AnalyzeRecords(ctx, records, topN)
}

// AnalyzeRecords analyzes a batch of queries (optionally carrying stored
// embeddings, which are reused instead of re-encoding). It never returns an
// error: dependency failures and internal clustering errors degrade to
// frequency-ranked categories, and an empty batch yields a no-data result.
func (a *Analyzer) AnalyzeRecords(ctx context.Context, records []models.QueryRecord, topN int) *models.TrendingResult {
	if topN <= 0 {
		topN = a.opts.DefaultTopN
	}

	normalized, stored := normalizeRecords(records)
	if len(normalized) == 0 {
		return &models.TrendingResult{
			Method:             models.MethodNoData,
			TrendingCategories: []models.TrendingCategory{},
			AnalysisStats:      models.AnalysisStats{ModelName: a.embedder.ModelName()},
		}
	}

	counts := make(map[string]int, len(normalized))
	firstSeen := make(map[string]int, len(normalized))
	for i, q := range normalized {
		if _, ok := counts[q]; !ok {
			firstSeen[q] = i
		}
		counts[q]++
	}
	unique := models.Dedupe(normalized)

	stats := models.AnalysisStats{
		TotalQueries:  len(normalized),
		UniqueQueries: len(unique),
		ModelName:     a.embedder.ModelName(),
	}

	// A batch of one distinct query needs no matrix math at all.
	if len(unique) == 1 {
		stats.ClustersCreated = 1
		return &models.TrendingResult{
			Method: models.MethodSingleQuery,
			TrendingCategories: []models.TrendingCategory{{
				CategoryName:        categoryName(extractKeywords(unique), unique[0]),
				QueryCount:          len(normalized),
				PercentageOfTotal:   100.0,
				RepresentativeQuery: unique[0],
				SampleQueries:       unique,
			}},
			AnalysisStats: stats,
		}
	}

	categories, method, err := a.semanticCategories(ctx, unique, stored, topN, &stats)
	if err != nil {
		if !errors.Is(err, embedding.ErrUnavailable) {
			a.logger.Warn("semantic clustering failed, using frequency fallback", zap.Error(err))
		} else {
			a.logger.Debug("embeddings unavailable, using frequency fallback", zap.Error(err))
		}
		categories = frequencyCategories(counts, firstSeen, topN)
		method = models.MethodFrequency
		stats.EmbeddingDimensions = 0
		stats.ClusteringMethod = "frequency"
	}

	stats.ClustersCreated = len(categories)
	return &models.TrendingResult{
		Method:             method,
		TrendingCategories: categories,
		AnalysisStats:      stats,
	}
}

// semanticCategories encodes the unique queries, clusters them, and builds
// sorted categories. Returned method is the label for the clustering path used.
func (a *Analyzer) semanticCategories(
	ctx context.Context,
	unique []string,
	stored map[string][]float32,
	topN int,
	stats *models.AnalysisStats,
) ([]models.TrendingCategory, string, error) {
	embs, err := a.encode(ctx, unique, stored)
	if err != nil {
		return nil, "", err
	}
	stats.EmbeddingDimensions = len(embs[0])

	matrix := vector.PairwiseMatrix(embs)
	assigned, strategy := cluster.Assign(embs, matrix, cluster.Options{
		SimilarityThreshold: a.opts.SimilarityThreshold,
		MinClusterSize:      a.opts.MinClusterSize,
		MinClusters:         a.opts.MinClusters,
		KMin:                a.opts.KMin,
		KMax:                a.opts.KMax,
		Seed:                a.opts.Seed,
	})
	stats.ClusteringMethod = strategy

	members := cluster.Members(assigned)
	ids := make([]int, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	// Formation order: clusters keyed by their earliest member index, so the
	// later count sort breaks ties by first appearance.
	sort.Slice(ids, func(i, j int) bool {
		return members[ids[i]][0] < members[ids[j]][0]
	})

	categories := make([]models.TrendingCategory, 0, len(ids))
	for _, id := range ids {
		categories = append(categories, buildCategory(members[id], unique, embs, matrix, len(unique)))
	}
	sortCategories(categories)
	if len(categories) > topN {
		categories = categories[:topN]
	}

	method := models.MethodEmbeddings
	if strategy == cluster.StrategyKMeans {
		method = models.MethodClusterVariant
	}
	return categories, method, nil
}

// encode returns one embedding per query, reusing stored vectors and encoding
// the rest through the embedder. All vectors must share the same dimension.
func (a *Analyzer) encode(ctx context.Context, queries []string, stored map[string][]float32) ([][]float32, error) {
	embs := make([][]float32, len(queries))
	var missing []string
	var missingIdx []int
	for i, q := range queries {
		if emb, ok := stored[q]; ok && len(emb) > 0 {
			embs[i] = emb
		} else {
			missing = append(missing, q)
			missingIdx = append(missingIdx, i)
		}
	}

	if len(missing) > 0 {
		encoded, err := a.embedder.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(encoded) != len(missing) {
			return nil, fmt.Errorf("%w: encoder returned %d embeddings for %d queries",
				embedding.ErrUnavailable, len(encoded), len(missing))
		}
		for i, idx := range missingIdx {
			embs[idx] = encoded[i]
		}
	}

	dims := len(embs[0])
	for i, emb := range embs {
		if len(emb) != dims || dims == 0 {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, want %d",
				embedding.ErrUnavailable, i, len(emb), dims)
		}
	}
	return embs, nil
}

// FindSimilarQueries ranks candidate queries by cosine similarity against a
// target. Empty target or candidate set is an input error. Encoding failure
// degrades to an empty result with no error; scores below the configured
// floor are dropped, the rest sorted descending and capped at topK.
func (a *Analyzer) FindSimilarQueries(ctx context.Context, records []models.QueryRecord, target string, topK int) ([]models.SimilarQueryResult, error) {
	normalizedTarget, ok := models.NormalizeQuery(target)
	if !ok {
		return nil, fmt.Errorf("target query must be %d-%d characters", models.MinQueryLength, models.MaxQueryLength)
	}
	if topK <= 0 {
		topK = a.opts.DefaultTopN
	}

	candidates, stored := normalizeRecords(records)
	candidates = models.Dedupe(candidates)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("candidate query list cannot be empty")
	}

	all := append([]string{normalizedTarget}, candidates...)
	embs, err := a.encode(ctx, all, stored)
	if err != nil {
		a.logger.Debug("similar query encoding failed", zap.Error(err))
		return []models.SimilarQueryResult{}, nil
	}

	scores := vector.OneVsMany(embs[0], embs[1:])
	type scored struct {
		idx   int
		score float64
	}
	kept := make([]scored, 0, len(scores))
	for i, s := range scores {
		if s >= a.opts.MinSimilarityScore {
			kept = append(kept, scored{idx: i, score: s})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if len(kept) > topK {
		kept = kept[:topK]
	}

	results := make([]models.SimilarQueryResult, len(kept))
	for rank, s := range kept {
		results[rank] = models.SimilarQueryResult{
			Query:           candidates[s.idx],
			SimilarityScore: s.score,
			Rank:            rank + 1,
		}
	}
	return results, nil
}

// normalizeRecords normalizes record queries (keeping duplicates in order)
// and collects stored embeddings keyed by normalized query. The first stored
// embedding for a query wins.
func normalizeRecords(records []models.QueryRecord) ([]string, map[string][]float32) {
	normalized := make([]string, 0, len(records))
	stored := make(map[string][]float32)
	for _, rec := range records {
		cleaned, ok := models.NormalizeQuery(rec.Query)
		if !ok {
			continue
		}
		normalized = append(normalized, cleaned)
		if len(rec.Embedding) > 0 {
			if _, exists := stored[cleaned]; !exists {
				stored[cleaned] = rec.Embedding
			}
		}
	}
	return normalized, stored
}
