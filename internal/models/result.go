// Package models defines core data structures for queries, trending
// categories, and analysis results.
package models

// Analysis method labels reported in TrendingResult.Method. Callers use these
// to distinguish full semantic analysis from degraded or trivial output.
const (
	MethodEmbeddings     = "vector_embeddings"
	MethodClusterVariant = "semantic_clustering_variant"
	MethodFrequency      = "frequency_fallback"
	MethodSingleQuery    = "single_query"
	MethodNoData         = "no_data"
)

// TrendingCategory is a read-only summary of one query cluster.
type TrendingCategory struct {
	CategoryName        string   `json:"category_name"`
	QueryCount          int      `json:"query_count"`
	PercentageOfTotal   float64  `json:"percentage_of_total"`
	RepresentativeQuery string   `json:"representative_query"`
	TopKeywords         []string `json:"top_keywords,omitempty"`
	AvgSimilarity       float64  `json:"avg_similarity,omitempty"`
	SampleQueries       []string `json:"sample_queries"`
}

// AnalysisStats reports how a trending analysis was produced.
type AnalysisStats struct {
	TotalQueries        int    `json:"total_queries"`
	UniqueQueries       int    `json:"unique_queries"`
	ClustersCreated     int    `json:"clusters_created"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	ClusteringMethod    string `json:"clustering_method,omitempty"`
	ModelName           string `json:"model_name,omitempty"`
	DataSource          string `json:"data_source,omitempty"`
}

// TrendingResult is the response of one trending analysis call.
type TrendingResult struct {
	Method             string             `json:"method"`
	TrendingCategories []TrendingCategory `json:"trending_categories"`
	AnalysisStats      AnalysisStats      `json:"analysis_stats"`
}

// SimilarQueryResult is one hit of a similar-query search.
// Results are ordered by descending SimilarityScore; Rank is 1-based.
type SimilarQueryResult struct {
	Query           string  `json:"query"`
	SimilarityScore float64 `json:"similarity_score"`
	Rank            int     `json:"rank"`
}
