package trends

import (
	"sort"

	"github.com/hyperjump/nagare/internal/models"
)

// frequencyCategories ranks distinct queries by raw occurrence count.
// This is the degraded trending signal used whenever embeddings are
// unavailable; each distinct query becomes its own category and percentages
// are computed against the total occurrence count.
func frequencyCategories(counts map[string]int, firstSeen map[string]int, topN int) []models.TrendingCategory {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return nil
	}

	queries := make([]string, 0, len(counts))
	for q := range counts {
		queries = append(queries, q)
	}
	sort.Slice(queries, func(i, j int) bool {
		if counts[queries[i]] != counts[queries[j]] {
			return counts[queries[i]] > counts[queries[j]]
		}
		return firstSeen[queries[i]] < firstSeen[queries[j]]
	})
	if len(queries) > topN {
		queries = queries[:topN]
	}

	categories := make([]models.TrendingCategory, 0, len(queries))
	for _, q := range queries {
		categories = append(categories, models.TrendingCategory{
			CategoryName:        q,
			QueryCount:          counts[q],
			PercentageOfTotal:   100 * float64(counts[q]) / float64(total),
			RepresentativeQuery: q,
			SampleQueries:       []string{q},
		})
	}
	return categories
}
