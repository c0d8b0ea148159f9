package trends

import (
	"sort"
	"strings"

	"github.com/hyperjump/nagare/internal/models"
	"github.com/hyperjump/nagare/internal/vector"
	"github.com/hyperjump/nagare/pkg/utils"
)

const (
	maxSampleQueries = 3
	maxNameKeywords  = 3
	maxTopKeywords   = 5
	minKeywordLength = 3
)

// buildCategory summarizes one cluster: representative query (nearest the
// centroid), keyword-derived name, samples, and share of total input.
// memberIdx holds indices into queries/embs, in input order; total is the
// unique query count of the whole batch.
func buildCategory(memberIdx []int, queries []string, embs [][]float32, matrix [][]float64, total int) models.TrendingCategory {
	memberQueries := make([]string, len(memberIdx))
	memberEmbs := make([][]float32, len(memberIdx))
	for i, idx := range memberIdx {
		memberQueries[i] = queries[idx]
		memberEmbs[i] = embs[idx]
	}

	representative := representativeQuery(memberQueries, memberEmbs)
	keywords := extractKeywords(memberQueries)
	name := categoryName(keywords, representative)

	samples := memberQueries
	if len(samples) > maxSampleQueries {
		samples = samples[:maxSampleQueries]
	}
	top := keywords
	if len(top) > maxTopKeywords {
		top = top[:maxTopKeywords]
	}

	return models.TrendingCategory{
		CategoryName:        name,
		QueryCount:          len(memberQueries),
		PercentageOfTotal:   100 * float64(len(memberQueries)) / float64(total),
		RepresentativeQuery: representative,
		TopKeywords:         top,
		AvgSimilarity:       avgSimilarity(memberIdx, matrix),
		SampleQueries:       samples,
	}
}

// representativeQuery returns the member whose embedding is closest (L2) to
// the cluster centroid.
func representativeQuery(queries []string, embs [][]float32) string {
	if len(queries) == 0 {
		return ""
	}
	centroid := vector.Centroid(embs)
	best := 0
	bestDist := vector.EuclideanDistance(embs[0], centroid)
	for i := 1; i < len(embs); i++ {
		if d := vector.EuclideanDistance(embs[i], centroid); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return queries[best]
}

// extractKeywords tokenizes every member query, filters stopwords and short
// or non-alphabetic tokens, and returns the surviving tokens ranked by
// frequency (ties by first appearance).
func extractKeywords(queries []string) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, q := range queries {
		for _, token := range strings.Fields(strings.ToLower(q)) {
			if len(token) < minKeywordLength || !isAlpha(token) || isStopword(token) {
				continue
			}
			if _, ok := counts[token]; !ok {
				firstSeen[token] = order
				order++
			}
			counts[token]++
		}
	}

	keywords := make([]string, 0, len(counts))
	for token := range counts {
		keywords = append(keywords, token)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return firstSeen[keywords[i]] < firstSeen[keywords[j]]
	})
	return keywords
}

// categoryName joins the top keywords title-cased. When no keyword survives
// filtering, it falls back to the representative query's leading words.
func categoryName(keywords []string, representative string) string {
	if len(keywords) > 0 {
		top := keywords
		if len(top) > maxNameKeywords {
			top = top[:maxNameKeywords]
		}
		return utils.TitleWords(strings.Join(top, " "))
	}
	words := strings.Fields(representative)
	if len(words) > maxNameKeywords {
		words = words[:maxNameKeywords]
	}
	return utils.TitleWords(strings.Join(words, " "))
}

// avgSimilarity returns the mean pairwise similarity among cluster members.
// Single-member clusters report 1.0 (self-similarity).
func avgSimilarity(memberIdx []int, matrix [][]float64) float64 {
	if len(memberIdx) < 2 {
		return 1.0
	}
	var sum float64
	var pairs int
	for i := 0; i < len(memberIdx); i++ {
		for j := i + 1; j < len(memberIdx); j++ {
			sum += matrix[memberIdx[i]][memberIdx[j]]
			pairs++
		}
	}
	return sum / float64(pairs)
}

// sortCategories orders categories by descending member count; ties keep the
// order of first appearance (stable sort over formation order).
func sortCategories(categories []models.TrendingCategory) {
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].QueryCount > categories[j].QueryCount
	})
}
