// Package vector provides cosine similarity and centroid math over embeddings.
package vector

import "math"

// Cosine returns the cosine similarity of two vectors: dot(a,b)/(|a|*|b|).
// Mismatched lengths, empty vectors, and zero-norm vectors yield 0, so
// degenerate embeddings never divide by zero and never count as similar
// to anything.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// PairwiseMatrix returns the square cosine similarity matrix over embs.
// The matrix is symmetric with 1.0 on the diagonal (for non-zero vectors).
func PairwiseMatrix(embs [][]float32) [][]float64 {
	n := len(embs)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		matrix[i][i] = Cosine(embs[i], embs[i])
		for j := i + 1; j < n; j++ {
			s := Cosine(embs[i], embs[j])
			matrix[i][j] = s
			matrix[j][i] = s
		}
	}
	return matrix
}

// OneVsMany returns the cosine similarity of target against each embedding,
// in input order.
func OneVsMany(target []float32, embs [][]float32) []float64 {
	scores := make([]float64, len(embs))
	for i, emb := range embs {
		scores[i] = Cosine(target, emb)
	}
	return scores
}

// Centroid returns the element-wise mean of the embeddings.
// Returns nil for an empty input.
func Centroid(embs [][]float32) []float32 {
	if len(embs) == 0 || len(embs[0]) == 0 {
		return nil
	}
	dims := len(embs[0])
	sums := make([]float64, dims)
	for _, emb := range embs {
		for i := 0; i < dims && i < len(emb); i++ {
			sums[i] += float64(emb[i])
		}
	}
	centroid := make([]float32, dims)
	inv := 1.0 / float64(len(embs))
	for i, s := range sums {
		centroid[i] = float32(s * inv)
	}
	return centroid
}

// EuclideanDistance returns the L2 distance between two vectors.
// Mismatched lengths yield +Inf so such pairs never win a nearest comparison.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
