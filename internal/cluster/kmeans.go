package cluster

import (
	"math/rand"

	"github.com/hyperjump/nagare/internal/vector"
)

const kmeansMaxIterations = 100

// ClampK bounds k into [kMin, kMax] (and never above n).
func ClampK(k, kMin, kMax, n int) int {
	if k < kMin {
		k = kMin
	}
	if k > kMax {
		k = kMax
	}
	if k > n {
		k = n
	}
	return k
}

// KMeans partitions the embeddings into k clusters by repeatedly assigning
// each item to its most cosine-similar centroid and recomputing centroids.
// The seed fixes centroid initialization so runs are reproducible.
// Returns a cluster id in [0, k) per item.
func KMeans(embs [][]float32, k int, seed int64) []int {
	n := len(embs)
	assigned := make([]int, n)
	if n == 0 {
		return assigned
	}
	if k <= 1 || n <= k {
		// Nothing to partition: either one cluster or one item per cluster.
		for i := range assigned {
			if k <= 1 {
				assigned[i] = 0
			} else {
				assigned[i] = i
			}
		}
		return assigned
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := make([][]float32, k)
	for i, p := range rng.Perm(n)[:k] {
		centroid := make([]float32, len(embs[p]))
		copy(centroid, embs[p])
		centroids[i] = centroid
	}

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, emb := range embs {
			best := 0
			bestSim := vector.Cosine(emb, centroids[0])
			for c := 1; c < k; c++ {
				if s := vector.Cosine(emb, centroids[c]); s > bestSim {
					best = c
					bestSim = s
				}
			}
			if assigned[i] != best {
				assigned[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := 0; c < k; c++ {
			var members [][]float32
			for i, id := range assigned {
				if id == c {
					members = append(members, embs[i])
				}
			}
			// An emptied cluster keeps its previous centroid.
			if len(members) > 0 {
				centroids[c] = vector.Centroid(members)
			}
		}
	}
	return assigned
}
