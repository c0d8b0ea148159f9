// Package cluster groups query embeddings by similarity threshold, with a
// fixed-k fallback when threshold grouping degenerates.
package cluster

// Noise marks an item that belongs to no reported cluster.
const Noise = -1

// Threshold bounds applied defensively before density grouping.
const (
	MinThreshold = 0.1
	MaxThreshold = 0.99
)

// ClampThreshold bounds a similarity threshold into [MinThreshold, MaxThreshold].
func ClampThreshold(t float64) float64 {
	if t < MinThreshold {
		return MinThreshold
	}
	if t > MaxThreshold {
		return MaxThreshold
	}
	return t
}

// Density groups items whose pairwise similarity meets threshold, scanning in
// input order: each not-yet-clustered item pulls in every remaining item
// similar enough to it. Groups smaller than minSize are reset to Noise.
// Returns a cluster id per item (ids are contiguous from 0 in formation order).
func Density(matrix [][]float64, threshold float64, minSize int) []int {
	n := len(matrix)
	threshold = ClampThreshold(threshold)
	if minSize < 1 {
		minSize = 1
	}

	assigned := make([]int, n)
	for i := range assigned {
		assigned[i] = Noise
	}

	// First pass: every unclaimed item seeds a group and pulls in all
	// remaining items similar enough to it. Singletons are claimed too, so a
	// later seed cannot drag them into an unrelated group.
	next := 0
	for i := 0; i < n; i++ {
		if assigned[i] != Noise {
			continue
		}
		for j := i; j < n; j++ {
			if assigned[j] == Noise && matrix[i][j] >= threshold {
				assigned[j] = next
			}
		}
		next++
	}

	// Second pass: groups below the viable size are demoted to noise.
	sizes := Sizes(assigned)
	for i, id := range assigned {
		if id != Noise && sizes[id] < minSize {
			assigned[i] = Noise
		}
	}
	return assigned
}

// Sizes returns member counts per cluster id, ignoring Noise.
func Sizes(assigned []int) map[int]int {
	sizes := make(map[int]int)
	for _, id := range assigned {
		if id == Noise {
			continue
		}
		sizes[id]++
	}
	return sizes
}

// Members returns item indices per cluster id in input order, ignoring Noise.
func Members(assigned []int) map[int][]int {
	members := make(map[int][]int)
	for i, id := range assigned {
		if id == Noise {
			continue
		}
		members[id] = append(members[id], i)
	}
	return members
}
