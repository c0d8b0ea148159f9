package cluster

// Strategy labels reported alongside an assignment.
const (
	StrategyDensity = "density_threshold"
	StrategyKMeans  = "kmeans_fallback"
)

// Options configures strategy selection.
type Options struct {
	// SimilarityThreshold for density grouping; clamped to [0.1, 0.99].
	SimilarityThreshold float64
	// MinClusterSize below which a group is demoted to noise (default 2).
	MinClusterSize int
	// MinClusters is the lower degenerate bound for density output (default 2):
	// fewer viable clusters than this triggers the k-means fallback.
	MinClusters int
	// KMin and KMax bound the fallback partition count (defaults 2 and 10).
	KMin int
	KMax int
	// Seed fixes k-means initialization for reproducibility.
	Seed int64
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
}

// Assign clusters the embeddings, trying density grouping over the similarity
// matrix first. When density yields a degenerate partitioning (fewer than
// MinClusters viable clusters, or more clusters than half the item count),
// it re-clusters with fixed-k k-means (k = N/3 clamped into [KMin, KMax]).
// Returns the per-item assignment and the strategy that produced it.
func Assign(embs [][]float32, matrix [][]float64, opts Options) ([]int, string) {
	opts.applyDefaults()
	n := len(embs)

	assigned := Density(matrix, opts.SimilarityThreshold, opts.MinClusterSize)
	clusters := len(Sizes(assigned))
	if clusters >= opts.MinClusters && clusters <= n/2 {
		return assigned, StrategyDensity
	}

	k := ClampK(n/3, opts.KMin, opts.KMax, n)
	assigned = KMeans(embs, k, opts.Seed)

	// Partitions below the viable size are noise here too.
	sizes := Sizes(assigned)
	for i, id := range assigned {
		if id != Noise && sizes[id] < opts.MinClusterSize {
			assigned[i] = Noise
		}
	}
	return assigned, StrategyKMeans
}
