package cluster

import (
	"testing"

	"github.com/hyperjump/nagare/internal/vector"
)

func twoGroupEmbeddings() [][]float32 {
	return [][]float32{
		{1, 0, 0},
		{0.98, 0.02, 0},
		{0.96, 0.04, 0},
		{0, 1, 0},
		{0.02, 0.98, 0},
		{0.04, 0.96, 0},
	}
}

func TestAssignDensityPath(t *testing.T) {
	embs := twoGroupEmbeddings()
	matrix := vector.PairwiseMatrix(embs)
	assigned, strategy := Assign(embs, matrix, Options{})

	if strategy != StrategyDensity {
		t.Fatalf("strategy: got %q, want %q", strategy, StrategyDensity)
	}
	if len(Sizes(assigned)) != 2 {
		t.Errorf("clusters: got %d, want 2 (%v)", len(Sizes(assigned)), assigned)
	}
	if assigned[0] != assigned[1] || assigned[3] != assigned[4] || assigned[0] == assigned[3] {
		t.Errorf("grouping wrong: %v", assigned)
	}
}

func TestAssignFallsBackWhenDensityDegenerate(t *testing.T) {
	// All items identical: density collapses everything into a single cluster,
	// which is below the minimum cluster count.
	embs := make([][]float32, 6)
	for i := range embs {
		embs[i] = []float32{1, 0, 0}
	}
	matrix := vector.PairwiseMatrix(embs)
	assigned, strategy := Assign(embs, matrix, Options{})

	if strategy != StrategyKMeans {
		t.Fatalf("strategy: got %q, want %q", strategy, StrategyKMeans)
	}
	// Identical vectors end up in one viable partition; nothing is lost.
	nonNoise := 0
	for _, id := range assigned {
		if id != Noise {
			nonNoise++
		}
	}
	if nonNoise == 0 {
		t.Errorf("all items demoted to noise: %v", assigned)
	}
}

func TestAssignDemotesSmallKMeansPartitions(t *testing.T) {
	// One outlier among identical vectors: the fallback partition holding only
	// the outlier is below MinClusterSize and must be noise.
	embs := [][]float32{
		{1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0},
		{0, 1, 0},
	}
	matrix := vector.PairwiseMatrix(embs)
	assigned, strategy := Assign(embs, matrix, Options{})

	if strategy != StrategyKMeans {
		t.Fatalf("strategy: got %q, want %q", strategy, StrategyKMeans)
	}
	sizes := Sizes(assigned)
	for id, size := range sizes {
		if size < 2 {
			t.Errorf("cluster %d kept with size %d", id, size)
		}
	}
}

func TestAssignReproducible(t *testing.T) {
	embs := make([][]float32, 9)
	for i := range embs {
		embs[i] = []float32{float32(i) * 0.1, 1 - float32(i)*0.1, 0.5}
	}
	matrix := vector.PairwiseMatrix(embs)

	a, sa := Assign(embs, matrix, Options{Seed: 7})
	b, sb := Assign(embs, matrix, Options{Seed: 7})
	if sa != sb {
		t.Fatalf("strategies diverged: %q vs %q", sa, sb)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("assignments diverged: %v vs %v", a, b)
		}
	}
}
