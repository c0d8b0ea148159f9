package cluster

import "testing"

func TestClampThreshold(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.7, 0.7},
		{0.05, MinThreshold},
		{-1, MinThreshold},
		{1.5, MaxThreshold},
		{MaxThreshold, MaxThreshold},
	}
	for _, tt := range tests {
		if got := ClampThreshold(tt.in); got != tt.want {
			t.Errorf("ClampThreshold(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDensityTwoGroups(t *testing.T) {
	// Items 0,1 are alike, items 2,3 are alike, nothing crosses groups.
	matrix := [][]float64{
		{1.0, 0.9, 0.1, 0.2},
		{0.9, 1.0, 0.2, 0.1},
		{0.1, 0.2, 1.0, 0.8},
		{0.2, 0.1, 0.8, 1.0},
	}
	assigned := Density(matrix, 0.7, 2)
	if assigned[0] != assigned[1] {
		t.Errorf("items 0 and 1 should share a cluster: %v", assigned)
	}
	if assigned[2] != assigned[3] {
		t.Errorf("items 2 and 3 should share a cluster: %v", assigned)
	}
	if assigned[0] == assigned[2] {
		t.Errorf("groups should differ: %v", assigned)
	}
	if assigned[0] != 0 || assigned[2] != 1 {
		t.Errorf("ids should follow formation order: %v", assigned)
	}
}

func TestDensitySingletonDemotedToNoise(t *testing.T) {
	matrix := [][]float64{
		{1.0, 0.9, 0.1},
		{0.9, 1.0, 0.1},
		{0.1, 0.1, 1.0},
	}
	assigned := Density(matrix, 0.7, 2)
	if assigned[2] != Noise {
		t.Errorf("item 2 should be noise: %v", assigned)
	}
	if assigned[0] != assigned[1] || assigned[0] == Noise {
		t.Errorf("items 0 and 1 should form a cluster: %v", assigned)
	}
}

func TestDensityAllNoiseWhenMinSizeTooLarge(t *testing.T) {
	matrix := [][]float64{
		{1.0, 0.9},
		{0.9, 1.0},
	}
	assigned := Density(matrix, 0.7, 3)
	for i, id := range assigned {
		if id != Noise {
			t.Errorf("item %d: got %d, want Noise", i, id)
		}
	}
}

func TestDensityMinSizeOneKeepsSingletons(t *testing.T) {
	matrix := [][]float64{
		{1.0, 0.1},
		{0.1, 1.0},
	}
	assigned := Density(matrix, 0.7, 1)
	if assigned[0] == Noise || assigned[1] == Noise {
		t.Errorf("singletons should survive with minSize 1: %v", assigned)
	}
	if assigned[0] == assigned[1] {
		t.Errorf("dissimilar items should not share a cluster: %v", assigned)
	}
}

func TestSizesAndMembers(t *testing.T) {
	assigned := []int{0, Noise, 0, 1, Noise}
	sizes := Sizes(assigned)
	if sizes[0] != 2 || sizes[1] != 1 {
		t.Errorf("sizes: got %v", sizes)
	}
	members := Members(assigned)
	if len(members[0]) != 2 || members[0][0] != 0 || members[0][1] != 2 {
		t.Errorf("members[0]: got %v", members[0])
	}
	if len(members[1]) != 1 || members[1][0] != 3 {
		t.Errorf("members[1]: got %v", members[1])
	}
	if _, ok := members[Noise]; ok {
		t.Error("noise must not appear in members")
	}
}
