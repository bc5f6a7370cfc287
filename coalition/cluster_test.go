// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coalition

import (
	"reflect"
	"testing"

	"rcvtally/models"
)

func pair(a, b int, strength float64) models.AffinityPair {
	return models.AffinityPair{Candidate1: a, Candidate2: b, CoalitionStrength: strength}
}

func TestDetectClusters_ConnectedComponents(t *testing.T) {
	pairs := []models.AffinityPair{
		pair(1, 2, 0.9),
		pair(2, 3, 0.8),
		pair(4, 5, 0.7),
		// Below threshold, must not bridge the components.
		pair(3, 4, 0.1),
	}

	clusters := DetectClusters(pairs, 0.5, 2)
	want := [][]int{{1, 2, 3}, {4, 5}}
	if !reflect.DeepEqual(clusters, want) {
		t.Errorf("clusters = %v, want %v", clusters, want)
	}
}

func TestDetectClusters_MinGroupSizeFilter(t *testing.T) {
	pairs := []models.AffinityPair{
		pair(1, 2, 0.9),
		pair(3, 4, 0.9),
		pair(4, 5, 0.9),
	}

	clusters := DetectClusters(pairs, 0.5, 3)
	want := [][]int{{3, 4, 5}}
	if !reflect.DeepEqual(clusters, want) {
		t.Errorf("clusters = %v, want %v", clusters, want)
	}
}

func TestDetectClusters_GroupSizeFloorIsTwo(t *testing.T) {
	pairs := []models.AffinityPair{pair(1, 2, 0.9)}

	// Asking for singleton clusters still yields pairs at minimum.
	for _, size := range []int{0, 1, -5} {
		clusters := DetectClusters(pairs, 0.5, size)
		want := [][]int{{1, 2}}
		if !reflect.DeepEqual(clusters, want) {
			t.Errorf("minGroupSize=%d: clusters = %v, want %v", size, clusters, want)
		}
	}
}

func TestDetectClusters_Ordering(t *testing.T) {
	pairs := []models.AffinityPair{
		// Two-member component with small ids.
		pair(1, 2, 0.9),
		// Three-member component.
		pair(7, 8, 0.9),
		pair(8, 9, 0.9),
		// Another two-member component with larger ids.
		pair(4, 5, 0.9),
	}

	clusters := DetectClusters(pairs, 0.5, 2)
	// Largest first; equal sizes ordered by smallest member.
	want := [][]int{{7, 8, 9}, {1, 2}, {4, 5}}
	if !reflect.DeepEqual(clusters, want) {
		t.Errorf("clusters = %v, want %v", clusters, want)
	}
}

func TestDetectClusters_ThresholdIsInclusive(t *testing.T) {
	pairs := []models.AffinityPair{pair(1, 2, 0.5)}

	if got := DetectClusters(pairs, 0.5, 2); len(got) != 1 {
		t.Errorf("strength exactly at threshold excluded: %v", got)
	}
	if got := DetectClusters(pairs, 0.500001, 2); len(got) != 0 {
		t.Errorf("strength below threshold included: %v", got)
	}
}

func TestDetectClusters_NoPairs(t *testing.T) {
	if got := DetectClusters(nil, 0.5, 2); len(got) != 0 {
		t.Errorf("clusters from no pairs = %v, want none", got)
	}
}

func TestDetectClusters_LargeChainDoesNotRecurse(t *testing.T) {
	// A 10k-node chain would overflow a recursive traversal's stack.
	const n = 10000
	pairs := make([]models.AffinityPair, 0, n-1)
	for i := 1; i < n; i++ {
		pairs = append(pairs, pair(i, i+1, 0.9))
	}

	clusters := DetectClusters(pairs, 0.5, 2)
	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	if len(clusters[0]) != n {
		t.Errorf("cluster size = %d, want %d", len(clusters[0]), n)
	}
	for i, id := range clusters[0] {
		if id != i+1 {
			t.Fatalf("member %d = %d, want %d", i, id, i+1)
		}
	}
}

func TestDetectClusters_Deterministic(t *testing.T) {
	pairs := []models.AffinityPair{
		pair(3, 7, 0.9),
		pair(1, 9, 0.9),
		pair(7, 9, 0.9),
		pair(2, 4, 0.9),
		pair(5, 6, 0.6),
	}

	first := DetectClusters(pairs, 0.5, 2)
	for i := 0; i < 10; i++ {
		got := DetectClusters(pairs, 0.5, 2)
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}
