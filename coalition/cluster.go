// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coalition

import (
	"log/slog"
	"sort"

	"rcvtally/models"
)

// DetectClusters builds an undirected graph from pairs at or above
// minStrength and returns its connected components with at least
// minGroupSize members. Components are found with an explicit worklist
// rather than recursion so large candidate graphs cannot overflow the
// stack. Cluster members are sorted ascending; clusters are ordered by
// size descending, then by smallest member id.
func DetectClusters(pairs []models.AffinityPair, minStrength float64, minGroupSize int) [][]int {
	if minGroupSize < 2 {
		minGroupSize = 2
	}

	adjacency := make(map[int]map[int]bool)
	link := func(a, b int) {
		if adjacency[a] == nil {
			adjacency[a] = make(map[int]bool)
		}
		adjacency[a][b] = true
	}
	for _, p := range pairs {
		if p.CoalitionStrength >= minStrength {
			link(p.Candidate1, p.Candidate2)
			link(p.Candidate2, p.Candidate1)
		}
	}

	nodes := make([]int, 0, len(adjacency))
	for id := range adjacency {
		nodes = append(nodes, id)
	}
	sort.Ints(nodes)

	visited := make(map[int]bool, len(nodes))
	var clusters [][]int
	for _, start := range nodes {
		if visited[start] {
			continue
		}
		var cluster []int
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cluster = append(cluster, node)
			for neighbor := range adjacency[node] {
				if !visited[neighbor] {
					visited[neighbor] = true
					stack = append(stack, neighbor)
				}
			}
		}
		if len(cluster) >= minGroupSize {
			sort.Ints(cluster)
			clusters = append(clusters, cluster)
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if len(clusters[i]) != len(clusters[j]) {
			return len(clusters[i]) > len(clusters[j])
		}
		return clusters[i][0] < clusters[j][0]
	})

	slog.Info("cluster detection complete", "clusters", len(clusters), "min_strength", minStrength)
	return clusters
}
