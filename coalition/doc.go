// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package coalition computes pairwise candidate affinity from ranked-ballot
co-occurrence and detects coalition clusters in the resulting graph.

# Affinity

For every unordered candidate pair the engine records how many ballots rank
both candidates and the rank distance on each of those ballots, then derives:

  - basic affinity: Jaccard similarity of the two supporter sets
  - normalized affinity: raw (Jaccard), conditional (shared / total of the
    lower-id candidate), or lift (capped at 2.0)
  - proximity-weighted affinity: mean of 1/(1+distance) over shared ballots
  - coalition strength: 0.2*normalized + 0.8*proximity for the
    proximity_weighted method, normalized alone for basic, clamped to [0,1]

Every ratio guards its denominator; a candidate with zero ballots scores
0.0, never NaN. Pair computations run concurrently over the immutable
ballot snapshot via errgroup, and results are sorted deterministically.

# Clusters

DetectClusters thresholds pairs on coalition strength and extracts the
connected components of the resulting undirected graph.
*/
package coalition
