// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the shared data types for ranked-choice tabulation
and coalition analysis.

# Reference Data

Candidate and BallotPreference mirror the two read-only views supplied by
the ballot store:

  - candidates(candidate_id, candidate_name)
  - ballot_preferences(ballot_id, candidate_id, rank_position)

A ballot may rank zero or more candidates; within one ballot there is at
most one row per rank position and at most one row per candidate.

# Tabulation Output

Round is an immutable per-round snapshot produced by the STV tabulator.
Transfers are typed Transfer records rather than nested maps so the round
history serializes cleanly. CandidateResult is the final one-row-per-candidate
outcome consumed by the web API and the precompute exporter.

# Coalition Output

AffinityPair carries the co-occurrence counts, ranking-distance statistics,
and normalized affinity scores for one unordered candidate pair. Method and
Normalize are enumerated option types; invalid values are rejected before
any analysis runs.
*/
package models
