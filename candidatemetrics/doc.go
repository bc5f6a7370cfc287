// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package candidatemetrics computes per-candidate analytics from an immutable
ballot snapshot: full profiles, transfer efficiency, and supporter behavior.

A Profile bundles the headline numbers for one candidate: first-choice share,
vote strength (rank-weighted support), cross-camp appeal (how broadly the
candidate's supporters rank across the field), transfer efficiency, ranking
consistency, bullet-voter share, and the top coalition partners.

TransferAnalysis looks at where a candidate's votes would go: every later
preference on the candidate's ballots is a potential destination, aggregated
per destination with vote counts and rank distances and classified as a
concentrated or dispersed transfer pattern.

Behavior summarizes supporter habits: bullet voting, the rank-position
distribution, an entropy-based consistency score, and a polarization index.

All metrics guard their denominators; a candidate nobody ranked scores zero
everywhere rather than producing NaN.
*/
package candidatemetrics
