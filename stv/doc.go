// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package stv implements multi-winner ranked-choice tabulation using Single
Transferable Vote with a Droop quota.

# Usage

	tab, err := stv.NewTabulator(candidates, preferences)
	if err != nil {
		// input integrity failure: unknown candidate, duplicate rank, ...
	}
	rounds, winners, err := tab.Run(seats)

The quota is computed once from round-1 first-choice totals and held
constant across rounds:

	quota = floor(total_first_choice_votes / (seats + 1)) + 1

# Round Loop

Each round first elects every continuing candidate at or above quota, then
transfers each winner's surplus at value (votes - quota) / votes to the next
continuing preference on every ballot crediting that winner. If no candidate
is elected and seats remain, the continuing candidate with the lowest total
is eliminated and its ballots transfer at full value. Ballot weights are
tracked per ballot, so vote totals plus exhausted weight always sum to the
round-1 total: votes are conserved or lost to exhaustion, never created.

When the continuing candidates no longer outnumber the unfilled seats they
are all elected, so len(winners) == min(seats, candidates) always holds.

# Determinism

Ballots are processed in ballot-id order and candidates in a fixed order
(first-choice votes descending, id ascending). Repeated runs over identical
input produce identical Round sequences and winner lists. Ties for lowest
total on elimination break in favor of the first candidate in that fixed
order; this is a documented policy choice, not an election-law mandate.

# Failure Modes

Input integrity errors (ErrUnknownCandidate, ErrDuplicateRank,
ErrDuplicateCandidate, ErrInvalidSeats) reject the run before any rounds
execute. ErrNotConverged is returned if the loop exceeds MaxRounds. Callers
receive either a complete round history or a typed failure, never both.
*/
package stv
