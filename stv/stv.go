// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"rcvtally/models"
)

// MaxRounds bounds the tabulation loop as a defense against non-termination.
const MaxRounds = 50

// DroopQuota returns floor(totalVotes / (seats+1)) + 1.
func DroopQuota(totalVotes float64, seats int) float64 {
	return math.Floor(totalVotes/float64(seats+1)) + 1
}

// ballot is one voter's ranking, candidate ids in rank order.
type ballot struct {
	id    string
	prefs []int
}

// ballotState tracks where a ballot's remaining weight currently sits.
// idx indexes into prefs; weight is the transferable fraction still live.
type ballotState struct {
	idx    int
	weight float64
	active bool
}

// Tabulator runs a Droop-quota STV election over an immutable ballot
// snapshot. Construct once with NewTabulator; Run may be called repeatedly
// and always produces identical output for identical input.
type Tabulator struct {
	candidates  map[int]models.Candidate
	ballots     []ballot
	firstChoice map[int]float64
	firstTotal  float64
	// candidate ids ordered by first-choice votes descending, id ascending.
	// This is the iteration order for the elimination tie-break.
	order []int
}

// NewTabulator validates the ballot data and builds the in-memory snapshot.
// A ballot referencing an unknown candidate, ranking the same candidate
// twice, or reusing a rank position rejects the whole input.
func NewTabulator(candidates []models.Candidate, prefs []models.BallotPreference) (*Tabulator, error) {
	t := &Tabulator{
		candidates:  make(map[int]models.Candidate, len(candidates)),
		firstChoice: make(map[int]float64, len(candidates)),
	}
	for _, c := range candidates {
		t.candidates[c.ID] = c
	}

	type rawBallot struct {
		seenRank map[int]bool
		seenCand map[int]bool
		rows     []models.BallotPreference
	}
	byBallot := make(map[string]*rawBallot)
	var ballotIDs []string

	for _, p := range prefs {
		if _, ok := t.candidates[p.CandidateID]; !ok {
			return nil, fmt.Errorf("%w: ballot %q references candidate %d", ErrUnknownCandidate, p.BallotID, p.CandidateID)
		}
		b, ok := byBallot[p.BallotID]
		if !ok {
			b = &rawBallot{seenRank: make(map[int]bool), seenCand: make(map[int]bool)}
			byBallot[p.BallotID] = b
			ballotIDs = append(ballotIDs, p.BallotID)
		}
		if b.seenRank[p.Rank] {
			return nil, fmt.Errorf("%w: ballot %q rank %d", ErrDuplicateRank, p.BallotID, p.Rank)
		}
		if b.seenCand[p.CandidateID] {
			return nil, fmt.Errorf("%w: ballot %q candidate %d", ErrDuplicateCandidate, p.BallotID, p.CandidateID)
		}
		b.seenRank[p.Rank] = true
		b.seenCand[p.CandidateID] = true
		b.rows = append(b.rows, p)
	}

	// Deterministic ballot order regardless of input row order.
	sort.Strings(ballotIDs)
	for _, id := range ballotIDs {
		rows := byBallot[id].rows
		sort.Slice(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })
		bl := ballot{id: id, prefs: make([]int, len(rows))}
		for i, r := range rows {
			bl.prefs[i] = r.CandidateID
		}
		t.ballots = append(t.ballots, bl)
		t.firstChoice[bl.prefs[0]]++
		t.firstTotal++
	}

	for id := range t.candidates {
		t.order = append(t.order, id)
	}
	sort.Slice(t.order, func(i, j int) bool {
		vi, vj := t.firstChoice[t.order[i]], t.firstChoice[t.order[j]]
		if vi != vj {
			return vi > vj
		}
		return t.order[i] < t.order[j]
	})

	return t, nil
}

// Run tabulates the election for the given number of seats and returns the
// ordered round history plus the winners in order of election. The round
// history is complete on success; on failure nothing partial is returned.
func (t *Tabulator) Run(seats int) ([]models.Round, []int, error) {
	if seats < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidSeats, seats)
	}

	quota := DroopQuota(t.firstTotal, seats)
	slog.Info("starting tabulation",
		"seats", seats,
		"candidates", len(t.candidates),
		"ballots", len(t.ballots),
		"quota", quota,
	)

	// Degenerate case: everyone is elected without running rounds, but one
	// round of initial tallies is still emitted for introspection.
	if seats >= len(t.candidates) {
		winners := append([]int(nil), t.order...)
		round := models.Round{
			Number:               1,
			Continuing:           []int{},
			VoteTotals:           t.initialTotals(),
			Quota:                quota,
			WinnersThisRound:     winners,
			EliminatedThisRound:  []int{},
			Transfers:            []models.Transfer{},
			ExhaustedVotes:       0,
			TotalContinuingVotes: t.firstTotal,
		}
		return []models.Round{round}, winners, nil
	}

	totals := t.initialTotals()
	continuing := append([]int(nil), t.order...)
	inContinuing := make(map[int]bool, len(continuing))
	for _, id := range continuing {
		inContinuing[id] = true
	}

	states := make([]ballotState, len(t.ballots))
	for i := range states {
		states[i] = ballotState{idx: 0, weight: 1, active: true}
	}

	var (
		rounds     []models.Round
		winners    []int
		eliminated []int
		exhausted  float64
	)

	for num := 1; ; num++ {
		if num > MaxRounds {
			slog.Error("round limit exceeded", "limit", MaxRounds)
			return nil, nil, ErrNotConverged
		}

		// Election check: every continuing candidate at or above quota wins,
		// capped at the remaining seats (highest totals first).
		var roundWinners []int
		for _, id := range continuing {
			if totals[id] >= quota {
				roundWinners = append(roundWinners, id)
			}
		}
		sort.Slice(roundWinners, func(i, j int) bool {
			if totals[roundWinners[i]] != totals[roundWinners[j]] {
				return totals[roundWinners[i]] > totals[roundWinners[j]]
			}
			return roundWinners[i] < roundWinners[j]
		})
		if remaining := seats - len(winners); len(roundWinners) > remaining {
			roundWinners = roundWinners[:remaining]
		}

		// Winners leave the continuing set before any transfer is computed.
		for _, w := range roundWinners {
			continuing = removeID(continuing, w)
			delete(inContinuing, w)
			winners = append(winners, w)
		}

		agg := make(map[int]map[int]float64)
		for _, w := range roundWinners {
			votes := totals[w]
			if votes <= quota {
				// No surplus; the ballots crediting this winner are consumed.
				t.retireBallots(states, w)
				continue
			}
			// Guarded division: votes >= quota >= 1 here, but a zero total
			// must short-circuit to a zero transfer rather than divide.
			if votes <= 0 {
				continue
			}
			fraction := (votes - quota) / votes
			exhausted += t.transferFrom(states, w, fraction, totals, inContinuing, agg)
			totals[w] = quota
			slog.Debug("surplus transferred", "candidate", w, "fraction", fraction)
		}

		var roundEliminated []int
		if len(continuing) > 0 && len(continuing)+len(winners) <= seats {
			// Remaining candidates cannot be outnumbered: elect them all so
			// the winner count always reaches min(seats, candidates).
			rest := append([]int(nil), continuing...)
			sort.Slice(rest, func(i, j int) bool {
				if totals[rest[i]] != totals[rest[j]] {
					return totals[rest[i]] > totals[rest[j]]
				}
				return rest[i] < rest[j]
			})
			for _, id := range rest {
				continuing = removeID(continuing, id)
				delete(inContinuing, id)
				roundWinners = append(roundWinners, id)
				winners = append(winners, id)
			}
		} else if len(roundWinners) == 0 && len(winners) < seats && len(continuing) > 0 {
			// Elimination tie-break policy: among candidates tied for the
			// lowest total, the first in the maintained continuing order
			// (initial first-choice descending, id ascending) is removed.
			lowest := continuing[0]
			for _, id := range continuing[1:] {
				if totals[id] < totals[lowest] {
					lowest = id
				}
			}
			continuing = removeID(continuing, lowest)
			delete(inContinuing, lowest)
			roundEliminated = append(roundEliminated, lowest)
			eliminated = append(eliminated, lowest)

			exhausted += t.transferFrom(states, lowest, 1, totals, inContinuing, agg)
			totals[lowest] = 0
			slog.Debug("candidate eliminated", "candidate", lowest, "round", num)
		}

		totalContinuing := 0.0
		for _, id := range continuing {
			totalContinuing += totals[id]
		}
		for _, id := range winners {
			totalContinuing += totals[id]
		}

		rounds = append(rounds, models.Round{
			Number:               num,
			Continuing:           sortedCopy(continuing),
			VoteTotals:           copyTotals(totals),
			Quota:                quota,
			WinnersThisRound:     nonNil(roundWinners),
			EliminatedThisRound:  nonNil(roundEliminated),
			Transfers:            flattenTransfers(agg),
			ExhaustedVotes:       exhausted,
			TotalContinuingVotes: totalContinuing,
		})

		if len(winners) == seats || len(continuing) == 0 {
			break
		}
	}

	slog.Info("tabulation complete", "rounds", len(rounds), "winners", winners)
	return rounds, winners, nil
}

// FinalResults produces the one-row-per-candidate outcome for a completed
// run, sorted by final votes descending.
func (t *Tabulator) FinalResults(rounds []models.Round, winners []int) []models.CandidateResult {
	if len(rounds) == 0 {
		return nil
	}
	final := rounds[len(rounds)-1]

	won := make(map[int]bool, len(winners))
	for _, id := range winners {
		won[id] = true
	}
	electedIn := make(map[int]int)
	for _, r := range rounds {
		for _, id := range r.WinnersThisRound {
			electedIn[id] = r.Number
		}
	}

	results := make([]models.CandidateResult, 0, len(t.candidates))
	for id, c := range t.candidates {
		res := models.CandidateResult{
			CandidateID:   id,
			CandidateName: c.Name,
			FinalVotes:    final.VoteTotals[id],
			Status:        models.StatusNotElected,
		}
		if won[id] {
			res.Status = models.StatusElected
			if round, ok := electedIn[id]; ok {
				r := round
				res.ElectionRound = &r
			}
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalVotes != results[j].FinalVotes {
			return results[i].FinalVotes > results[j].FinalVotes
		}
		return results[i].CandidateID < results[j].CandidateID
	})
	return results
}

// FirstChoiceTotals returns the round-1 tallies keyed by candidate id.
func (t *Tabulator) FirstChoiceTotals() map[int]float64 {
	return copyTotals(t.firstChoice)
}

func (t *Tabulator) initialTotals() map[int]float64 {
	totals := make(map[int]float64, len(t.candidates))
	for id := range t.candidates {
		totals[id] = t.firstChoice[id]
	}
	return totals
}

// transferFrom moves every ballot currently crediting from to its next
// continuing preference at fraction of its live weight. Ballots with no
// later continuing preference exhaust; the exhausted weight is returned.
func (t *Tabulator) transferFrom(states []ballotState, from int, fraction float64, totals map[int]float64, inContinuing map[int]bool, agg map[int]map[int]float64) float64 {
	lost := 0.0
	for i := range states {
		bs := &states[i]
		if !bs.active || t.ballots[i].prefs[bs.idx] != from {
			continue
		}
		amount := bs.weight * fraction
		next, ok := nextContinuing(t.ballots[i].prefs, bs.idx+1, inContinuing)
		if !ok {
			lost += amount
			bs.active = false
			continue
		}
		totals[t.ballots[i].prefs[next]] += amount
		if agg[from] == nil {
			agg[from] = make(map[int]float64)
		}
		agg[from][t.ballots[i].prefs[next]] += amount
		bs.idx = next
		bs.weight = amount
	}
	return lost
}

// retireBallots consumes the ballots crediting an exact-quota winner.
func (t *Tabulator) retireBallots(states []ballotState, winner int) {
	for i := range states {
		bs := &states[i]
		if bs.active && t.ballots[i].prefs[bs.idx] == winner {
			bs.active = false
		}
	}
}

func nextContinuing(prefs []int, start int, inContinuing map[int]bool) (int, bool) {
	for i := start; i < len(prefs); i++ {
		if inContinuing[prefs[i]] {
			return i, true
		}
	}
	return 0, false
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func sortedCopy(ids []int) []int {
	out := append([]int{}, ids...)
	sort.Ints(out)
	return out
}

func copyTotals(totals map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(totals))
	for k, v := range totals {
		out[k] = v
	}
	return out
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

func flattenTransfers(agg map[int]map[int]float64) []models.Transfer {
	out := []models.Transfer{}
	var froms []int
	for f := range agg {
		froms = append(froms, f)
	}
	sort.Ints(froms)
	for _, f := range froms {
		var tos []int
		for to := range agg[f] {
			tos = append(tos, to)
		}
		sort.Ints(tos)
		for _, to := range tos {
			out = append(out, models.Transfer{From: f, To: to, Amount: agg[f][to]})
		}
	}
	return out
}
