// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package candidatemetrics

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"rcvtally/models"
)

// ErrUnknownCandidate is returned when an analysis is requested for a
// candidate id that is not in the loaded candidate set.
var ErrUnknownCandidate = errors.New("unknown candidate")

// Rank positions 1..6 carry descending weight in the vote strength index;
// deeper ranks contribute nothing.
const maxWeightedRank = 6

// topPartnerLimit caps the coalition partner list on a profile.
const topPartnerLimit = 5

// topDestinationLimit caps the destination list on a transfer analysis.
const topDestinationLimit = 10

// Partner is one coalition partner on a candidate profile: how often the two
// appear on the same ballot and how closely they are ranked there.
type Partner struct {
	CandidateID     int     `json:"candidate_id"`
	CandidateName   string  `json:"candidate_name"`
	SharedBallots   int     `json:"shared_ballots"`
	AvgRankDistance float64 `json:"avg_rank_distance"`
	// Score is shared_ballots / (avg_rank_distance + 1): many shared
	// ballots ranked close together score highest.
	Score float64 `json:"score"`
}

// Profile is the full per-candidate analysis served by the candidate
// analysis endpoint.
type Profile struct {
	CandidateID          int       `json:"candidate_id"`
	CandidateName        string    `json:"candidate_name"`
	TotalBallots         int       `json:"total_ballots"`
	FirstChoiceVotes     int       `json:"first_choice_votes"`
	FirstChoicePct       float64   `json:"first_choice_percentage"`
	VoteStrengthIndex    float64   `json:"vote_strength_index"`
	CrossCampAppeal      float64   `json:"cross_camp_appeal"`
	TransferEfficiency   float64   `json:"transfer_efficiency"`
	RankingConsistency   float64   `json:"ranking_consistency"`
	BulletVoters         int       `json:"bullet_voters"`
	BulletVoterPct       float64   `json:"bullet_voter_percentage"`
	TopCoalitionPartners []Partner `json:"top_coalition_partners"`
}

// Destination is one candidate that appears after the analyzed candidate on
// shared ballots, a potential recipient of transferred votes.
type Destination struct {
	CandidateID     int     `json:"candidate_id"`
	CandidateName   string  `json:"candidate_name"`
	TransferVotes   int     `json:"transfer_votes"`
	AvgRankDistance float64 `json:"avg_rank_distance"`
	MinRankDistance int     `json:"min_rank_distance"`
}

// Transfer pattern classifications.
const (
	PatternNone         = "none"
	PatternConcentrated = "concentrated"
	PatternDispersed    = "dispersed"
)

// TransferAnalysis describes how effectively a candidate's votes could
// transfer to later preferences if the candidate departed.
type TransferAnalysis struct {
	CandidateID         int    `json:"candidate_id"`
	CandidateName       string `json:"candidate_name"`
	TotalTransferable   int    `json:"total_transferable_votes"`
	SuccessfulTransfers int    `json:"successful_transfers"`
	// EfficiencyRate counts every later preference, so it can exceed 1
	// when ballots list several fallbacks.
	EfficiencyRate      float64       `json:"transfer_efficiency_rate"`
	AvgTransferDistance float64       `json:"avg_transfer_distance"`
	TopDestinations     []Destination `json:"top_transfer_destinations"`
	PatternType         string        `json:"transfer_pattern_type"`
}

// Behavior summarizes the voting patterns of a candidate's supporters.
type Behavior struct {
	CandidateID         int         `json:"candidate_id"`
	CandidateName       string      `json:"candidate_name"`
	BulletVoters        int         `json:"bullet_voters"`
	BulletVoterPct      float64     `json:"bullet_voter_percentage"`
	AvgRankingPosition  float64     `json:"avg_ranking_position"`
	RankingDistribution map[int]int `json:"ranking_distribution"`
	ConsistencyScore    float64     `json:"consistency_score"`
	PolarizationIndex   float64     `json:"polarization_index"`
}

// SummaryRow is the compact per-candidate entry in the all-candidates
// metrics summary.
type SummaryRow struct {
	CandidateID       int     `json:"candidate_id"`
	CandidateName     string  `json:"candidate_name"`
	TotalBallots      int     `json:"total_ballots"`
	FirstChoiceVotes  int     `json:"first_choice_votes"`
	FirstChoicePct    float64 `json:"first_choice_percentage"`
	VoteStrengthIndex float64 `json:"vote_strength_index"`
	CrossCampAppeal   float64 `json:"cross_camp_appeal"`
}

// appearance is one (ballot, rank) occurrence of a candidate.
type appearance struct {
	ballotID string
	rank     int
}

// rankedEntry is one candidate at one rank on a ballot.
type rankedEntry struct {
	candidateID int
	rank        int
}

// Analyzer computes per-candidate metrics from an immutable ballot snapshot.
// Construct once with NewAnalyzer; all methods are read-only and safe to
// call concurrently.
type Analyzer struct {
	candidates  []models.Candidate // sorted by id ascending
	names       map[int]string
	appearances map[int][]appearance
	// ballots maps ballot id to its entries sorted by rank ascending.
	ballots      map[string][]rankedEntry
	totalBallots int
}

// NewAnalyzer validates the preference rows and builds the candidate and
// ballot indexes. A row referencing an unknown candidate rejects the whole
// input.
func NewAnalyzer(candidates []models.Candidate, prefs []models.BallotPreference) (*Analyzer, error) {
	a := &Analyzer{
		names:       make(map[int]string, len(candidates)),
		appearances: make(map[int][]appearance, len(candidates)),
		ballots:     make(map[string][]rankedEntry),
	}
	for _, c := range candidates {
		a.names[c.ID] = c.Name
	}
	for _, p := range prefs {
		if _, ok := a.names[p.CandidateID]; !ok {
			return nil, fmt.Errorf("candidatemetrics: ballot %q references unknown candidate %d", p.BallotID, p.CandidateID)
		}
		a.appearances[p.CandidateID] = append(a.appearances[p.CandidateID], appearance{ballotID: p.BallotID, rank: p.Rank})
		a.ballots[p.BallotID] = append(a.ballots[p.BallotID], rankedEntry{candidateID: p.CandidateID, rank: p.Rank})
	}

	a.candidates = append([]models.Candidate(nil), candidates...)
	sort.Slice(a.candidates, func(i, j int) bool { return a.candidates[i].ID < a.candidates[j].ID })
	for id := range a.appearances {
		app := a.appearances[id]
		sort.Slice(app, func(i, j int) bool { return app[i].ballotID < app[j].ballotID })
	}
	for id := range a.ballots {
		entries := a.ballots[id]
		sort.Slice(entries, func(i, j int) bool { return entries[i].rank < entries[j].rank })
	}
	a.totalBallots = len(a.ballots)
	return a, nil
}

// ProfileByName resolves a candidate by case-insensitive name and computes
// their profile.
func (a *Analyzer) ProfileByName(name string) (*Profile, error) {
	for _, c := range a.candidates {
		if strings.EqualFold(c.Name, name) {
			return a.Profile(c.ID)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCandidate, name)
}

// Profile computes the full metrics profile for one candidate.
func (a *Analyzer) Profile(candidateID int) (*Profile, error) {
	name, ok := a.names[candidateID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCandidate, candidateID)
	}

	app := a.appearances[candidateID]
	firstChoice := 0
	for _, ap := range app {
		if ap.rank == 1 {
			firstChoice++
		}
	}

	p := &Profile{
		CandidateID:          candidateID,
		CandidateName:        name,
		TotalBallots:         len(app),
		FirstChoiceVotes:     firstChoice,
		VoteStrengthIndex:    a.voteStrengthIndex(candidateID),
		CrossCampAppeal:      a.crossCampAppeal(candidateID),
		TransferEfficiency:   a.transferRate(candidateID),
		RankingConsistency:   a.rankingConsistency(candidateID),
		TopCoalitionPartners: a.topPartners(candidateID, topPartnerLimit),
	}
	if a.totalBallots > 0 {
		p.FirstChoicePct = float64(firstChoice) / float64(a.totalBallots) * 100
	}
	p.BulletVoters = a.bulletVoters(candidateID)
	if len(app) > 0 {
		p.BulletVoterPct = float64(p.BulletVoters) / float64(len(app)) * 100
	}

	slog.Debug("candidate profile computed", "candidate", candidateID, "ballots", p.TotalBallots)
	return p, nil
}

// TransferAnalysis computes the detailed transfer picture for one candidate.
func (a *Analyzer) TransferAnalysis(candidateID int) (*TransferAnalysis, error) {
	name, ok := a.names[candidateID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCandidate, candidateID)
	}

	type destAgg struct {
		votes   int
		distSum int
		minDist int
	}
	agg := make(map[int]*destAgg)
	transferable := 0
	for _, ap := range a.appearances[candidateID] {
		hasNext := false
		for _, entry := range a.ballots[ap.ballotID] {
			if entry.candidateID == candidateID || entry.rank <= ap.rank {
				continue
			}
			hasNext = true
			dist := entry.rank - ap.rank
			d, ok := agg[entry.candidateID]
			if !ok {
				d = &destAgg{minDist: dist}
				agg[entry.candidateID] = d
			}
			d.votes++
			d.distSum += dist
			if dist < d.minDist {
				d.minDist = dist
			}
		}
		if hasNext {
			transferable++
		}
	}

	destinations := make([]Destination, 0, len(agg))
	successful := 0
	for id, d := range agg {
		successful += d.votes
		destinations = append(destinations, Destination{
			CandidateID:     id,
			CandidateName:   a.names[id],
			TransferVotes:   d.votes,
			AvgRankDistance: float64(d.distSum) / float64(d.votes),
			MinRankDistance: d.minDist,
		})
	}
	sort.Slice(destinations, func(i, j int) bool {
		if destinations[i].TransferVotes != destinations[j].TransferVotes {
			return destinations[i].TransferVotes > destinations[j].TransferVotes
		}
		return destinations[i].CandidateID < destinations[j].CandidateID
	})

	ta := &TransferAnalysis{
		CandidateID:         candidateID,
		CandidateName:       name,
		TotalTransferable:   transferable,
		SuccessfulTransfers: successful,
		PatternType:         PatternNone,
	}
	if transferable > 0 {
		ta.EfficiencyRate = float64(successful) / float64(transferable)
	}
	if len(destinations) > 0 {
		distSum := 0.0
		for _, d := range destinations {
			distSum += d.AvgRankDistance
		}
		ta.AvgTransferDistance = distSum / float64(len(destinations))
		topShare := float64(destinations[0].TransferVotes) / float64(successful)
		if len(destinations) <= 3 || topShare > 0.5 {
			ta.PatternType = PatternConcentrated
		} else {
			ta.PatternType = PatternDispersed
		}
	}
	if len(destinations) > topDestinationLimit {
		destinations = destinations[:topDestinationLimit]
	}
	ta.TopDestinations = destinations
	return ta, nil
}

// Behavior computes the supporter behavior analysis for one candidate.
func (a *Analyzer) Behavior(candidateID int) (*Behavior, error) {
	name, ok := a.names[candidateID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCandidate, candidateID)
	}

	app := a.appearances[candidateID]
	b := &Behavior{
		CandidateID:         candidateID,
		CandidateName:       name,
		BulletVoters:        a.bulletVoters(candidateID),
		RankingDistribution: make(map[int]int),
		ConsistencyScore:    a.rankingConsistency(candidateID),
	}

	rankSum := 0
	for _, ap := range app {
		rankSum += ap.rank
		b.RankingDistribution[ap.rank]++
	}
	if len(app) > 0 {
		b.AvgRankingPosition = float64(rankSum) / float64(len(app))
		b.BulletVoterPct = float64(b.BulletVoters) / float64(len(app)) * 100
	}
	// Heavy bullet voting marks a polarizing candidate: supporters either
	// rank them alone or not at all.
	b.PolarizationIndex = b.BulletVoterPct / 100
	return b, nil
}

// Summary returns the compact metrics row for every candidate, ordered by
// candidate id ascending.
func (a *Analyzer) Summary() []SummaryRow {
	rows := make([]SummaryRow, 0, len(a.candidates))
	for _, c := range a.candidates {
		app := a.appearances[c.ID]
		firstChoice := 0
		for _, ap := range app {
			if ap.rank == 1 {
				firstChoice++
			}
		}
		row := SummaryRow{
			CandidateID:       c.ID,
			CandidateName:     c.Name,
			TotalBallots:      len(app),
			FirstChoiceVotes:  firstChoice,
			VoteStrengthIndex: a.voteStrengthIndex(c.ID),
			CrossCampAppeal:   a.crossCampAppeal(c.ID),
		}
		if a.totalBallots > 0 {
			row.FirstChoicePct = float64(firstChoice) / float64(a.totalBallots) * 100
		}
		rows = append(rows, row)
	}
	slog.Info("candidate metrics summary computed", "candidates", len(rows))
	return rows
}

// voteStrengthIndex weights each appearance by rank (1st = 6 points, 2nd = 5,
// down to 0 past rank 6) and normalizes against an all-first-choice maximum.
func (a *Analyzer) voteStrengthIndex(candidateID int) float64 {
	app := a.appearances[candidateID]
	if len(app) == 0 {
		return 0
	}
	weighted := 0
	for _, ap := range app {
		if w := maxWeightedRank + 1 - ap.rank; w > 0 {
			weighted += w
		}
	}
	return float64(weighted) / float64(len(app)*maxWeightedRank)
}

// crossCampAppeal measures how broadly a candidate's supporters rank across
// the field: the mean count of distinct candidates on their ballots, scaled
// to [0, 1] against a six-rank ballot.
func (a *Analyzer) crossCampAppeal(candidateID int) float64 {
	app := a.appearances[candidateID]
	if len(app) == 0 {
		return 0
	}
	maxPossible := len(a.candidates)
	if maxPossible > maxWeightedRank {
		maxPossible = maxWeightedRank
	}
	if maxPossible <= 1 {
		return 0
	}
	rankedSum := 0
	for _, ap := range app {
		rankedSum += len(a.ballots[ap.ballotID])
	}
	avg := float64(rankedSum) / float64(len(app))
	appeal := (avg - 1) / float64(maxPossible-1)
	if appeal < 0 {
		return 0
	}
	if appeal > 1 {
		return 1
	}
	return appeal
}

// transferRate is the fraction of a candidate's ballots that list at least
// one later preference for someone else.
func (a *Analyzer) transferRate(candidateID int) float64 {
	app := a.appearances[candidateID]
	if len(app) == 0 {
		return 0
	}
	transferable := 0
	for _, ap := range app {
		for _, entry := range a.ballots[ap.ballotID] {
			if entry.candidateID != candidateID && entry.rank > ap.rank {
				transferable++
				break
			}
		}
	}
	return float64(transferable) / float64(len(app))
}

// rankingConsistency is an entropy measure over the rank-position
// distribution: 1 when every supporter uses the same position, approaching 0
// as rankings scatter.
func (a *Analyzer) rankingConsistency(candidateID int) float64 {
	counts := make(map[int]int)
	total := 0
	for _, ap := range a.appearances[candidateID] {
		counts[ap.rank]++
		total++
	}
	if total == 0 {
		return 0
	}
	if len(counts) == 1 {
		return 1
	}
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return 1 - entropy/math.Log2(float64(len(counts)))
}

// bulletVoters counts ballots that rank this candidate and nobody else.
func (a *Analyzer) bulletVoters(candidateID int) int {
	bullets := 0
	for _, ap := range a.appearances[candidateID] {
		if len(a.ballots[ap.ballotID]) == 1 {
			bullets++
		}
	}
	return bullets
}

// topPartners ranks the other candidates by shared-ballot coalition score.
func (a *Analyzer) topPartners(candidateID, limit int) []Partner {
	myRanks := make(map[string]int, len(a.appearances[candidateID]))
	for _, ap := range a.appearances[candidateID] {
		myRanks[ap.ballotID] = ap.rank
	}

	partners := []Partner{}
	for _, c := range a.candidates {
		if c.ID == candidateID {
			continue
		}
		shared, distSum := 0, 0
		for _, ap := range a.appearances[c.ID] {
			rank, ok := myRanks[ap.ballotID]
			if !ok {
				continue
			}
			shared++
			d := ap.rank - rank
			if d < 0 {
				d = -d
			}
			distSum += d
		}
		if shared == 0 {
			continue
		}
		avgDist := float64(distSum) / float64(shared)
		partners = append(partners, Partner{
			CandidateID:     c.ID,
			CandidateName:   c.Name,
			SharedBallots:   shared,
			AvgRankDistance: avgDist,
			Score:           float64(shared) / (avgDist + 1),
		})
	}
	sort.Slice(partners, func(i, j int) bool {
		if partners[i].Score != partners[j].Score {
			return partners[i].Score > partners[j].Score
		}
		return partners[i].CandidateID < partners[j].CandidateID
	})
	if len(partners) > limit {
		partners = partners[:limit]
	}
	return partners
}
