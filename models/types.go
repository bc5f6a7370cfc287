// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Candidate result status constants
const (
	StatusElected    = "elected"
	StatusNotElected = "not_elected"
)

// Method selects how coalition strength is composed from the
// per-pair affinity metrics.
type Method string

const (
	MethodBasic             Method = "basic"
	MethodProximityWeighted Method = "proximity_weighted"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == MethodBasic || m == MethodProximityWeighted
}

// Normalize selects the normalization scheme for the pairwise
// co-occurrence score.
type Normalize string

const (
	NormalizeRaw         Normalize = "raw"
	NormalizeConditional Normalize = "conditional"
	NormalizeLift        Normalize = "lift"
)

// Valid reports whether n is a known normalization scheme.
func (n Normalize) Valid() bool {
	return n == NormalizeRaw || n == NormalizeConditional || n == NormalizeLift
}

// Coalition type constants
const (
	CoalitionStrong    = "strong"
	CoalitionModerate  = "moderate"
	CoalitionWeak      = "weak"
	CoalitionStrategic = "strategic"
)

// Domain types

type Candidate struct {
	ID   int    `json:"candidate_id"`
	Name string `json:"candidate_name"`
}

// BallotPreference is one ranked choice: one row per (ballot, candidate).
// Within a ballot there is at most one row per rank and one row per candidate.
type BallotPreference struct {
	BallotID    string `json:"ballot_id"`
	CandidateID int    `json:"candidate_id"`
	Rank        int    `json:"rank_position"`
}

// Transfer records a vote movement between candidates during one round.
type Transfer struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Amount float64 `json:"amount"`
}

// Round is an immutable snapshot of one tabulation round.
// VoteTotals covers every candidate; eliminated candidates hold zero and
// elected candidates hold the quota once their surplus has been transferred.
type Round struct {
	Number               int             `json:"round_number"`
	Continuing           []int           `json:"continuing"`
	VoteTotals           map[int]float64 `json:"vote_totals"`
	Quota                float64         `json:"quota"`
	WinnersThisRound     []int           `json:"winners_this_round"`
	EliminatedThisRound  []int           `json:"eliminated_this_round"`
	Transfers            []Transfer      `json:"transfers"`
	ExhaustedVotes       float64         `json:"exhausted_votes"`
	TotalContinuingVotes float64         `json:"total_continuing_votes"`
}

// CandidateResult is the final per-candidate outcome of an election run.
// ElectionRound is nil for candidates that were not elected.
type CandidateResult struct {
	CandidateID   int     `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	FinalVotes    float64 `json:"final_votes"`
	Status        string  `json:"status"`
	ElectionRound *int    `json:"election_round"`
}

// AffinityPair holds the co-occurrence and ranking-proximity metrics for one
// unordered candidate pair. Candidate1 < Candidate2 always.
type AffinityPair struct {
	Candidate1     int    `json:"candidate_1"`
	Candidate1Name string `json:"candidate_1_name"`
	Candidate2     int    `json:"candidate_2"`
	Candidate2Name string `json:"candidate_2_name"`

	SharedBallots int `json:"shared_ballots"`
	TotalBallots1 int `json:"total_ballots_1"`
	TotalBallots2 int `json:"total_ballots_2"`

	RankingDistances   []int   `json:"ranking_distances"`
	AvgRankingDistance float64 `json:"avg_ranking_distance"`
	MinRankingDistance int     `json:"min_ranking_distance"`
	MaxRankingDistance int     `json:"max_ranking_distance"`

	// Ballots where the pair is ranked close (distance <= 2) or far (>= 4)
	StrongCoalitionVotes int `json:"strong_coalition_votes"`
	WeakCoalitionVotes   int `json:"weak_coalition_votes"`

	BasicAffinity             float64 `json:"basic_affinity"`
	NormalizedAffinity        float64 `json:"normalized_affinity"`
	ProximityWeightedAffinity float64 `json:"proximity_weighted_affinity"`
	CoalitionStrength         float64 `json:"coalition_strength"`
	CoalitionType             string  `json:"coalition_type"`
}

// Response types

type SummaryResponse struct {
	CandidateCount   int `json:"candidate_count"`
	BallotCount      int `json:"ballot_count"`
	VoteRecordCount  int `json:"vote_record_count"`
	FirstChoiceTotal int `json:"first_choice_total"`
}

type FirstChoiceRow struct {
	CandidateID   int    `json:"candidate_id" csv:"candidate_id"`
	CandidateName string `json:"candidate_name" csv:"candidate_name"`
	Votes         int    `json:"votes" csv:"votes"`
}

type STVResultsResponse struct {
	Seats   int               `json:"seats"`
	Quota   float64           `json:"quota"`
	Rounds  []Round           `json:"rounds"`
	Winners []int             `json:"winners"`
	Results []CandidateResult `json:"results"`
}

type ClustersResponse struct {
	MinStrength  float64 `json:"min_strength"`
	MinGroupSize int     `json:"min_group_size"`
	Clusters     [][]int `json:"clusters"`
}

type VerifyResponse struct {
	Passed                    bool      `json:"passed"`
	WinnersMatch              bool      `json:"winners_match"`
	OfficialWinners           []string  `json:"official_winners"`
	OurWinners                []string  `json:"our_winners"`
	MissingWinners            []string  `json:"missing_winners"`
	ExtraWinners              []string  `json:"extra_winners"`
	TotalVoteDifference       float64   `json:"total_vote_difference"`
	CandidatesWithDifferences int       `json:"candidates_with_differences"`
	VerifiedAt                time.Time `json:"verified_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
