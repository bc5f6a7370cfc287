// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coalition

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"rcvtally/models"
)

// Coalition strength blend weights for the proximity_weighted method.
const (
	normalizedWeight = 0.2
	proximityWeight  = 0.8
)

// Lift scores are capped so comparisons stay bounded.
const liftCap = 2.0

// Options configures one analysis pass. The zero value means: include every
// pair, basic method, raw normalization, one worker per CPU.
type Options struct {
	MinSharedBallots int
	Method           models.Method
	Normalize        models.Normalize
	// Workers bounds the number of concurrent pair computations.
	// Zero means runtime.NumCPU().
	Workers int
}

func (o *Options) setDefaults() error {
	if o.Method == "" {
		o.Method = models.MethodBasic
	}
	if o.Normalize == "" {
		o.Normalize = models.NormalizeRaw
	}
	if !o.Method.Valid() {
		return fmt.Errorf("coalition: unknown method %q", o.Method)
	}
	if !o.Normalize.Valid() {
		return fmt.Errorf("coalition: unknown normalization %q", o.Normalize)
	}
	if o.MinSharedBallots < 0 {
		return fmt.Errorf("coalition: min shared ballots must be >= 0, got %d", o.MinSharedBallots)
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return nil
}

// rankedBallot is one (ballot, rank) appearance of a candidate, kept sorted
// by ballot id so pair intersection is deterministic.
type rankedBallot struct {
	ballotID string
	rank     int
}

// Engine computes pairwise candidate affinity from an immutable ballot
// snapshot. The snapshot is read-only after construction, so Analyze is safe
// to call concurrently and pair computations share it without locking.
type Engine struct {
	candidates  []models.Candidate // sorted by id ascending
	names       map[int]string
	appearances map[int][]rankedBallot
}

// NewEngine builds the per-candidate appearance index. A preference row
// referencing an unknown candidate rejects the whole input.
func NewEngine(candidates []models.Candidate, prefs []models.BallotPreference) (*Engine, error) {
	e := &Engine{
		names:       make(map[int]string, len(candidates)),
		appearances: make(map[int][]rankedBallot, len(candidates)),
	}
	for _, c := range candidates {
		e.names[c.ID] = c.Name
	}
	for _, p := range prefs {
		if _, ok := e.names[p.CandidateID]; !ok {
			return nil, fmt.Errorf("coalition: ballot %q references unknown candidate %d", p.BallotID, p.CandidateID)
		}
		e.appearances[p.CandidateID] = append(e.appearances[p.CandidateID], rankedBallot{ballotID: p.BallotID, rank: p.Rank})
	}

	e.candidates = append([]models.Candidate(nil), candidates...)
	sort.Slice(e.candidates, func(i, j int) bool { return e.candidates[i].ID < e.candidates[j].ID })
	for id := range e.appearances {
		app := e.appearances[id]
		sort.Slice(app, func(i, j int) bool { return app[i].ballotID < app[j].ballotID })
		for i := 1; i < len(app); i++ {
			if app[i].ballotID == app[i-1].ballotID {
				return nil, fmt.Errorf("coalition: ballot %q ranks candidate %d twice", app[i].ballotID, id)
			}
		}
	}
	return e, nil
}

// Analyze computes one AffinityPair per unordered candidate pair with at
// least MinSharedBallots co-occurrences, sorted by coalition strength
// descending. Pairs are computed concurrently over the shared read-only
// snapshot; output order is deterministic.
func (e *Engine) Analyze(opts Options) ([]models.AffinityPair, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}

	type pairKey struct{ a, b int }
	var keys []pairKey
	for i := 0; i < len(e.candidates); i++ {
		for j := i + 1; j < len(e.candidates); j++ {
			keys = append(keys, pairKey{e.candidates[i].ID, e.candidates[j].ID})
		}
	}

	results := make([]models.AffinityPair, len(keys))
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, k := range keys {
		g.Go(func() error {
			results[i] = e.analyzePair(k.a, k.b, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pairs := results[:0:0]
	for _, p := range results {
		if p.SharedBallots >= opts.MinSharedBallots {
			pairs = append(pairs, p)
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].CoalitionStrength != pairs[j].CoalitionStrength {
			return pairs[i].CoalitionStrength > pairs[j].CoalitionStrength
		}
		if pairs[i].Candidate1 != pairs[j].Candidate1 {
			return pairs[i].Candidate1 < pairs[j].Candidate1
		}
		return pairs[i].Candidate2 < pairs[j].Candidate2
	})

	slog.Info("affinity analysis complete",
		"pairs", len(pairs),
		"method", opts.Method,
		"normalize", opts.Normalize,
	)
	return pairs, nil
}

// analyzePair computes all metrics for one candidate pair. a < b.
func (e *Engine) analyzePair(a, b int, opts Options) models.AffinityPair {
	appA, appB := e.appearances[a], e.appearances[b]
	totalA, totalB := len(appA), len(appB)

	// Merge-intersect the two sorted appearance lists by ballot id.
	distances := []int{}
	i, j := 0, 0
	for i < totalA && j < totalB {
		switch {
		case appA[i].ballotID < appB[j].ballotID:
			i++
		case appA[i].ballotID > appB[j].ballotID:
			j++
		default:
			d := appA[i].rank - appB[j].rank
			if d < 0 {
				d = -d
			}
			distances = append(distances, d)
			i++
			j++
		}
	}
	shared := len(distances)

	pair := models.AffinityPair{
		Candidate1:       a,
		Candidate1Name:   e.names[a],
		Candidate2:       b,
		Candidate2Name:   e.names[b],
		SharedBallots:    shared,
		TotalBallots1:    totalA,
		TotalBallots2:    totalB,
		RankingDistances: distances,
	}

	distSum, strong, weak := 0, 0, 0
	proximitySum := 0.0
	for k, d := range distances {
		distSum += d
		if d <= 2 {
			strong++
		}
		if d >= 4 {
			weak++
		}
		if k == 0 {
			pair.MinRankingDistance = d
			pair.MaxRankingDistance = d
		} else {
			if d < pair.MinRankingDistance {
				pair.MinRankingDistance = d
			}
			if d > pair.MaxRankingDistance {
				pair.MaxRankingDistance = d
			}
		}
		proximitySum += 1.0 / (1.0 + float64(d))
	}
	pair.StrongCoalitionVotes = strong
	pair.WeakCoalitionVotes = weak
	if shared > 0 {
		pair.AvgRankingDistance = float64(distSum) / float64(shared)
		pair.ProximityWeightedAffinity = proximitySum / float64(shared)
	}

	pair.BasicAffinity = jaccard(shared, totalA, totalB)
	pair.NormalizedAffinity = normalizedAffinity(opts.Normalize, pair.BasicAffinity, shared, totalA, totalB)

	switch opts.Method {
	case models.MethodProximityWeighted:
		pair.CoalitionStrength = clamp01(normalizedWeight*pair.NormalizedAffinity + proximityWeight*pair.ProximityWeightedAffinity)
	default:
		pair.CoalitionStrength = clamp01(pair.NormalizedAffinity)
	}
	pair.CoalitionType = classify(pair.AvgRankingDistance, strong, weak, shared)

	return pair
}

// jaccard is shared / |union|; zero when the union is empty.
func jaccard(shared, totalA, totalB int) float64 {
	union := totalA + totalB - shared
	if union <= 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func normalizedAffinity(mode models.Normalize, basic float64, shared, totalA, totalB int) float64 {
	switch mode {
	case models.NormalizeConditional:
		// P(B|A) where A is the lower-id candidate of the pair. Conditional
		// probability is asymmetric; the lower id is always the "given" side.
		if totalA <= 0 {
			return 0
		}
		return float64(shared) / float64(totalA)
	case models.NormalizeLift:
		// Lift against a shared denominator so the full ballot universe size
		// is not needed. Capped to keep comparisons bounded.
		total := maxInt(totalA, maxInt(totalB, shared))
		if total <= 0 {
			return 0
		}
		pA := float64(totalA) / float64(total)
		pB := float64(totalB) / float64(total)
		pAB := float64(shared) / float64(total)
		if pA*pB <= 0 {
			return 0
		}
		lift := pAB / (pA * pB)
		if lift > liftCap {
			return liftCap
		}
		return lift
	default:
		return basic
	}
}

// classify buckets a pair by how close its supporters rank the two
// candidates when they appear together.
func classify(avgDistance float64, strong, weak, shared int) string {
	if shared <= 0 {
		return models.CoalitionWeak
	}
	strongRatio := float64(strong) / float64(shared)
	weakRatio := float64(weak) / float64(shared)
	switch {
	case avgDistance <= 1.5 && strongRatio >= 0.6:
		return models.CoalitionStrong
	case avgDistance <= 2.5 && strongRatio >= 0.4:
		return models.CoalitionModerate
	case weakRatio >= 0.5:
		return models.CoalitionStrategic
	default:
		return models.CoalitionWeak
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
