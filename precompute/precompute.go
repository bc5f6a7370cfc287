// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package precompute

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"rcvtally/ballotstore"
	"rcvtally/cliparse"
	"rcvtally/coalition"
	"rcvtally/models"
	"rcvtally/stv"
)

// Snapshot is a fully computed analysis of one loaded election: every answer
// the API can serve, serialized once so static hosting needs no database.
type Snapshot struct {
	ID          string    `json:"snapshot_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Summary     models.SummaryResponse    `json:"summary"`
	Candidates  []models.Candidate        `json:"candidates"`
	FirstChoice []models.FirstChoiceRow   `json:"first_choice"`
	STV         models.STVResultsResponse `json:"stv_results"`
	Affinities  []models.AffinityPair     `json:"affinities"`
	Clusters    models.ClustersResponse   `json:"clusters"`
}

// ResultRow is the flat CSV shape of one candidate's final outcome.
type ResultRow struct {
	CandidateID   int     `csv:"candidate_id"`
	CandidateName string  `csv:"candidate_name"`
	FinalVotes    float64 `csv:"final_votes"`
	Status        string  `csv:"status"`
	ElectionRound int     `csv:"election_round"`
}

// Build runs the full analysis pipeline against the store and packages the
// output as a Snapshot. Election parameters come from cfg.
func Build(store *ballotstore.Store, cfg cliparse.Config) (*Snapshot, error) {
	candidates, err := store.Candidates()
	if err != nil {
		return nil, fmt.Errorf("precompute: load candidates: %w", err)
	}
	prefs, err := store.Preferences()
	if err != nil {
		return nil, fmt.Errorf("precompute: load preferences: %w", err)
	}
	summary, err := store.Summary()
	if err != nil {
		return nil, fmt.Errorf("precompute: load summary: %w", err)
	}
	firstChoice, err := store.FirstChoiceTotals()
	if err != nil {
		return nil, fmt.Errorf("precompute: load first-choice totals: %w", err)
	}

	tab, err := stv.NewTabulator(candidates, prefs)
	if err != nil {
		return nil, fmt.Errorf("precompute: build tabulator: %w", err)
	}
	rounds, winners, err := tab.Run(cfg.Seats)
	if err != nil {
		return nil, fmt.Errorf("precompute: tabulate: %w", err)
	}

	engine, err := coalition.NewEngine(candidates, prefs)
	if err != nil {
		return nil, fmt.Errorf("precompute: build affinity engine: %w", err)
	}
	pairs, err := engine.Analyze(coalition.Options{
		MinSharedBallots: cfg.MinSharedBallots,
		Method:           models.MethodProximityWeighted,
		Normalize:        models.NormalizeLift,
	})
	if err != nil {
		return nil, fmt.Errorf("precompute: analyze affinities: %w", err)
	}
	clusters := coalition.DetectClusters(pairs, cfg.MinStrength, cfg.MinGroupSize)
	if clusters == nil {
		clusters = [][]int{}
	}

	snap := &Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Candidates:  candidates,
		FirstChoice: firstChoice,
		STV: models.STVResultsResponse{
			Seats:   cfg.Seats,
			Quota:   rounds[0].Quota,
			Rounds:  rounds,
			Winners: winners,
			Results: tab.FinalResults(rounds, winners),
		},
		Affinities: pairs,
		Clusters: models.ClustersResponse{
			MinStrength:  cfg.MinStrength,
			MinGroupSize: cfg.MinGroupSize,
			Clusters:     clusters,
		},
	}

	slog.Info("snapshot built",
		"snapshot_id", snap.ID,
		"rounds", len(rounds),
		"winners", len(winners),
		"affinity_pairs", len(pairs),
		"clusters", len(clusters),
	)
	return snap, nil
}

// Write serializes the snapshot into dir as one JSON file per endpoint plus
// CSV exports and a manifest. Existing files are overwritten.
func Write(dir string, snap *Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("precompute: create output dir: %w", err)
	}

	files := map[string]interface{}{
		"summary.json":      snap.Summary,
		"candidates.json":   snap.Candidates,
		"first_choice.json": snap.FirstChoice,
		"stv_results.json":  snap.STV,
		"affinities.json":   snap.Affinities,
		"clusters.json":     snap.Clusters,
		"manifest.json": map[string]interface{}{
			"snapshot_id":  snap.ID,
			"generated_at": snap.GeneratedAt,
			"seats":        snap.STV.Seats,
			"quota":        snap.STV.Quota,
		},
	}
	for name, payload := range files {
		if err := writeJSON(filepath.Join(dir, name), payload); err != nil {
			return err
		}
	}

	fc, err := os.Create(filepath.Join(dir, "first_choice.csv"))
	if err != nil {
		return fmt.Errorf("precompute: create first_choice.csv: %w", err)
	}
	defer fc.Close()
	if err := ExportFirstChoiceCSV(fc, snap.FirstChoice); err != nil {
		return err
	}

	rc, err := os.Create(filepath.Join(dir, "results.csv"))
	if err != nil {
		return fmt.Errorf("precompute: create results.csv: %w", err)
	}
	defer rc.Close()
	if err := ExportResultsCSV(rc, snap.STV.Results); err != nil {
		return err
	}

	slog.Info("snapshot written", "dir", dir, "snapshot_id", snap.ID)
	return nil
}

// ExportFirstChoiceCSV writes the first-choice table as CSV.
func ExportFirstChoiceCSV(w io.Writer, rows []models.FirstChoiceRow) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("precompute: write first-choice csv: %w", err)
	}
	return nil
}

// ExportResultsCSV writes the final per-candidate results as CSV. A zero
// election round means the candidate was not elected.
func ExportResultsCSV(w io.Writer, results []models.CandidateResult) error {
	rows := make([]ResultRow, 0, len(results))
	for _, r := range results {
		row := ResultRow{
			CandidateID:   r.CandidateID,
			CandidateName: r.CandidateName,
			FinalVotes:    r.FinalVotes,
			Status:        r.Status,
		}
		if r.ElectionRound != nil {
			row.ElectionRound = *r.ElectionRound
		}
		rows = append(rows, row)
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("precompute: write results csv: %w", err)
	}
	return nil
}

func writeJSON(path string, payload interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("precompute: create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("precompute: encode %s: %w", filepath.Base(path), err)
	}
	return nil
}
