// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cvrparse

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"rcvtally/models"
)

// Fixed leading columns of a wide-format cast-vote-record export.
// Every later column is a choice column named "<candidate>:<rank>".
var fixedColumns = []string{"BallotID", "PrecinctID", "BallotStyleID", "Status"}

// Stats summarizes one parse pass.
type Stats struct {
	TotalRows        int `json:"total_rows"`
	BallotsLoaded    int `json:"ballots_loaded"`
	VoteRecords      int `json:"vote_records"`
	SkippedStatus    int `json:"skipped_status"`
	SkippedOvervote  int `json:"skipped_overvote"`
	DuplicateBallots int `json:"duplicate_ballots"`
	GeneratedIDs     int `json:"generated_ids"`
	MinRank          int `json:"min_rank"`
	MaxRank          int `json:"max_rank"`
}

// Result is the normalized output of a parse: the candidate table plus
// long-format preference rows ready for the ballot store.
type Result struct {
	Candidates  []models.Candidate
	Preferences []models.BallotPreference
	Stats       Stats
}

// choiceColumn maps one CSV column to a (candidate, rank) cell.
type choiceColumn struct {
	candidateID int
	rank        int
}

// Parse transforms a wide-format CVR CSV into candidates and long-format
// ballot preferences. Rows with a nonzero Status are skipped; ballots
// marking two candidates at the same rank are dropped whole as overvotes so
// downstream tabulation input stays valid. Ballots without an id get a
// generated one.
func Parse(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cvrparse: failed to read header: %w", err)
	}

	if len(header) < len(fixedColumns) {
		return nil, fmt.Errorf("cvrparse: header has %d columns, want at least %d", len(header), len(fixedColumns))
	}
	for i, want := range fixedColumns {
		if header[i] != want {
			return nil, fmt.Errorf("cvrparse: column %d is %q, want %q", i, header[i], want)
		}
	}

	res := &Result{}
	choices := make(map[int]choiceColumn) // column index -> choice
	candidateIDs := make(map[string]int)
	for i := len(fixedColumns); i < len(header); i++ {
		name, rank, err := splitChoiceHeader(header[i])
		if err != nil {
			return nil, fmt.Errorf("cvrparse: column %d: %w", i, err)
		}
		id, ok := candidateIDs[name]
		if !ok {
			id = len(candidateIDs) + 1
			candidateIDs[name] = id
			res.Candidates = append(res.Candidates, models.Candidate{ID: id, Name: name})
		}
		choices[i] = choiceColumn{candidateID: id, rank: rank}
	}

	seenBallots := make(map[string]bool)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cvrparse: failed to read row: %w", err)
		}
		res.Stats.TotalRows++

		if strings.TrimSpace(row[3]) != "0" {
			res.Stats.SkippedStatus++
			continue
		}

		ballotID := strings.TrimSpace(row[0])
		if ballotID == "" {
			ballotID = uuid.NewString()
			res.Stats.GeneratedIDs++
		}
		if seenBallots[ballotID] {
			res.Stats.DuplicateBallots++
			continue
		}
		seenBallots[ballotID] = true

		prefs, overvote := extractPreferences(ballotID, row, choices)
		if overvote {
			res.Stats.SkippedOvervote++
			continue
		}
		for _, p := range prefs {
			if res.Stats.VoteRecords == 0 || p.Rank < res.Stats.MinRank {
				res.Stats.MinRank = p.Rank
			}
			if p.Rank > res.Stats.MaxRank {
				res.Stats.MaxRank = p.Rank
			}
			res.Stats.VoteRecords++
		}
		res.Preferences = append(res.Preferences, prefs...)
		res.Stats.BallotsLoaded++
	}

	slog.Info("CVR parse complete",
		"ballots", res.Stats.BallotsLoaded,
		"vote_records", res.Stats.VoteRecords,
		"candidates", len(res.Candidates),
		"skipped_status", res.Stats.SkippedStatus,
		"skipped_overvote", res.Stats.SkippedOvervote,
		"duplicates", res.Stats.DuplicateBallots,
	)
	return res, nil
}

// extractPreferences pulls the marked cells out of one row. A rank marked
// for two candidates, or a candidate marked at two ranks, is an overvote.
func extractPreferences(ballotID string, row []string, choices map[int]choiceColumn) ([]models.BallotPreference, bool) {
	var prefs []models.BallotPreference
	rankTaken := make(map[int]bool)
	candTaken := make(map[int]bool)
	for i := len(fixedColumns); i < len(row); i++ {
		if strings.TrimSpace(row[i]) != "1" {
			continue
		}
		choice, ok := choices[i]
		if !ok {
			continue
		}
		if rankTaken[choice.rank] || candTaken[choice.candidateID] {
			return nil, true
		}
		rankTaken[choice.rank] = true
		candTaken[choice.candidateID] = true
		prefs = append(prefs, models.BallotPreference{
			BallotID:    ballotID,
			CandidateID: choice.candidateID,
			Rank:        choice.rank,
		})
	}
	return prefs, false
}

// splitChoiceHeader parses "<candidate name>:<rank>".
func splitChoiceHeader(col string) (string, int, error) {
	idx := strings.LastIndex(col, ":")
	if idx <= 0 || idx == len(col)-1 {
		return "", 0, fmt.Errorf("malformed choice column %q", col)
	}
	name := strings.TrimSpace(col[:idx])
	rank := 0
	if _, err := fmt.Sscanf(col[idx+1:], "%d", &rank); err != nil || rank < 1 {
		return "", 0, fmt.Errorf("malformed rank in choice column %q", col)
	}
	return name, rank, nil
}
