// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballotstore

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"rcvtally/models"
)

// Store provides read and load access to the normalized ballot tables.
type Store struct {
	db *sql.DB
}

// Open connects to the ballot database. databaseType is "sqlite" or
// "postgres"; databaseURL is the driver DSN (a file path or ":memory:"
// for sqlite).
func Open(databaseType, databaseURL string) (*Store, error) {
	var driver string
	switch databaseType {
	case "sqlite":
		driver = "sqlite"
	case "postgres":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("ballotstore: unsupported database type %q", databaseType)
	}

	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ballotstore: open failed: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ballotstore: ping failed: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection (used by tests).
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the ballot tables. Safe to call multiple times.
func (s *Store) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ballotstore: failed to create schema: %w", err)
	}
	return nil
}

const schema = `
-- Reference data: one row per candidate on the ballot
CREATE TABLE IF NOT EXISTS candidates (
    candidate_id INTEGER PRIMARY KEY,
    candidate_name TEXT NOT NULL
);

-- Long-format ballot data: one row per (ballot, ranked candidate)
CREATE TABLE IF NOT EXISTS ballot_preferences (
    ballot_id TEXT NOT NULL,
    candidate_id INTEGER NOT NULL REFERENCES candidates(candidate_id),
    rank_position INTEGER NOT NULL CHECK (rank_position >= 1),
    PRIMARY KEY (ballot_id, rank_position),
    UNIQUE (ballot_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_preferences_candidate ON ballot_preferences(candidate_id);
CREATE INDEX IF NOT EXISTS idx_preferences_ballot ON ballot_preferences(ballot_id);
`

// InsertCandidates loads candidate reference rows in one transaction.
func (s *Store) InsertCandidates(candidates []models.Candidate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ballotstore: begin failed: %w", err)
	}
	defer tx.Rollback()

	for _, c := range candidates {
		if _, err := tx.Exec(`
			INSERT INTO candidates (candidate_id, candidate_name)
			VALUES ($1, $2)
		`, c.ID, c.Name); err != nil {
			return fmt.Errorf("ballotstore: insert candidate %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// InsertPreferences loads ballot preference rows in one transaction.
func (s *Store) InsertPreferences(prefs []models.BallotPreference) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ballotstore: begin failed: %w", err)
	}
	defer tx.Rollback()

	for _, p := range prefs {
		if _, err := tx.Exec(`
			INSERT INTO ballot_preferences (ballot_id, candidate_id, rank_position)
			VALUES ($1, $2, $3)
		`, p.BallotID, p.CandidateID, p.Rank); err != nil {
			return fmt.Errorf("ballotstore: insert preference (%s, %d): %w", p.BallotID, p.CandidateID, err)
		}
	}
	return tx.Commit()
}

// Candidates returns the candidate table ordered by id.
func (s *Store) Candidates() ([]models.Candidate, error) {
	rows, err := s.db.Query(`
		SELECT candidate_id, candidate_name
		FROM candidates
		ORDER BY candidate_id
	`)
	if err != nil {
		return nil, fmt.Errorf("ballotstore: query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("ballotstore: scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// Preferences returns all ballot preference rows ordered by ballot then rank.
func (s *Store) Preferences() ([]models.BallotPreference, error) {
	rows, err := s.db.Query(`
		SELECT ballot_id, candidate_id, rank_position
		FROM ballot_preferences
		ORDER BY ballot_id, rank_position
	`)
	if err != nil {
		return nil, fmt.Errorf("ballotstore: query preferences: %w", err)
	}
	defer rows.Close()

	var prefs []models.BallotPreference
	for rows.Next() {
		var p models.BallotPreference
		if err := rows.Scan(&p.BallotID, &p.CandidateID, &p.Rank); err != nil {
			return nil, fmt.Errorf("ballotstore: scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// FirstChoiceTotals returns first-preference vote counts per candidate,
// highest first.
func (s *Store) FirstChoiceTotals() ([]models.FirstChoiceRow, error) {
	rows, err := s.db.Query(`
		SELECT p.candidate_id, c.candidate_name, COUNT(*) AS votes
		FROM ballot_preferences p
		JOIN candidates c ON c.candidate_id = p.candidate_id
		WHERE p.rank_position = 1
		GROUP BY p.candidate_id, c.candidate_name
		ORDER BY votes DESC, p.candidate_id
	`)
	if err != nil {
		return nil, fmt.Errorf("ballotstore: query first-choice totals: %w", err)
	}
	defer rows.Close()

	var totals []models.FirstChoiceRow
	for rows.Next() {
		var r models.FirstChoiceRow
		if err := rows.Scan(&r.CandidateID, &r.CandidateName, &r.Votes); err != nil {
			return nil, fmt.Errorf("ballotstore: scan first-choice row: %w", err)
		}
		totals = append(totals, r)
	}
	return totals, rows.Err()
}

// Summary returns high-level counts for the loaded election.
func (s *Store) Summary() (models.SummaryResponse, error) {
	var sum models.SummaryResponse
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM candidates),
			(SELECT COUNT(DISTINCT ballot_id) FROM ballot_preferences),
			(SELECT COUNT(*) FROM ballot_preferences),
			(SELECT COUNT(*) FROM ballot_preferences WHERE rank_position = 1)
	`).Scan(&sum.CandidateCount, &sum.BallotCount, &sum.VoteRecordCount, &sum.FirstChoiceTotal)
	if err != nil {
		return models.SummaryResponse{}, fmt.Errorf("ballotstore: query summary: %w", err)
	}
	return sum, nil
}
