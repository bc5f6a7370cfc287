// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballotstore_test

import (
	"reflect"
	"testing"

	"rcvtally/ballotstore"
	"rcvtally/models"
	"rcvtally/testutil"
)

func TestOpen_UnsupportedType(t *testing.T) {
	if _, err := ballotstore.Open("mysql", "whatever"); err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	store := testutil.SetupTestStore(t)

	// SetupTestStore already created the schema once.
	if err := store.CreateSchema(); err != nil {
		t.Fatalf("second CreateSchema: %v", err)
	}
}

func TestInsertAndReadBack(t *testing.T) {
	store := testutil.SetupTestStore(t)

	seeded := testutil.SeedCandidates(t, store, "Alice", "Bob", "Carol")
	testutil.SeedBallot(t, store, "b001", 1, 2, 3)
	testutil.SeedBallot(t, store, "b002", 2, 1)
	testutil.SeedBallot(t, store, "b003", 2)

	candidates, err := store.Candidates()
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if !reflect.DeepEqual(candidates, seeded) {
		t.Errorf("candidates = %v, want %v", candidates, seeded)
	}

	prefs, err := store.Preferences()
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	want := []models.BallotPreference{
		{BallotID: "b001", CandidateID: 1, Rank: 1},
		{BallotID: "b001", CandidateID: 2, Rank: 2},
		{BallotID: "b001", CandidateID: 3, Rank: 3},
		{BallotID: "b002", CandidateID: 2, Rank: 1},
		{BallotID: "b002", CandidateID: 1, Rank: 2},
		{BallotID: "b003", CandidateID: 2, Rank: 1},
	}
	if !reflect.DeepEqual(prefs, want) {
		t.Errorf("preferences = %v, want %v", prefs, want)
	}
}

func TestInsertPreferences_RejectsDuplicateRank(t *testing.T) {
	store := testutil.SetupTestStore(t)
	testutil.SeedCandidates(t, store, "Alice", "Bob")

	err := store.InsertPreferences([]models.BallotPreference{
		{BallotID: "b001", CandidateID: 1, Rank: 1},
		{BallotID: "b001", CandidateID: 2, Rank: 1},
	})
	if err == nil {
		t.Error("expected primary key violation for duplicate (ballot, rank)")
	}

	// The transaction must have rolled back entirely.
	prefs, err := store.Preferences()
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if len(prefs) != 0 {
		t.Errorf("preferences = %v, want none after rollback", prefs)
	}
}

func TestInsertPreferences_RejectsDuplicateCandidate(t *testing.T) {
	store := testutil.SetupTestStore(t)
	testutil.SeedCandidates(t, store, "Alice")

	err := store.InsertPreferences([]models.BallotPreference{
		{BallotID: "b001", CandidateID: 1, Rank: 1},
		{BallotID: "b001", CandidateID: 1, Rank: 2},
	})
	if err == nil {
		t.Error("expected unique violation for duplicate (ballot, candidate)")
	}
}

func TestFirstChoiceTotals(t *testing.T) {
	store := testutil.SetupTestStore(t)
	testutil.SeedCandidates(t, store, "Alice", "Bob", "Carol")

	testutil.SeedBallot(t, store, "b001", 2, 1)
	testutil.SeedBallot(t, store, "b002", 2, 3)
	testutil.SeedBallot(t, store, "b003", 1)
	testutil.SeedBallot(t, store, "b004", 2)

	totals, err := store.FirstChoiceTotals()
	if err != nil {
		t.Fatalf("FirstChoiceTotals: %v", err)
	}

	want := []models.FirstChoiceRow{
		{CandidateID: 2, CandidateName: "Bob", Votes: 3},
		{CandidateID: 1, CandidateName: "Alice", Votes: 1},
	}
	if !reflect.DeepEqual(totals, want) {
		t.Errorf("totals = %v, want %v", totals, want)
	}
}

func TestSummary(t *testing.T) {
	store := testutil.SetupTestStore(t)
	testutil.SeedCandidates(t, store, "Alice", "Bob", "Carol")

	testutil.SeedBallot(t, store, "b001", 1, 2, 3)
	testutil.SeedBallot(t, store, "b002", 3)

	sum, err := store.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	want := models.SummaryResponse{
		CandidateCount:   3,
		BallotCount:      2,
		VoteRecordCount:  4,
		FirstChoiceTotal: 2,
	}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
}

func TestSummary_EmptyDatabase(t *testing.T) {
	store := testutil.SetupTestStore(t)

	sum, err := store.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum != (models.SummaryResponse{}) {
		t.Errorf("summary = %+v, want zeroes", sum)
	}
}
