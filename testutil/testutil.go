// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"rcvtally/ballotstore"
	"rcvtally/cliparse"
	"rcvtally/models"
)

// SetupTestStore creates a fresh in-memory database with the full schema.
// The store is closed automatically when the test finishes.
func SetupTestStore(t *testing.T) *ballotstore.Store {
	t.Helper()

	store, err := ballotstore.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return store
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             8331,
		DatabaseURL:      ":memory:",
		DatabaseType:     "sqlite",
		Seats:            2,
		MinSharedBallots: 0,
		MinStrength:      0.2,
		MinGroupSize:     2,
	}
}

// SeedCandidates loads candidates with ids 1..len(names) in order.
func SeedCandidates(t *testing.T, store *ballotstore.Store, names ...string) []models.Candidate {
	t.Helper()

	candidates := make([]models.Candidate, len(names))
	for i, name := range names {
		candidates[i] = models.Candidate{ID: i + 1, Name: name}
	}
	if err := store.InsertCandidates(candidates); err != nil {
		t.Fatalf("Failed to seed candidates: %v", err)
	}
	return candidates
}

// SeedBallot loads one ballot ranking the given candidate ids in order,
// first choice first.
func SeedBallot(t *testing.T, store *ballotstore.Store, ballotID string, ranking ...int) {
	t.Helper()

	prefs := make([]models.BallotPreference, len(ranking))
	for i, candidateID := range ranking {
		prefs[i] = models.BallotPreference{
			BallotID:    ballotID,
			CandidateID: candidateID,
			Rank:        i + 1,
		}
	}
	if err := store.InsertPreferences(prefs); err != nil {
		t.Fatalf("Failed to seed ballot %s: %v", ballotID, err)
	}
}

// Ballots builds in-memory preference rows without touching a store. Each
// ranking entry is one ballot's candidate ids in rank order; ballot ids are
// generated as b001, b002, ...
func Ballots(rankings ...[]int) []models.BallotPreference {
	var prefs []models.BallotPreference
	for i, ranking := range rankings {
		ballotID := ballotName(i)
		for rank, candidateID := range ranking {
			prefs = append(prefs, models.BallotPreference{
				BallotID:    ballotID,
				CandidateID: candidateID,
				Rank:        rank + 1,
			})
		}
	}
	return prefs
}

func ballotName(i int) string {
	return fmt.Sprintf("b%03d", i+1)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
