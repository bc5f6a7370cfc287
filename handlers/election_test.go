// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"rcvtally/ballotstore"
	"rcvtally/models"
	"rcvtally/testutil"
)

// seedElection loads the standard test election: nine ballots over three
// candidates. With two seats the quota is 4; Alice wins on first choices and
// Carol's elimination sends Bob over the quota.
func seedElection(t *testing.T) *ballotstore.Store {
	t.Helper()

	store := testutil.SetupTestStore(t)
	testutil.SeedCandidates(t, store, "Alice", "Bob", "Carol")
	for i := 0; i < 4; i++ {
		testutil.SeedBallot(t, store, fmt.Sprintf("a%03d", i), 1, 2)
	}
	for i := 0; i < 3; i++ {
		testutil.SeedBallot(t, store, fmt.Sprintf("b%03d", i), 2, 3)
	}
	for i := 0; i < 2; i++ {
		testutil.SeedBallot(t, store, fmt.Sprintf("c%03d", i), 3, 2)
	}
	return store
}

func TestGetSummary(t *testing.T) {
	store := seedElection(t)
	handler := NewElectionHandler(store, testutil.GetTestConfig())

	req := testutil.MakeRequest("GET", "/api/summary", nil, nil)
	w := httptest.NewRecorder()
	handler.GetSummary(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.SummaryResponse
	testutil.AssertJSON(t, w, &resp)

	want := models.SummaryResponse{
		CandidateCount:   3,
		BallotCount:      9,
		VoteRecordCount:  18,
		FirstChoiceTotal: 9,
	}
	if resp != want {
		t.Errorf("summary = %+v, want %+v", resp, want)
	}
}

func TestGetCandidates(t *testing.T) {
	store := seedElection(t)
	handler := NewElectionHandler(store, testutil.GetTestConfig())

	req := testutil.MakeRequest("GET", "/api/candidates", nil, nil)
	w := httptest.NewRecorder()
	handler.GetCandidates(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp []models.Candidate
	testutil.AssertJSON(t, w, &resp)

	want := []models.Candidate{
		{ID: 1, Name: "Alice"},
		{ID: 2, Name: "Bob"},
		{ID: 3, Name: "Carol"},
	}
	if !reflect.DeepEqual(resp, want) {
		t.Errorf("candidates = %v, want %v", resp, want)
	}
}

func TestGetFirstChoice(t *testing.T) {
	store := seedElection(t)
	handler := NewElectionHandler(store, testutil.GetTestConfig())

	t.Run("json", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/first-choice", nil, nil)
		w := httptest.NewRecorder()
		handler.GetFirstChoice(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp []models.FirstChoiceRow
		testutil.AssertJSON(t, w, &resp)

		want := []models.FirstChoiceRow{
			{CandidateID: 1, CandidateName: "Alice", Votes: 4},
			{CandidateID: 2, CandidateName: "Bob", Votes: 3},
			{CandidateID: 3, CandidateName: "Carol", Votes: 2},
		}
		if !reflect.DeepEqual(resp, want) {
			t.Errorf("first choice = %v, want %v", resp, want)
		}
	})

	t.Run("csv export", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/first-choice?format=csv", nil, nil)
		w := httptest.NewRecorder()
		handler.GetFirstChoice(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("Content-Type = %q, want text/csv", ct)
		}

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		if len(lines) != 4 {
			t.Fatalf("lines = %d, want header plus 3 rows", len(lines))
		}
		if lines[0] != "candidate_id,candidate_name,votes" {
			t.Errorf("header = %q", lines[0])
		}
		if lines[1] != "1,Alice,4" {
			t.Errorf("first row = %q", lines[1])
		}
	})
}

func TestGetSTVResults(t *testing.T) {
	store := seedElection(t)
	handler := NewElectionHandler(store, testutil.GetTestConfig())

	t.Run("configured seats", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/stv-results", nil, nil)
		w := httptest.NewRecorder()
		handler.GetSTVResults(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.STVResultsResponse
		testutil.AssertJSON(t, w, &resp)

		if resp.Seats != 2 {
			t.Errorf("seats = %d, want config default 2", resp.Seats)
		}
		if resp.Quota != 4 {
			t.Errorf("quota = %v, want 4", resp.Quota)
		}
		if !reflect.DeepEqual(resp.Winners, []int{1, 2}) {
			t.Errorf("winners = %v, want [1 2]", resp.Winners)
		}
		if len(resp.Results) != 3 {
			t.Errorf("results = %d rows, want 3", len(resp.Results))
		}
	})

	t.Run("seats override", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/stv-results?seats=1", nil, nil)
		w := httptest.NewRecorder()
		handler.GetSTVResults(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.STVResultsResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Seats != 1 || len(resp.Winners) != 1 {
			t.Errorf("seats/winners = %d/%v, want 1 winner", resp.Seats, resp.Winners)
		}
	})

	t.Run("non-integer seats", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/stv-results?seats=two", nil, nil)
		w := httptest.NewRecorder()
		handler.GetSTVResults(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("zero seats", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/stv-results?seats=0", nil, nil)
		w := httptest.NewRecorder()
		handler.GetSTVResults(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}
