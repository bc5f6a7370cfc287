// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"rcvtally/models"
	"rcvtally/testutil"
)

const officialReport = `Election Date,11/05/2024
Report Date,11/20/2024
Registered Voters in District,100
Election Threshold,4 votes

,# votes,% of votes
Alice,4,44.4
Bob,3,33.3
Carol,2,22.2
Met threshold for election,Alice; Bob
Defeated,Carol
`

func TestGetVerification(t *testing.T) {
	store := seedElection(t)

	t.Run("matching report passes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "official.csv")
		if err := os.WriteFile(path, []byte(officialReport), 0o644); err != nil {
			t.Fatalf("write report: %v", err)
		}

		cfg := testutil.GetTestConfig()
		cfg.OfficialResultsPath = path
		handler := NewVerifyHandler(store, cfg)

		req := testutil.MakeRequest("GET", "/api/verify-results", nil, nil)
		w := httptest.NewRecorder()
		handler.GetVerification(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.VerifyResponse
		testutil.AssertJSON(t, w, &resp)

		if !resp.WinnersMatch {
			t.Errorf("winner mismatch: missing %v extra %v", resp.MissingWinners, resp.ExtraWinners)
		}
		if resp.TotalVoteDifference != 0 {
			t.Errorf("vote difference = %v, want 0", resp.TotalVoteDifference)
		}
		if !resp.Passed {
			t.Error("expected verification to pass")
		}
	})

	t.Run("mismatched winners fail", func(t *testing.T) {
		report := `Election Date,11/05/2024

,# votes,% of votes
Alice,4,44.4
Bob,3,33.3
Carol,2,22.2
Met threshold for election,Alice; Carol
`
		path := filepath.Join(t.TempDir(), "official.csv")
		if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
			t.Fatalf("write report: %v", err)
		}

		cfg := testutil.GetTestConfig()
		cfg.OfficialResultsPath = path
		handler := NewVerifyHandler(store, cfg)

		req := testutil.MakeRequest("GET", "/api/verify-results", nil, nil)
		w := httptest.NewRecorder()
		handler.GetVerification(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.VerifyResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Passed || resp.WinnersMatch {
			t.Error("expected winner mismatch to fail verification")
		}
	})

	t.Run("tabulator is reused across requests", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "official.csv")
		if err := os.WriteFile(path, []byte(officialReport), 0o644); err != nil {
			t.Fatalf("write report: %v", err)
		}

		cfg := testutil.GetTestConfig()
		cfg.OfficialResultsPath = path
		handler := NewVerifyHandler(store, cfg)

		for i := 0; i < 2; i++ {
			req := testutil.MakeRequest("GET", "/api/verify-results", nil, nil)
			w := httptest.NewRecorder()
			handler.GetVerification(w, req)
			testutil.AssertStatus(t, w, http.StatusOK)
		}

		tab1, err := handler.tabulator()
		if err != nil {
			t.Fatalf("tabulator: %v", err)
		}
		tab2, err := handler.tabulator()
		if err != nil {
			t.Fatalf("tabulator: %v", err)
		}
		if tab1 != tab2 {
			t.Error("expected repeated requests to share one tabulator instance")
		}
	})

	t.Run("unconfigured report returns 404", func(t *testing.T) {
		handler := NewVerifyHandler(store, testutil.GetTestConfig())

		req := testutil.MakeRequest("GET", "/api/verify-results", nil, nil)
		w := httptest.NewRecorder()
		handler.GetVerification(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("unreadable report returns 500", func(t *testing.T) {
		cfg := testutil.GetTestConfig()
		cfg.OfficialResultsPath = filepath.Join(t.TempDir(), "missing.csv")
		handler := NewVerifyHandler(store, cfg)

		req := testutil.MakeRequest("GET", "/api/verify-results", nil, nil)
		w := httptest.NewRecorder()
		handler.GetVerification(w, req)

		testutil.AssertStatus(t, w, http.StatusInternalServerError)
	})
}
