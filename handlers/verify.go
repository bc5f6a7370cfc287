// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"rcvtally/ballotstore"
	"rcvtally/cliparse"
	"rcvtally/middleware"
	"rcvtally/stv"
	"rcvtally/verify"
)

type VerifyHandler struct {
	store *ballotstore.Store
	cfg   cliparse.Config

	// The ballot tables are immutable once loaded, so the tabulator is
	// built once on first use and shared across requests.
	once   sync.Once
	tab    *stv.Tabulator
	tabErr error
}

func NewVerifyHandler(store *ballotstore.Store, cfg cliparse.Config) *VerifyHandler {
	return &VerifyHandler{store: store, cfg: cfg}
}

func (h *VerifyHandler) tabulator() (*stv.Tabulator, error) {
	h.once.Do(func() {
		candidates, err := h.store.Candidates()
		if err != nil {
			h.tabErr = err
			return
		}
		prefs, err := h.store.Preferences()
		if err != nil {
			h.tabErr = err
			return
		}
		h.tab, h.tabErr = stv.NewTabulator(candidates, prefs)
	})
	return h.tab, h.tabErr
}

// GetVerification handles GET /api/verify-results
// Runs the configured election and compares it against the official report.
// Returns 404 when no official results file is configured.
func (h *VerifyHandler) GetVerification(w http.ResponseWriter, r *http.Request) {
	if h.cfg.OfficialResultsPath == "" {
		middleware.ErrorResponse(w, http.StatusNotFound, "No official results file configured")
		return
	}

	official, err := verify.ParseOfficialResultsFile(h.cfg.OfficialResultsPath)
	if err != nil {
		slog.Error("failed to parse official results", "path", h.cfg.OfficialResultsPath, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to parse official results")
		return
	}

	firstChoice, err := h.store.FirstChoiceTotals()
	if err != nil {
		slog.Error("failed to query first-choice totals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	tab, err := h.tabulator()
	if err != nil {
		slog.Error("failed to build tabulator", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot data error")
		return
	}
	rounds, winners, err := tab.Run(h.cfg.Seats)
	if err != nil {
		slog.Error("tabulation failed", "seats", h.cfg.Seats, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Tabulation failed")
		return
	}

	results := tab.FinalResults(rounds, winners)
	middleware.JSONResponse(w, http.StatusOK, verify.Verify(official, results, firstChoice))
}
