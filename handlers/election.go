// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"rcvtally/ballotstore"
	"rcvtally/cliparse"
	"rcvtally/middleware"
	"rcvtally/models"
	"rcvtally/precompute"
	"rcvtally/stv"
)

type ElectionHandler struct {
	store *ballotstore.Store
	cfg   cliparse.Config

	// The ballot tables are immutable once loaded, so the tabulator is
	// built once on first use and shared across requests.
	once   sync.Once
	tab    *stv.Tabulator
	tabErr error
}

func NewElectionHandler(store *ballotstore.Store, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{store: store, cfg: cfg}
}

func (h *ElectionHandler) tabulator() (*stv.Tabulator, error) {
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

// GetSummary handles GET /api/summary
func (h *ElectionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary()
	if err != nil {
		slog.Error("failed to query summary", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}

// GetCandidates handles GET /api/candidates
func (h *ElectionHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.store.Candidates()
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// GetFirstChoice handles GET /api/first-choice
// Pass ?format=csv for a CSV export instead of JSON.
func (h *ElectionHandler) GetFirstChoice(w http.ResponseWriter, r *http.Request) {
	totals, err := h.store.FirstChoiceTotals()
	if err != nil {
		slog.Error("failed to query first-choice totals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if totals == nil {
		totals = []models.FirstChoiceRow{}
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="first_choice.csv"`)
		if err := precompute.ExportFirstChoiceCSV(w, totals); err != nil {
			slog.Error("failed to write first-choice csv", "error", err)
		}
		return
	}

	middleware.JSONResponse(w, http.StatusOK, totals)
}

// GetSTVResults handles GET /api/stv-results?seats=N
// seats defaults to the configured value.
func (h *ElectionHandler) GetSTVResults(w http.ResponseWriter, r *http.Request) {
	seats := h.cfg.Seats
	if s := r.URL.Query().Get("seats"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "seats must be an integer")
			return
		}
		seats = n
	}

	tab, err := h.tabulator()
	if err != nil {
		slog.Error("failed to build tabulator", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot data error")
		return
	}

	rounds, winners, err := tab.Run(seats)
	if errors.Is(err, stv.ErrInvalidSeats) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "seats must be at least 1")
		return
	}
	if errors.Is(err, stv.ErrNotConverged) {
		slog.Error("tabulation did not converge", "seats", seats)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Tabulation did not converge")
		return
	}
	if err != nil {
		slog.Error("tabulation failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Tabulation failed")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.STVResultsResponse{
		Seats:   seats,
		Quota:   rounds[0].Quota,
		Rounds:  rounds,
		Winners: winners,
		Results: tab.FinalResults(rounds, winners),
	})
}
