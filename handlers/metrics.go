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
	"rcvtally/candidatemetrics"
	"rcvtally/cliparse"
	"rcvtally/middleware"
)

type MetricsHandler struct {
	store *ballotstore.Store
	cfg   cliparse.Config

	once        sync.Once
	analyzer    *candidatemetrics.Analyzer
	analyzerErr error
}

func NewMetricsHandler(store *ballotstore.Store, cfg cliparse.Config) *MetricsHandler {
	return &MetricsHandler{store: store, cfg: cfg}
}

func (h *MetricsHandler) metricsAnalyzer() (*candidatemetrics.Analyzer, error) {
	h.once.Do(func() {
		candidates, err := h.store.Candidates()
		if err != nil {
			h.analyzerErr = err
			return
		}
		prefs, err := h.store.Preferences()
		if err != nil {
			h.analyzerErr = err
			return
		}
		h.analyzer, h.analyzerErr = candidatemetrics.NewAnalyzer(candidates, prefs)
	})
	return h.analyzer, h.analyzerErr
}

// GetCandidateAnalysis handles GET /api/candidate-analysis/{name}
// The name match is case-insensitive.
func (h *MetricsHandler) GetCandidateAnalysis(w http.ResponseWriter, r *http.Request) {
	analyzer, err := h.metricsAnalyzer()
	if err != nil {
		slog.Error("failed to build metrics analyzer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot data error")
		return
	}

	profile, err := analyzer.ProfileByName(r.PathValue("name"))
	if errors.Is(err, candidatemetrics.ErrUnknownCandidate) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("candidate profile failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Analysis failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profile)
}

// GetTransferAnalysis handles GET /api/candidates/{id}/transfers
func (h *MetricsHandler) GetTransferAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}

	analyzer, err := h.metricsAnalyzer()
	if err != nil {
		slog.Error("failed to build metrics analyzer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot data error")
		return
	}

	analysis, err := analyzer.TransferAnalysis(id)
	if errors.Is(err, candidatemetrics.ErrUnknownCandidate) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("transfer analysis failed", "candidate", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Analysis failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, analysis)
}

// GetVoterBehavior handles GET /api/candidates/{id}/behavior
func (h *MetricsHandler) GetVoterBehavior(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}

	analyzer, err := h.metricsAnalyzer()
	if err != nil {
		slog.Error("failed to build metrics analyzer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot data error")
		return
	}

	behavior, err := analyzer.Behavior(id)
	if errors.Is(err, candidatemetrics.ErrUnknownCandidate) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("voter behavior analysis failed", "candidate", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Analysis failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, behavior)
}

// GetCandidatesSummary handles GET /api/candidates/summary
func (h *MetricsHandler) GetCandidatesSummary(w http.ResponseWriter, r *http.Request) {
	analyzer, err := h.metricsAnalyzer()
	if err != nil {
		slog.Error("failed to build metrics analyzer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot data error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, analyzer.Summary())
}

func (h *MetricsHandler) candidateID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Candidate id must be an integer")
		return 0, false
	}
	return id, true
}
