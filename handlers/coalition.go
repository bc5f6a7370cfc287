// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"rcvtally/ballotstore"
	"rcvtally/cliparse"
	"rcvtally/coalition"
	"rcvtally/middleware"
	"rcvtally/models"
)

type CoalitionHandler struct {
	store *ballotstore.Store
	cfg   cliparse.Config

	once      sync.Once
	engine    *coalition.Engine
	engineErr error
}

func NewCoalitionHandler(store *ballotstore.Store, cfg cliparse.Config) *CoalitionHandler {
	return &CoalitionHandler{store: store, cfg: cfg}
}

func (h *CoalitionHandler) affinityEngine() (*coalition.Engine, error) {
	h.once.Do(func() {
		candidates, err := h.store.Candidates()
		if err != nil {
			h.engineErr = err
			return
		}
		prefs, err := h.store.Preferences()
		if err != nil {
			h.engineErr = err
			return
		}
		h.engine, h.engineErr = coalition.NewEngine(candidates, prefs)
	})
	return h.engine, h.engineErr
}

// parseOptions reads the shared affinity query parameters.
func (h *CoalitionHandler) parseOptions(r *http.Request) (coalition.Options, error) {
	opts := coalition.Options{
		MinSharedBallots: h.cfg.MinSharedBallots,
		Method:           models.MethodProximityWeighted,
		Normalize:        models.NormalizeLift,
	}
	q := r.URL.Query()
	if s := q.Get("min_shared"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, errParam("min_shared must be an integer")
		}
		opts.MinSharedBallots = n
	}
	if s := q.Get("method"); s != "" {
		opts.Method = models.Method(s)
		if !opts.Method.Valid() {
			return opts, errParam("method must be basic or proximity_weighted")
		}
	}
	if s := q.Get("normalize"); s != "" {
		opts.Normalize = models.Normalize(s)
		if !opts.Normalize.Valid() {
			return opts, errParam("normalize must be raw, conditional, or lift")
		}
	}
	return opts, nil
}

type errParam string

func (e errParam) Error() string { return string(e) }

// GetAffinities handles GET /api/coalition/affinities
// Query parameters: min_shared, method, normalize.
func (h *CoalitionHandler) GetAffinities(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseOptions(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	engine, err := h.affinityEngine()
	if err != nil {
		slog.Error("failed to build affinity engine", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot data error")
		return
	}

	pairs, err := engine.Analyze(opts)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if pairs == nil {
		pairs = []models.AffinityPair{}
	}
	middleware.JSONResponse(w, http.StatusOK, pairs)
}

// GetClusters handles GET /api/coalition/clusters
// Query parameters: min_strength, min_group_size, plus the affinity set.
func (h *CoalitionHandler) GetClusters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseOptions(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	minStrength := h.cfg.MinStrength
	minGroupSize := h.cfg.MinGroupSize
	q := r.URL.Query()
	if s := q.Get("min_strength"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 || f > 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "min_strength must be in [0, 1]")
			return
		}
		minStrength = f
	}
	if s := q.Get("min_group_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "min_group_size must be an integer")
			return
		}
		minGroupSize = n
	}

	engine, err := h.affinityEngine()
	if err != nil {
		slog.Error("failed to build affinity engine", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot data error")
		return
	}

	pairs, err := engine.Analyze(opts)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	clusters := coalition.DetectClusters(pairs, minStrength, minGroupSize)
	if clusters == nil {
		clusters = [][]int{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.ClustersResponse{
		MinStrength:  minStrength,
		MinGroupSize: minGroupSize,
		Clusters:     clusters,
	})
}
