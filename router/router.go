// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"rcvtally/ballotstore"
	"rcvtally/cliparse"
	"rcvtally/handlers"
	"rcvtally/middleware"
)

func NewRouter(store *ballotstore.Store, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(store, cfg)
	coalitionHandler := handlers.NewCoalitionHandler(store, cfg)
	verifyHandler := handlers.NewVerifyHandler(store, cfg)
	metricsHandler := handlers.NewMetricsHandler(store, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election data and tabulation
	mux.HandleFunc("GET /api/summary", middleware.WithLogging(electionHandler.GetSummary))
	mux.HandleFunc("GET /api/candidates", middleware.WithLogging(electionHandler.GetCandidates))
	mux.HandleFunc("GET /api/first-choice", middleware.WithLogging(electionHandler.GetFirstChoice))
	mux.HandleFunc("GET /api/stv-results", middleware.WithLogging(electionHandler.GetSTVResults))

	// Per-candidate metrics
	mux.HandleFunc("GET /api/candidate-analysis/{name}", middleware.WithLogging(metricsHandler.GetCandidateAnalysis))
	mux.HandleFunc("GET /api/candidates/summary", middleware.WithLogging(metricsHandler.GetCandidatesSummary))
	mux.HandleFunc("GET /api/candidates/{id}/transfers", middleware.WithLogging(metricsHandler.GetTransferAnalysis))
	mux.HandleFunc("GET /api/candidates/{id}/behavior", middleware.WithLogging(metricsHandler.GetVoterBehavior))

	// Coalition analysis
	mux.HandleFunc("GET /api/coalition/affinities", middleware.WithLogging(coalitionHandler.GetAffinities))
	mux.HandleFunc("GET /api/coalition/clusters", middleware.WithLogging(coalitionHandler.GetClusters))

	// Verification against the official report
	mux.HandleFunc("GET /api/verify-results", middleware.WithLogging(verifyHandler.GetVerification))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rcvtally API v1"))
	})

	return mux
}
