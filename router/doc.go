// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the election analysis API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, cfg)

# Endpoints

Health:

	GET /health

Election data and tabulation:

	GET /api/summary      - Loaded election counts
	GET /api/candidates   - Candidate table
	GET /api/first-choice - First-choice totals (?format=csv)
	GET /api/stv-results  - Full round-by-round tabulation (?seats=N)

Coalition analysis:

	GET /api/coalition/affinities - Pairwise affinity metrics
	GET /api/coalition/clusters   - Detected coalition clusters

Verification:

	GET /api/verify-results - Comparison against official results

# Handler Initialization

The router creates handler instances with dependency injection:

	electionHandler := handlers.NewElectionHandler(store, cfg)
	coalitionHandler := handlers.NewCoalitionHandler(store, cfg)
	verifyHandler := handlers.NewVerifyHandler(store, cfg)

All handlers receive the ballot store and configuration.
*/
package router
