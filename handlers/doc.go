// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the election analysis API.

# Handler Types

Each handler is a struct with store and config dependencies:

  - ElectionHandler: summary, candidate, first-choice, and tabulation endpoints
  - CoalitionHandler: pairwise affinity and cluster detection endpoints
  - VerifyHandler: comparison against an official results report

Handlers are created via constructor functions that accept the ballot store
and Config:

	electionHandler := handlers.NewElectionHandler(store, cfg)

# Endpoints

	GET /api/summary               - Loaded election counts
	GET /api/candidates            - Candidate table
	GET /api/first-choice          - First-choice totals (?format=csv for CSV)
	GET /api/stv-results           - Full tabulation (?seats=N)
	GET /api/coalition/affinities  - Pairwise affinity metrics
	GET /api/coalition/clusters    - Detected coalition clusters
	GET /api/verify-results        - Verification against official results

The ballot tables never change after loading, so the tabulator and affinity
engine are built lazily once and shared across requests.
*/
package handlers
