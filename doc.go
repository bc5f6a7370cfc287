// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the rcvtally API server.

rcvtally loads ranked-choice cast-vote-record exports, tabulates
multi-winner elections with the single transferable vote (Droop quota),
and analyzes coalition structure from how voters rank candidates together.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=ballots.db go run .

Or with flags:

	go run . -p 8331 -d ballots.db -cvr export.csv -seats 3

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string

Optional settings:

  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - PORT (-p): Server port (default: 8331)
  - SEATS (-seats): Seats to fill (default: 3)
  - CVR_PATH (-cvr): CVR export to load into an empty database
  - OFFICIAL_RESULTS_PATH (-official): Official report for verification
  - PRECOMPUTE_DIR (-precompute-dir): Write a static snapshot at startup

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (election, coalition, verification)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Domain and response types
  - stv: Droop-quota single transferable vote tabulation
  - coalition: Pairwise affinity scoring and cluster detection
  - ballotstore: Normalized ballot tables (sqlite or postgres)
  - cvrparse: Wide-format CVR CSV ingestion
  - verify: Comparison against official published results
  - precompute: Static snapshot generation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
