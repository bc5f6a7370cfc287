// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballotstore is the data access layer for normalized ballot data.

Two tables back the analysis engines:

  - candidates(candidate_id, candidate_name)
  - ballot_preferences(ballot_id, candidate_id, rank_position)

The store runs on sqlite (modernc.org/sqlite, pure Go) for local analysis
and tests, or postgres (lib/pq) for shared deployments; placeholders use the
$N form, which both drivers accept. The algorithms never query mid-run:
callers load the full snapshot once via Candidates and Preferences, then
hand the in-memory rows to stv and coalition.
*/
package ballotstore
