// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cvrparse loads wide-format cast-vote-record CSV exports and
normalizes them into the candidate and ballot-preference tables.

The wide format has one row per ballot with fixed columns (BallotID,
PrecinctID, BallotStyleID, Status) followed by one 0/1 choice column per
(candidate, rank) combination, named "<candidate name>:<rank>". Candidate
ids are assigned in column order, so the same file always produces the same
candidate table.

The choice columns are dynamic per election, so rows are read with
encoding/csv rather than a struct-mapped decoder.
*/
package cvrparse
