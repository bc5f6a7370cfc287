// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package verify checks tabulation output against an officially published
results report.

The official report is a ragged multi-section CSV (metadata header, a
winners line, then per-candidate rows with one column per round), so it is
parsed line by line rather than with a table decoder. Candidate names are
normalized before comparison to absorb nickname and spacing differences
between the report and the cast-vote-record export.
*/
package verify
