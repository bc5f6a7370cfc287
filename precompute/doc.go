// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package precompute runs the full analysis pipeline once and serializes the
output as flat files, so results can be served from static hosting without a
live database.

Build produces a Snapshot (tagged with a fresh uuid) covering everything the
API serves: summary counts, the candidate table, first-choice totals, the
complete round-by-round tabulation, affinity pairs, and detected clusters.
Write lays the snapshot out as one JSON file per endpoint plus CSV exports
and a manifest.
*/
package precompute
