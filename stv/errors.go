// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import "errors"

// Input-integrity errors reject the entire run before any rounds execute.
var (
	ErrInvalidSeats       = errors.New("stv: seats must be at least 1")
	ErrUnknownCandidate   = errors.New("stv: ballot references unknown candidate")
	ErrDuplicateRank      = errors.New("stv: duplicate rank position within ballot")
	ErrDuplicateCandidate = errors.New("stv: candidate ranked twice within ballot")
)

// ErrNotConverged is returned when tabulation exceeds the round safety
// bound. It is a fatal condition distinct from a normal result.
var ErrNotConverged = errors.New("stv: tabulation did not converge within round limit")
