// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from command-line flags and
environment variables.

Flags win over environment variables; a .env file in the working directory
is loaded before the environment is consulted. The database URL is the only
required setting. Election parameters (seats, affinity and clustering
thresholds) carry defaults tuned for a three-seat district race.
*/
package cliparse
