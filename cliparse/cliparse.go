// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Election parameters
	Seats            int
	MinSharedBallots int
	MinStrength      float64
	MinGroupSize     int

	// Optional paths
	CVRPath             string
	OfficialResultsPath string
	PrecomputeDir       string
}

// ParseFlags reads configuration from flags, falling back to environment
// variables (a .env file is loaded first if present).
func ParseFlags(args []string) (Config, error) {
	// Missing .env is fine; env vars may come from the shell.
	_ = godotenv.Load()

	var cfg Config

	fs := flag.NewFlagSet("rcvtally", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (file path or DSN)")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	fs.IntVar(&cfg.Seats, "seats", 0, "Number of seats to fill")
	fs.IntVar(&cfg.MinSharedBallots, "min-shared", 10, "Minimum shared ballots per affinity pair")
	fs.Float64Var(&cfg.MinStrength, "min-strength", 0.2, "Minimum coalition strength for clustering")
	fs.IntVar(&cfg.MinGroupSize, "min-group", 3, "Minimum coalition cluster size")

	fs.StringVar(&cfg.CVRPath, "cvr", "", "Cast-vote-record CSV to load at startup")
	fs.StringVar(&cfg.OfficialResultsPath, "official", "", "Official results CSV for verification")
	fs.StringVar(&cfg.PrecomputeDir, "precompute-dir", "", "Directory for precomputed snapshot files")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8331 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.Seats == 0 {
		if seatsStr := os.Getenv("SEATS"); seatsStr != "" {
			seats, err := strconv.Atoi(seatsStr)
			if err != nil {
				return Config{}, errors.New("invalid SEATS env variable")
			}
			cfg.Seats = seats
		} else {
			cfg.Seats = 3 // default
		}
	}
	if cfg.Seats < 1 {
		return Config{}, errors.New("seats must be at least 1")
	}

	if cfg.CVRPath == "" {
		cfg.CVRPath = os.Getenv("CVR_PATH")
	}
	if cfg.OfficialResultsPath == "" {
		cfg.OfficialResultsPath = os.Getenv("OFFICIAL_RESULTS_PATH")
	}
	if cfg.PrecomputeDir == "" {
		cfg.PrecomputeDir = os.Getenv("PRECOMPUTE_DIR")
	}

	return cfg, nil
}
