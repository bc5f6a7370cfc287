// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"rcvtally/ballotstore"
	"rcvtally/cliparse"
	"rcvtally/cvrparse"
	"rcvtally/middleware"
	"rcvtally/precompute"
	"rcvtally/router"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the ballot database
	store, err := ballotstore.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Create schema (tables)
	if err := store.CreateSchema(); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Load ballots from a cast-vote-record export if one was given and the
	// database is still empty.
	if cfg.CVRPath != "" {
		if err := loadCVR(store, cfg.CVRPath); err != nil {
			slog.Error("CVR load failed", "path", cfg.CVRPath, "error", err)
			os.Exit(1)
		}
	}

	// Precompute a static snapshot when a target directory is configured.
	if cfg.PrecomputeDir != "" {
		snap, err := precompute.Build(store, cfg)
		if err != nil {
			slog.Error("precompute failed", "error", err)
			os.Exit(1)
		}
		if err := precompute.Write(cfg.PrecomputeDir, snap); err != nil {
			slog.Error("precompute write failed", "dir", cfg.PrecomputeDir, "error", err)
			os.Exit(1)
		}
	}

	// Create router
	mux := router.NewRouter(store, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// loadCVR parses a wide-format CVR export and fills the ballot tables.
// A database that already holds candidates is left untouched.
func loadCVR(store *ballotstore.Store, path string) error {
	summary, err := store.Summary()
	if err != nil {
		return err
	}
	if summary.CandidateCount > 0 {
		slog.Info("database already loaded, skipping CVR import",
			"candidates", summary.CandidateCount,
			"ballots", summary.BallotCount,
		)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	parsed, err := cvrparse.Parse(f)
	if err != nil {
		return err
	}
	if err := store.InsertCandidates(parsed.Candidates); err != nil {
		return err
	}
	if err := store.InsertPreferences(parsed.Preferences); err != nil {
		return err
	}
	slog.Info("CVR loaded",
		"candidates", len(parsed.Candidates),
		"ballots", parsed.Stats.BallotsLoaded,
		"vote_records", parsed.Stats.VoteRecords,
	)
	return nil
}
