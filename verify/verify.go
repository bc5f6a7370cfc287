// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package verify

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rcvtally/models"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	parentheticRe = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	hyphenRe      = regexp.MustCompile(`\s*-\s*`)
)

// NormalizeName canonicalizes a candidate name for comparison: lowercase,
// collapsed whitespace, nicknames in parentheses removed, hyphen spacing
// normalized.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = whitespaceRe.ReplaceAllString(n, " ")
	n = parentheticRe.ReplaceAllString(n, " ")
	n = hyphenRe.ReplaceAllString(n, "-")
	return strings.TrimSpace(n)
}

// Metadata holds the header fields of an official results report.
type Metadata struct {
	ElectionDate     string `json:"election_date"`
	ReportDate       string `json:"report_date"`
	RegisteredVoters int    `json:"registered_voters"`
	Threshold        int    `json:"threshold"`
}

// OfficialCandidate is one candidate row from the official report.
type OfficialCandidate struct {
	Name             string  `json:"name"`
	FirstChoiceVotes float64 `json:"first_choice_votes"`
	IsWinner         bool    `json:"is_winner"`
}

// OfficialResults is the parsed official report.
type OfficialResults struct {
	Metadata   Metadata            `json:"metadata"`
	Winners    []string            `json:"winners"`
	Candidates []OfficialCandidate `json:"candidates"`
}

// ParseOfficialResultsFile reads and parses an official results CSV report.
func ParseOfficialResultsFile(path string) (*OfficialResults, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("verify: open official results: %w", err)
	}
	defer f.Close()
	return ParseOfficialResults(f)
}

// ParseOfficialResults parses the official results report format: a short
// metadata header, a "Met threshold for election" winners line, then a data
// section headed by ",# votes,% of votes" with one ragged row per candidate.
func ParseOfficialResults(r io.Reader) (*OfficialResults, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("verify: read official results: %w", err)
	}

	res := &OfficialResults{}
	parseMetadata(lines, &res.Metadata)

	dataStart := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ",# votes,% of votes") {
			dataStart = i
			break
		}
	}
	if dataStart < 0 {
		return nil, fmt.Errorf("verify: could not find data section in official results")
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "Met threshold for election") {
			res.Winners = parseWinnersLine(line)
			break
		}
	}

	winnerSet := make(map[string]bool, len(res.Winners))
	for _, w := range res.Winners {
		winnerSet[NormalizeName(w)] = true
	}

	for _, line := range lines[dataStart+1:] {
		if strings.TrimSpace(line) == "" ||
			strings.HasPrefix(line, ",") ||
			strings.HasPrefix(line, "Met threshold") ||
			strings.HasPrefix(line, "Defeated") {
			continue
		}
		parts := strings.Split(line, ",")
		name := strings.TrimSpace(parts[0])
		if name == "" || len(parts) < 2 {
			continue
		}
		votes, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		res.Candidates = append(res.Candidates, OfficialCandidate{
			Name:             name,
			FirstChoiceVotes: votes,
			IsWinner:         winnerSet[NormalizeName(name)],
		})
	}

	slog.Info("parsed official results",
		"winners", len(res.Winners),
		"candidates", len(res.Candidates),
	)
	return res, nil
}

func parseMetadata(lines []string, md *Metadata) {
	limit := len(lines)
	if limit > 10 {
		limit = 10
	}
	for _, line := range lines[:limit] {
		parts := strings.Split(strings.TrimSpace(line), ",")
		if len(parts) < 2 {
			continue
		}
		value := strings.TrimSpace(parts[1])
		switch {
		case strings.Contains(parts[0], "Election Date"):
			md.ElectionDate = value
		case strings.Contains(parts[0], "Report Date"):
			md.ReportDate = value
		case strings.Contains(parts[0], "Registered Voters in District"):
			if n, err := strconv.Atoi(value); err == nil {
				md.RegisteredVoters = n
			}
		case strings.Contains(parts[0], "Election Threshold"):
			fields := strings.Fields(value)
			if len(fields) > 0 {
				if n, err := strconv.Atoi(fields[0]); err == nil {
					md.Threshold = n
				}
			}
		}
	}
}

// parseWinnersLine splits the winners row; a single cell may carry multiple
// names separated by semicolons.
func parseWinnersLine(line string) []string {
	var winners []string
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.Contains(part, "Met threshold") {
			continue
		}
		for _, name := range strings.Split(part, ";") {
			if name = strings.TrimSpace(name); name != "" {
				winners = append(winners, name)
			}
		}
	}
	return winners
}

// Verify compares our tabulation output against the official report. It
// checks the winner set (under name normalization) and the per-candidate
// first-choice vote counts.
func Verify(official *OfficialResults, results []models.CandidateResult, firstChoice []models.FirstChoiceRow) models.VerifyResponse {
	resp := models.VerifyResponse{
		OfficialWinners: official.Winners,
		VerifiedAt:      time.Now().UTC(),
	}

	ourWinners := make(map[string]bool)
	for _, r := range results {
		if r.Status == models.StatusElected {
			resp.OurWinners = append(resp.OurWinners, r.CandidateName)
			ourWinners[NormalizeName(r.CandidateName)] = true
		}
	}
	officialWinners := make(map[string]bool, len(official.Winners))
	for _, w := range official.Winners {
		officialWinners[NormalizeName(w)] = true
	}

	for _, w := range official.Winners {
		if !ourWinners[NormalizeName(w)] {
			resp.MissingWinners = append(resp.MissingWinners, w)
		}
	}
	for _, w := range resp.OurWinners {
		if !officialWinners[NormalizeName(w)] {
			resp.ExtraWinners = append(resp.ExtraWinners, w)
		}
	}
	resp.WinnersMatch = len(resp.MissingWinners) == 0 && len(resp.ExtraWinners) == 0

	ourVotes := make(map[string]float64, len(firstChoice))
	for _, row := range firstChoice {
		ourVotes[NormalizeName(row.CandidateName)] = float64(row.Votes)
	}
	for _, oc := range official.Candidates {
		diff := ourVotes[NormalizeName(oc.Name)] - oc.FirstChoiceVotes
		if diff != 0 {
			resp.CandidatesWithDifferences++
		}
		resp.TotalVoteDifference += math.Abs(diff)
	}

	resp.Passed = resp.WinnersMatch && resp.TotalVoteDifference == 0
	slog.Info("verification complete",
		"passed", resp.Passed,
		"winners_match", resp.WinnersMatch,
		"total_vote_difference", resp.TotalVoteDifference,
	)
	return resp
}
