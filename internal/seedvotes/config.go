// Package seedvotes drives a running duelrank instance with synthetic
// items and verdicts, then checks that the observed ranking tracks the
// hidden strengths the verdicts were sampled from.
package seedvotes

import "time"

// Config controls a seeding run.
type Config struct {
	BaseURL  string
	NumItems int
	NumVotes int
	Workers  int
	Timeout  time.Duration
	Seed     int64
	Verbose  bool
}

// item pairs a registered catalog id with the hidden strength used to
// sample verdict outcomes.
type item struct {
	ID       string
	Name     string
	Strength float64
}

// itemResponse mirrors the POST /items response.
type itemResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// rankedItem mirrors one row of GET /ranking.
type rankedItem struct {
	Rank   int     `json:"rank"`
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// verdictRequest mirrors the POST /verdicts schema.
type verdictRequest struct {
	VerdictID string  `json:"verdict_id"`
	ItemA     string  `json:"item_a"`
	ItemB     string  `json:"item_b"`
	Result    float64 `json:"result"`
}

// Stats accumulates run counters.
type Stats struct {
	ItemsRegistered int
	VotesAccepted   int64
	VotesDuplicate  int64
	VotesRejected   int64
	Elapsed         time.Duration
	RankCorrelation float64
}
