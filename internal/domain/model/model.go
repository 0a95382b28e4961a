// Package model contains domain models passed between layers.
package model

import "time"

// Item is a rated entity. The id is a deterministic hash of SourceRef,
// so re-registering the same ref always resolves to the same record.
type Item struct {
	ID          string    `json:"id"`
	SourceRef   string    `json:"path"`
	DisplayName string    `json:"name"`
	Rating      float64   `json:"rating"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	Matches     int       `json:"matches"`
	CreatedAt   time.Time `json:"added_at"`
}

// MatchEntry is an immutable record of one comparison. WinnerID and
// LoserID are nil for a draw; the winner-role rating fields then carry
// item A's values and the loser-role fields item B's, keeping the
// historical convention of treating A as primary.
type MatchEntry struct {
	Timestamp          time.Time `json:"timestamp"`
	WinnerID           *string   `json:"winner_id"`
	LoserID            *string   `json:"loser_id"`
	Draw               bool      `json:"draw"`
	WinnerRatingBefore float64   `json:"winner_rating_before"`
	LoserRatingBefore  float64   `json:"loser_rating_before"`
	WinnerRatingAfter  float64   `json:"winner_rating_after"`
	LoserRatingAfter   float64   `json:"loser_rating_after"`
}

// References reports whether the entry names id as winner or loser.
func (e MatchEntry) References(id string) bool {
	if e.WinnerID != nil && *e.WinnerID == id {
		return true
	}
	return e.LoserID != nil && *e.LoserID == id
}

// Verdict is the outcome of one comparison as submitted by a caller.
// Result is relative to ItemA: 1 means A won, 0 means B won, 0.5 draw.
type Verdict struct {
	VerdictID string    `json:"verdict_id"`
	ItemA     string    `json:"item_a"`
	ItemB     string    `json:"item_b"`
	Result    float64   `json:"result"`
	TS        time.Time `json:"ts"`
}

// Canonical verdict results.
const (
	ResultAWins = 1.0
	ResultBWins = 0.0
	ResultDraw  = 0.5
)

// ValidResult reports whether r is one of the three canonical results.
// The rating engine itself accepts any value; the service boundary
// rejects everything else.
func ValidResult(r float64) bool {
	return r == ResultAWins || r == ResultBWins || r == ResultDraw
}

// Pair is a matchup proposed to the caller.
type Pair struct {
	A Item `json:"a"`
	B Item `json:"b"`
}
