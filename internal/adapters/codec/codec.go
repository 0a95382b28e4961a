// Package codec serializes catalog state to and from its durable JSON
// document, and formats the CSV ranking export.
package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mkarimi/duelrank/internal/domain/model"
)

// document is the persisted shape: an id-keyed item map plus the match
// history in most-recent-first order.
type document struct {
	Images  map[string]itemRecord `json:"images"`
	History []entryRecord         `json:"history"`
}

// itemRecord mirrors model.Item with pointer fields so that missing
// keys are distinguishable from zero values on load.
type itemRecord struct {
	ID      *string  `json:"id"`
	Path    *string  `json:"path"`
	Name    *string  `json:"name"`
	Rating  *float64 `json:"rating"`
	Wins    *int     `json:"wins"`
	Losses  *int     `json:"losses"`
	Draws   *int     `json:"draws"`
	Matches *int     `json:"matches"`
	AddedAt *string  `json:"added_at"`
}

type entryRecord struct {
	Timestamp          *string  `json:"timestamp"`
	WinnerID           *string  `json:"winner_id"`
	LoserID            *string  `json:"loser_id"`
	Draw               *bool    `json:"draw"`
	WinnerRatingBefore *float64 `json:"winner_rating_before"`
	LoserRatingBefore  *float64 `json:"loser_rating_before"`
	WinnerRatingAfter  *float64 `json:"winner_rating_after"`
	LoserRatingAfter   *float64 `json:"loser_rating_after"`
}

// Save writes the catalog snapshot and match history as an indented
// JSON document. History order (most recent first) is preserved.
func Save(w io.Writer, items []model.Item, history []model.MatchEntry) error {
	doc := document{
		Images:  make(map[string]itemRecord, len(items)),
		History: make([]entryRecord, 0, len(history)),
	}
	for i := range items {
		it := items[i]
		added := it.CreatedAt.UTC().Format(time.RFC3339Nano)
		doc.Images[it.ID] = itemRecord{
			ID:      &it.ID,
			Path:    &it.SourceRef,
			Name:    &it.DisplayName,
			Rating:  &it.Rating,
			Wins:    &it.Wins,
			Losses:  &it.Losses,
			Draws:   &it.Draws,
			Matches: &it.Matches,
			AddedAt: &added,
		}
	}
	for i := range history {
		e := history[i]
		ts := e.Timestamp.UTC().Format(time.RFC3339Nano)
		draw := e.Draw
		doc.History = append(doc.History, entryRecord{
			Timestamp:          &ts,
			WinnerID:           e.WinnerID,
			LoserID:            e.LoserID,
			Draw:               &draw,
			WinnerRatingBefore: &e.WinnerRatingBefore,
			LoserRatingBefore:  &e.LoserRatingBefore,
			WinnerRatingAfter:  &e.WinnerRatingAfter,
			LoserRatingAfter:   &e.LoserRatingAfter,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode session document: %w", err)
	}
	return nil
}

// Load parses a session document. Structural problems (missing or
// mistyped fields, history entries naming unknown items) surface as
// ErrMalformed; plain read failures pass through wrapped. Items are
// returned oldest-first so registration order survives a round trip.
func Load(r io.Reader) ([]model.Item, []model.MatchEntry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read session document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Images == nil {
		return nil, nil, fmt.Errorf("%w: missing images section", ErrMalformed)
	}

	items := make([]model.Item, 0, len(doc.Images))
	known := make(map[string]struct{}, len(doc.Images))
	for key, rec := range doc.Images {
		item, err := rec.toItem(key)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
		known[item.ID] = struct{}{}
	}
	// JSON objects are unordered; recover a deterministic insertion
	// order from registration timestamps.
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	history := make([]model.MatchEntry, 0, len(doc.History))
	for i, rec := range doc.History {
		entry, err := rec.toEntry(i, known)
		if err != nil {
			return nil, nil, err
		}
		history = append(history, entry)
	}
	return items, history, nil
}

func (r itemRecord) toItem(key string) (model.Item, error) {
	switch {
	case r.ID == nil:
		return model.Item{}, fmt.Errorf("%w: image %q: missing id", ErrMalformed, key)
	case r.Path == nil:
		return model.Item{}, fmt.Errorf("%w: image %q: missing path", ErrMalformed, key)
	case r.Name == nil:
		return model.Item{}, fmt.Errorf("%w: image %q: missing name", ErrMalformed, key)
	case r.Rating == nil:
		return model.Item{}, fmt.Errorf("%w: image %q: missing rating", ErrMalformed, key)
	case r.Wins == nil || r.Losses == nil || r.Draws == nil || r.Matches == nil:
		return model.Item{}, fmt.Errorf("%w: image %q: missing counters", ErrMalformed, key)
	case r.AddedAt == nil:
		return model.Item{}, fmt.Errorf("%w: image %q: missing added_at", ErrMalformed, key)
	case *r.ID != key:
		return model.Item{}, fmt.Errorf("%w: image %q: id mismatch", ErrMalformed, key)
	case *r.Wins < 0 || *r.Losses < 0 || *r.Draws < 0 || *r.Matches < 0:
		return model.Item{}, fmt.Errorf("%w: image %q: negative counter", ErrMalformed, key)
	}
	created, err := parseTimestamp(*r.AddedAt)
	if err != nil {
		return model.Item{}, fmt.Errorf("%w: image %q: %v", ErrMalformed, key, err)
	}
	return model.Item{
		ID:          *r.ID,
		SourceRef:   *r.Path,
		DisplayName: *r.Name,
		Rating:      *r.Rating,
		Wins:        *r.Wins,
		Losses:      *r.Losses,
		Draws:       *r.Draws,
		Matches:     *r.Matches,
		CreatedAt:   created,
	}, nil
}

func (r entryRecord) toEntry(idx int, known map[string]struct{}) (model.MatchEntry, error) {
	switch {
	case r.Timestamp == nil:
		return model.MatchEntry{}, fmt.Errorf("%w: history[%d]: missing timestamp", ErrMalformed, idx)
	case r.Draw == nil:
		return model.MatchEntry{}, fmt.Errorf("%w: history[%d]: missing draw flag", ErrMalformed, idx)
	case r.WinnerRatingBefore == nil || r.LoserRatingBefore == nil ||
		r.WinnerRatingAfter == nil || r.LoserRatingAfter == nil:
		return model.MatchEntry{}, fmt.Errorf("%w: history[%d]: missing rating fields", ErrMalformed, idx)
	case !*r.Draw && (r.WinnerID == nil || r.LoserID == nil):
		return model.MatchEntry{}, fmt.Errorf("%w: history[%d]: decisive entry without winner and loser", ErrMalformed, idx)
	}
	ts, err := parseTimestamp(*r.Timestamp)
	if err != nil {
		return model.MatchEntry{}, fmt.Errorf("%w: history[%d]: %v", ErrMalformed, idx, err)
	}
	for _, ref := range []*string{r.WinnerID, r.LoserID} {
		if ref == nil {
			continue
		}
		if _, ok := known[*ref]; !ok {
			return model.MatchEntry{}, fmt.Errorf("%w: history[%d]: unknown item %q", ErrMalformed, idx, *ref)
		}
	}
	return model.MatchEntry{
		Timestamp:          ts,
		WinnerID:           r.WinnerID,
		LoserID:            r.LoserID,
		Draw:               *r.Draw,
		WinnerRatingBefore: *r.WinnerRatingBefore,
		LoserRatingBefore:  *r.LoserRatingBefore,
		WinnerRatingAfter:  *r.WinnerRatingAfter,
		LoserRatingAfter:   *r.LoserRatingAfter,
	}, nil
}

// parseTimestamp accepts RFC3339 (our own output) and zone-less ISO
// timestamps as written by earlier exporters.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
