package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkarimi/duelrank/internal/domain/model"
	"github.com/mkarimi/duelrank/internal/domain/rating"
	"github.com/mkarimi/duelrank/pkg/metrics"
)

// Default catalog configuration constants.
const (
	defaultRating       = 1000.0
	defaultHistoryLimit = 5000
)

// Catalog is the in-memory Store implementation. One mutex guards all
// state so that a match is applied as a single atomic unit and readers
// never observe a torn update.
type Catalog struct {
	mu      sync.Mutex
	byID    map[string]*model.Item
	order   []string           // registration order, drives ranking tie-breaks
	history []model.MatchEntry // most recent first

	engine        *rating.Engine
	defaultRating float64
	historyLimit  int
	now           func() time.Time
	gen           uint64
}

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithEngine sets the rating engine.
func WithEngine(e *rating.Engine) Option {
	return func(c *Catalog) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithDefaultRating sets the rating assigned to new items and restored
// by ResetAll.
func WithDefaultRating(r float64) Option {
	return func(c *Catalog) {
		c.defaultRating = r
	}
}

// WithHistoryLimit bounds the match log. Oldest entries are dropped
// first once the bound is exceeded.
func WithHistoryLimit(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// WithClock sets the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCatalog creates an empty catalog with configuration options.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		byID:          make(map[string]*model.Item),
		engine:        rating.NewEngine(),
		defaultRating: defaultRating,
		historyLimit:  defaultHistoryLimit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register implements Store.Register.
func (c *Catalog) Register(_ context.Context, sourceRef, displayName string) (model.Item, error) {
	if sourceRef == "" {
		return model.Item{}, ErrEmptyRef
	}
	id := MakeID(sourceRef)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byID[id]; ok {
		return *existing, nil
	}

	item := &model.Item{
		ID:          id,
		SourceRef:   sourceRef,
		DisplayName: displayName,
		Rating:      c.defaultRating,
		CreatedAt:   c.now().UTC(),
	}
	c.byID[id] = item
	c.order = append(c.order, id)
	c.gen++
	metrics.UpdateCatalogSize(len(c.byID))
	return *item, nil
}

// Get implements Store.Get.
func (c *Catalog) Get(_ context.Context, id string) (model.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.byID[id]
	if !ok {
		return model.Item{}, ErrNotFound
	}
	return *item, nil
}

// Remove implements Store.Remove. Match log entries naming the removed
// item are purged so the log never dangles.
func (c *Catalog) Remove(_ context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	kept := c.history[:0]
	for _, e := range c.history {
		if !e.References(id) {
			kept = append(kept, e)
		}
	}
	c.history = kept
	c.gen++
	metrics.UpdateCatalogSize(len(c.byID))
	metrics.UpdateHistoryLength(len(c.history))
	return true
}

// RecordMatch implements Store.RecordMatch.
func (c *Catalog) RecordMatch(_ context.Context, idA, idB string, result float64) (model.MatchEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.byID[idA]
	if !ok {
		metrics.RecordMatchError()
		return model.MatchEntry{}, ErrNotFound
	}
	b, ok := c.byID[idB]
	if !ok {
		metrics.RecordMatchError()
		return model.MatchEntry{}, ErrNotFound
	}

	beforeA, beforeB := a.Rating, b.Rating
	newA, newB := c.engine.Update(beforeA, beforeB, result)

	var winnerID, loserID *string
	outcome := "win"
	switch result {
	case model.ResultAWins:
		a.Wins++
		b.Losses++
		winnerID, loserID = &idA, &idB
	case model.ResultBWins:
		b.Wins++
		a.Losses++
		winnerID, loserID = &idB, &idA
	default:
		a.Draws++
		b.Draws++
		outcome = "draw"
	}
	a.Matches++
	b.Matches++
	a.Rating = newA
	b.Rating = newB

	// For a draw the winner-role fields carry A's ratings and the
	// loser-role fields B's; A is treated as primary by convention.
	entry := model.MatchEntry{
		Timestamp:          c.now().UTC(),
		WinnerID:           winnerID,
		LoserID:            loserID,
		Draw:               result == model.ResultDraw,
		WinnerRatingBefore: beforeA,
		LoserRatingBefore:  beforeB,
		WinnerRatingAfter:  newA,
		LoserRatingAfter:   newB,
	}
	if winnerID != nil && *winnerID == idB {
		entry.WinnerRatingBefore, entry.LoserRatingBefore = beforeB, beforeA
		entry.WinnerRatingAfter, entry.LoserRatingAfter = newB, newA
	}

	c.history = append([]model.MatchEntry{entry}, c.history...)
	if len(c.history) > c.historyLimit {
		c.history = c.history[:c.historyLimit]
	}
	c.gen++

	metrics.RecordMatchRecorded(outcome)
	metrics.RecordRatingDelta(newA - beforeA)
	metrics.UpdateHistoryLength(len(c.history))
	return entry, nil
}

// Items implements Store.Items.
func (c *Catalog) Items(_ context.Context) []model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Ranking implements Store.Ranking. The sort is stable so equal
// ratings keep registration order, making the result reproducible.
func (c *Catalog) Ranking(_ context.Context) []model.Item {
	c.mu.Lock()
	items := c.snapshotLocked()
	c.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Rating > items[j].Rating
	})
	return items
}

// History implements Store.History.
func (c *Catalog) History(_ context.Context, limit int) []model.MatchEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.MatchEntry, n)
	copy(out, c.history[:n])
	return out
}

// Snapshot implements Store.Snapshot. Items and history come from the
// same critical section; separate Items/History calls can interleave
// with a writer and disagree about which items exist.
func (c *Catalog) Snapshot(_ context.Context) ([]model.Item, []model.MatchEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.snapshotLocked()
	history := make([]model.MatchEntry, len(c.history))
	copy(history, c.history)
	return items, history
}

// Count implements Store.Count.
func (c *Catalog) Count(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

// ResetAll implements Store.ResetAll. Destructive; the boundary layer
// is responsible for confirmation.
func (c *Catalog) ResetAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.byID {
		item.Rating = c.defaultRating
		item.Wins = 0
		item.Losses = 0
		item.Draws = 0
		item.Matches = 0
	}
	c.history = nil
	c.gen++
	metrics.UpdateHistoryLength(0)
}

// ReplaceAll implements Store.ReplaceAll.
func (c *Catalog) ReplaceAll(_ context.Context, items []model.Item, history []model.MatchEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[string]*model.Item, len(items))
	c.order = make([]string, 0, len(items))
	for i := range items {
		item := items[i]
		c.byID[item.ID] = &item
		c.order = append(c.order, item.ID)
	}
	c.history = make([]model.MatchEntry, len(history))
	copy(c.history, history)
	if len(c.history) > c.historyLimit {
		c.history = c.history[:c.historyLimit]
	}
	c.gen++
	metrics.UpdateCatalogSize(len(c.byID))
	metrics.UpdateHistoryLength(len(c.history))
}

// Generation implements Store.Generation.
func (c *Catalog) Generation(_ context.Context) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// snapshotLocked copies all items in registration order. Must be
// called with c.mu held.
func (c *Catalog) snapshotLocked() []model.Item {
	out := make([]model.Item, 0, len(c.order))
	for _, id := range c.order {
		if item, ok := c.byID[id]; ok {
			out = append(out, *item)
		}
	}
	return out
}
