// Package repository implements the in-memory catalog of rated items
// and their bounded match log.
package repository

import (
	"context"

	"github.com/mkarimi/duelrank/internal/domain/model"
)

// Store provides read/write access to rating state. The implementation
// is the sole writer of item fields; callers only observe copies.
type Store interface {
	// Register creates an item for sourceRef or returns the existing
	// one. Registration is idempotent by the derived id.
	Register(ctx context.Context, sourceRef, displayName string) (model.Item, error)

	// Get returns the item by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (model.Item, error)

	// Remove deletes an item and purges every match log entry that
	// references it. Reports whether an item was removed.
	Remove(ctx context.Context, id string) bool

	// RecordMatch applies one comparison outcome: Elo update, counter
	// increments and a prepended match log entry, all under a single
	// critical section. Returns ErrNotFound (with state untouched)
	// when either id is unknown.
	RecordMatch(ctx context.Context, idA, idB string, result float64) (model.MatchEntry, error)

	// Items returns a snapshot of all items in insertion order.
	Items(ctx context.Context) []model.Item

	// Ranking returns all items sorted by rating descending; ties keep
	// insertion order.
	Ranking(ctx context.Context) []model.Item

	// History returns up to limit match log entries, most recent
	// first. A non-positive limit returns the full log.
	History(ctx context.Context, limit int) []model.MatchEntry

	// Snapshot returns the items and the full match log copied under
	// a single critical section, so every history entry references an
	// item present in the returned slice.
	Snapshot(ctx context.Context) ([]model.Item, []model.MatchEntry)

	// Count returns the number of registered items.
	Count(ctx context.Context) int

	// ResetAll restores every rating to the default, zeroes counters
	// and clears the match log.
	ResetAll(ctx context.Context)

	// ReplaceAll swaps in a wholesale new state, e.g. from a loaded
	// session. Items must be given in the desired insertion order and
	// history most-recent-first.
	ReplaceAll(ctx context.Context, items []model.Item, history []model.MatchEntry)

	// Generation returns a counter bumped by every mutation. Callers
	// caching derived artifacts (thumbnails etc.) re-fetch when it
	// changes.
	Generation(ctx context.Context) uint64
}
