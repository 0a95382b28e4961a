// Package matchmake selects item pairs for comparison.
//
// Both strategies are read-only over a catalog snapshot; the random
// source is injectable so tests can assert distributional properties
// against a fixed seed.
package matchmake

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/mkarimi/duelrank/internal/domain/model"
)

// Default size of the smart-pairing candidate pool.
const defaultPoolSize = 6

// Option applies a configuration option to the Picker.
type Option func(*Picker)

// WithRand sets the random source. Pass a seeded source for
// reproducible selections.
func WithRand(rng *rand.Rand) Option {
	return func(p *Picker) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// WithPoolSize sets how many closest-rated candidates smart pairing
// considers for the second slot.
func WithPoolSize(n int) Option {
	return func(p *Picker) {
		if n > 0 {
			p.poolSize = n
		}
	}
}

// Picker implements the pairing strategies. Safe for concurrent use;
// *rand.Rand is not, so draws go through the mutex.
type Picker struct {
	mu       sync.Mutex
	rng      *rand.Rand
	poolSize int
}

// NewPicker creates a Picker with configuration options.
func NewPicker(opts ...Option) *Picker {
	p := &Picker{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // matchmaking needs no cryptographic randomness
		poolSize: defaultPoolSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RandomPair samples two distinct items uniformly without replacement.
// Returns ErrNotEnoughItems when fewer than two items exist.
func (p *Picker) RandomPair(items []model.Item) (model.Pair, error) {
	if len(items) < 2 {
		return model.Pair{}, ErrNotEnoughItems
	}
	p.mu.Lock()
	i := p.rng.Intn(len(items))
	j := p.rng.Intn(len(items) - 1)
	p.mu.Unlock()
	if j >= i {
		j++
	}
	return model.Pair{A: items[i], B: items[j]}, nil
}

// SmartPair picks a uniform anchor, then a uniform choice among the
// poolSize candidates closest to the anchor's rating. Biasing matchups
// toward similar ratings speeds up convergence while the residual
// randomness avoids deterministic cycles.
func (p *Picker) SmartPair(items []model.Item) (model.Pair, error) {
	if len(items) < 2 {
		return model.Pair{}, ErrNotEnoughItems
	}
	p.mu.Lock()
	anchorIdx := p.rng.Intn(len(items))
	p.mu.Unlock()
	anchor := items[anchorIdx]

	type candidate struct {
		diff float64
		idx  int
	}
	candidates := make([]candidate, 0, len(items)-1)
	for i := range items {
		if i == anchorIdx {
			continue
		}
		candidates = append(candidates, candidate{
			diff: math.Abs(anchor.Rating - items[i].Rating),
			idx:  i,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].diff < candidates[j].diff
	})

	pool := p.poolSize
	if pool > len(candidates) {
		pool = len(candidates)
	}
	p.mu.Lock()
	pick := p.rng.Intn(pool)
	p.mu.Unlock()
	chosen := candidates[pick]
	return model.Pair{A: anchor, B: items[chosen.idx]}, nil
}
