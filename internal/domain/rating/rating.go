// Package rating implements the Elo update rule used for pairwise ranking.
package rating

import "math"

// Default sensitivity factor. A single match moves a rating by at most K.
const defaultKFactor = 32.0

// Elo logistic scale constant.
const logisticScale = 400.0

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKFactor sets the sensitivity factor.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.k = k
		}
	}
}

// Engine computes Elo rating updates. It is stateless and safe for
// concurrent use.
type Engine struct {
	k float64
}

// NewEngine creates an Engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{k: defaultKFactor}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// KFactor returns the configured sensitivity factor.
func (e *Engine) KFactor() float64 {
	return e.k
}

// ExpectedScore returns the probability in [0,1] that a rating of ra
// beats a rating of rb under the logistic Elo model. The 0.5 fallback
// guards against both q-values degenerating to zero.
func ExpectedScore(ra, rb float64) float64 {
	qa := math.Pow(10, ra/logisticScale)
	qb := math.Pow(10, rb/logisticScale)
	if qa+qb == 0 {
		return 0.5
	}
	return qa / (qa + qb)
}

// Update returns the new ratings for a and b given result, where
// result is 1 when A wins, 0 when B wins and 0.5 for a draw. The two
// expectation calls are made independently rather than as complements;
// the sum of deltas is therefore not forced to zero. That asymmetry is
// deliberate and must not be "fixed".
func (e *Engine) Update(ra, rb, result float64) (float64, float64) {
	ea := ExpectedScore(ra, rb)
	eb := ExpectedScore(rb, ra)
	newA := ra + e.k*(result-ea)
	newB := rb + e.k*((1.0-result)-eb)
	return newA, newB
}
