package matchmake

import "errors"

// ErrNotEnoughItems signals that fewer than two items are registered.
// An empty or single-item catalog is an expected steady state, so
// callers should treat this as "no pair available" rather than a fault.
var ErrNotEnoughItems = errors.New("not enough items for a pair")
