package service

import "errors"

// Sentinel kinds for service-level failures.
var (
	// ErrInvalidVerdict marks a verdict with an out-of-range result,
	// missing item ids, or a self-match.
	ErrInvalidVerdict = errors.New("invalid verdict")

	// ErrQueueFull is returned when the verdict queue rejects a
	// submission under backpressure.
	ErrQueueFull = errors.New("verdict queue full")

	// ErrNoDataFile is returned by session operations when no data
	// file is configured.
	ErrNoDataFile = errors.New("no data file configured")

	// ErrNotStarted is returned when an operation requires a started
	// service.
	ErrNotStarted = errors.New("service not started")
)
