package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound = errors.New("item not found")
	ErrEmptyRef = errors.New("empty source ref")
)
