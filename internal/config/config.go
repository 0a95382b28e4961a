// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load() layers a YAML file and environment variables on top.
// - External errors must be wrapped via this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultRating is assigned to newly registered items.
	DefaultRating float64 `koanf:"default_rating"`

	// KFactor scales per-match rating movement.
	KFactor float64 `koanf:"k_factor"`

	// HistoryLimit bounds the retained match log.
	HistoryLimit int `koanf:"history_limit"`

	// SmartPoolSize is how many nearest-rated candidates smart pairing
	// chooses among.
	SmartPoolSize int `koanf:"smart_pool_size"`

	// QueueSize bounds the in-memory verdict queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of verdict workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the verdict deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRankingLimit caps GET /ranking?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// DataFile, when set, is the session document loaded on startup
	// and written by POST /session/save.
	DataFile string `koanf:"data_file"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		DefaultRating:   1000.0,
		KFactor:         32.0,
		HistoryLimit:    5000,
		SmartPoolSize:   6,
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU() * 2,
		DedupeSize:      50_000,
		MaxRankingLimit: 1000,
		DataFile:        "",
	}
}
