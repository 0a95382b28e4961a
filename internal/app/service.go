// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkarimi/duelrank/internal/adapters/codec"
	verdictqueue "github.com/mkarimi/duelrank/internal/adapters/mq/queue"
	workerpool "github.com/mkarimi/duelrank/internal/adapters/mq/worker"
	"github.com/mkarimi/duelrank/internal/adapters/repository"
	"github.com/mkarimi/duelrank/internal/domain/dedupe"
	"github.com/mkarimi/duelrank/internal/domain/matchmake"
	"github.com/mkarimi/duelrank/internal/domain/model"
	"github.com/mkarimi/duelrank/internal/domain/rating"
	"github.com/mkarimi/duelrank/pkg/logger"
	"github.com/mkarimi/duelrank/pkg/metrics"
)

// Pairing mode names accepted by RequestPair. Anything else falls back
// to smart pairing.
const (
	PairModeRandom = "random"
	PairModeSmart  = "smart"
)

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog *repository.Catalog
	picker  *matchmake.Picker
	deduper dedupe.Deduper
	queue   verdictqueue.Queue
	pool    *workerpool.Pool

	// Configuration
	kFactor       float64
	defaultRating float64
	historyLimit  int
	smartPoolSize int
	queueSize     int
	workerCount   int
	dedupeSize    int
	dataFile      string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithKFactor sets the rating K-factor.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithDefaultRating sets the rating assigned to new items.
func WithDefaultRating(r float64) Option {
	return func(s *Service) {
		s.defaultRating = r
	}
}

// WithHistoryLimit bounds the retained match log.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithSmartPoolSize sets how many nearest-rated candidates smart
// pairing chooses among.
func WithSmartPoolSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.smartPoolSize = n
		}
	}
}

// WithQueueSize sets the maximum size of the verdict queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize sets the size of the verdict deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDataFile sets the session document path used by save, load, and
// startup autoload.
func WithDataFile(path string) Option {
	return func(s *Service) {
		s.dataFile = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		kFactor:       32.0,
		defaultRating: 1000.0,
		historyLimit:  5000,
		smartPoolSize: 6,
		queueSize:     10_000,
		workerCount:   runtime.NumCPU() * 2,
		dedupeSize:    50_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components. When a data
// file is configured and present, the previous session is loaded.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting rating service...")

	engine := rating.NewEngine(rating.WithKFactor(s.kFactor))
	s.catalog = repository.NewCatalog(
		repository.WithEngine(engine),
		repository.WithDefaultRating(s.defaultRating),
		repository.WithHistoryLimit(s.historyLimit),
	)
	s.picker = matchmake.NewPicker(
		matchmake.WithPoolSize(s.smartPoolSize),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = verdictqueue.NewInMemoryQueue(
		verdictqueue.WithCapacity(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.catalog)
	s.pool.Start(ctx)
	s.started = true

	if s.dataFile != "" {
		if err := s.loadSessionFile(ctx, s.dataFile); err != nil {
			if os.IsNotExist(err) {
				s.logger.Info(ctx, "no session file yet, starting empty",
					logger.String("path", s.dataFile))
			} else {
				s.logger.Error(ctx, "session autoload failed", logger.Error(err))
				return fmt.Errorf("autoload session: %w", err)
			}
		}
	}

	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Float64("kFactor", s.kFactor),
	)
	return nil
}

// Stop gracefully shuts down the service, draining queued verdicts.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating service...")

	if s.pool != nil {
		// Shutdown closes the queue and drains the backlog.
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// RegisterItem adds an item to the catalog, or returns the existing
// record when the source ref was already registered.
func (s *Service) RegisterItem(ctx context.Context, sourceRef, displayName string) (model.Item, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Item{}, err
	}
	return s.catalog.Register(ctx, sourceRef, displayName)
}

// RemoveItem deletes an item and purges its match log entries.
func (s *Service) RemoveItem(ctx context.Context, id string) bool {
	return s.catalog.Remove(ctx, id)
}

// GetItem returns a single item by id.
func (s *Service) GetItem(ctx context.Context, id string) (model.Item, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Item{}, err
	}
	return s.catalog.Get(ctx, id)
}

// ensureStarted rejects operations on a service whose collaborators
// have not been built by Start yet. A stopped service keeps its state
// so the shutdown path can still save the session; submissions after
// Stop fail at the closed queue instead.
func (s *Service) ensureStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return ErrNotStarted
	}
	return nil
}

// RequestPair picks two distinct items to present. Mode "random" draws
// uniformly; anything else uses smart pairing against close ratings.
func (s *Service) RequestPair(ctx context.Context, mode string) (model.Pair, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Pair{}, err
	}
	if mode != PairModeRandom {
		mode = PairModeSmart
	}
	metrics.RecordPairRequest(mode)

	items := s.catalog.Items(ctx)
	var (
		pair model.Pair
		err  error
	)
	if mode == PairModeRandom {
		pair, err = s.picker.RandomPair(items)
	} else {
		pair, err = s.picker.SmartPair(items)
	}
	if err != nil {
		metrics.RecordPairMiss()
		return model.Pair{}, err
	}
	return pair, nil
}

// SubmitVerdict validates and enqueues a verdict for asynchronous
// application, returning the normalized verdict (a missing id gets a
// generated one). The bool reports whether the verdict id was already
// seen, in which case the submission is ignored. A full queue rejects
// and forgets the id so the caller can retry.
func (s *Service) SubmitVerdict(ctx context.Context, v model.Verdict) (model.Verdict, bool, error) {
	if err := s.ensureStarted(); err != nil {
		return v, false, err
	}
	if v.ItemA == "" || v.ItemB == "" || v.ItemA == v.ItemB {
		return v, false, fmt.Errorf("%w: need two distinct item ids", ErrInvalidVerdict)
	}
	if !model.ValidResult(v.Result) {
		return v, false, fmt.Errorf("%w: result %v out of range", ErrInvalidVerdict, v.Result)
	}
	if v.VerdictID == "" {
		v.VerdictID = uuid.NewString()
	}
	if v.TS.IsZero() {
		v.TS = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, v.VerdictID) {
		metrics.RecordVerdictDuplicate()
		s.logger.Debug(ctx, "duplicate verdict ignored",
			logger.String("verdictID", v.VerdictID))
		return v, true, nil
	}

	if !s.queue.Enqueue(ctx, v) {
		// Forget the id so a retry is not treated as a duplicate.
		s.deduper.Unrecord(ctx, v.VerdictID)
		return v, false, ErrQueueFull
	}
	metrics.RecordVerdictAccepted()
	return v, false, nil
}

// Ranking returns items ordered by rating, highest first. A positive
// limit truncates the result.
func (s *Service) Ranking(ctx context.Context, limit int) []model.Item {
	ranked := s.catalog.Ranking(ctx)
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

// History returns the most recent match entries, newest first.
func (s *Service) History(ctx context.Context, limit int) []model.MatchEntry {
	return s.catalog.History(ctx, limit)
}

// ItemStats returns a display label summarizing an item's record.
func (s *Service) ItemStats(ctx context.Context, id string) (string, error) {
	if err := s.ensureStarted(); err != nil {
		return "", err
	}
	item, err := s.catalog.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s / Rating: %.1f / W:%d L:%d D:%d M:%d",
		item.DisplayName, item.Rating,
		item.Wins, item.Losses, item.Draws, item.Matches), nil
}

// ResetAll restores every item to the default rating, zeroes counters,
// and clears the match log. Items stay registered.
func (s *Service) ResetAll(ctx context.Context) {
	s.catalog.ResetAll(ctx)
	s.logger.Warn(ctx, "all ratings and history reset")
}

// SaveSession writes the current catalog and history to the configured
// data file. The snapshot is taken atomically; encoding and the write
// happen outside the catalog lock.
func (s *Service) SaveSession(ctx context.Context) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	if s.dataFile == "" {
		return ErrNoDataFile
	}

	start := time.Now()
	items, history := s.catalog.Snapshot(ctx)

	tmp := s.dataFile + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		metrics.RecordPersistError("save")
		return fmt.Errorf("create session file: %w", err)
	}
	if err := codec.Save(f, items, history); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		metrics.RecordPersistError("save")
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		metrics.RecordPersistError("save")
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp, s.dataFile); err != nil {
		_ = os.Remove(tmp)
		metrics.RecordPersistError("save")
		return fmt.Errorf("replace session file: %w", err)
	}

	metrics.RecordPersistDuration("save", float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "session saved",
		logger.String("path", s.dataFile),
		logger.Int("items", len(items)),
		logger.Int("history", len(history)),
	)
	return nil
}

// LoadSession replaces the catalog with the contents of the configured
// data file.
func (s *Service) LoadSession(ctx context.Context) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	if s.dataFile == "" {
		return ErrNoDataFile
	}
	return s.loadSessionFile(ctx, s.dataFile)
}

func (s *Service) loadSessionFile(ctx context.Context, path string) error {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			metrics.RecordPersistError("load")
		}
		return err
	}
	defer func() { _ = f.Close() }()

	items, history, err := codec.Load(f)
	if err != nil {
		metrics.RecordPersistError("load")
		return err
	}
	s.catalog.ReplaceAll(ctx, items, history)

	metrics.RecordPersistDuration("load", float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "session loaded",
		logger.String("path", path),
		logger.Int("items", len(items)),
		logger.Int("history", len(history)),
	)
	return nil
}

// ExportCSV streams the current ranking as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	start := time.Now()
	if err := codec.ExportRanking(w, s.catalog.Ranking(ctx)); err != nil {
		metrics.RecordPersistError("export")
		return err
	}
	metrics.RecordPersistDuration("export", float64(time.Since(start).Milliseconds()))
	return nil
}

// Generation returns the catalog change counter. It increments on any
// mutation, so callers can cheaply invalidate derived artifacts.
func (s *Service) Generation(ctx context.Context) uint64 {
	return s.catalog.Generation(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"kFactor":     s.kFactor,
	}
	if s.started {
		stats["items"] = s.catalog.Count(ctx)
		stats["historyLength"] = len(s.catalog.History(ctx, 0))
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["generation"] = s.catalog.Generation(ctx)
	}
	return stats
}
