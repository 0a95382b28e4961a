package seedvotes

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mkarimi/duelrank/internal/domain/model"
	"github.com/mkarimi/duelrank/pkg/logger"
)

// Simulation constants. Strengths are drawn on an Elo-like scale so a
// logistic with the standard 400 divisor gives sensible win odds.
const (
	strengthSpread      = 300.0
	logisticScale       = 400.0
	drawProbability     = 0.08
	minCorrelation      = 0.5
	correlationMinVotes = 500
)

// Run registers synthetic items, submits sampled verdicts, and then
// verifies the service ranking against the hidden strengths.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seed-votes")
	client := newHTTPClient(cfg.Timeout)
	rng := rand.New(rand.NewSource(cfg.Seed))
	stats := &Stats{}
	start := time.Now()

	if err := client.getJSON(ctx, cfg.BaseURL+"/healthz", nil); err != nil {
		return nil, fmt.Errorf("service not reachable: %w", err)
	}

	items, err := registerItems(ctx, client, cfg, rng, stats)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "items registered", logger.Int("count", len(items)))

	if err := submitVotes(ctx, client, cfg, items, stats); err != nil {
		return nil, err
	}
	log.Info(ctx, "votes submitted",
		logger.Int64("accepted", stats.VotesAccepted),
		logger.Int64("duplicate", stats.VotesDuplicate),
		logger.Int64("rejected", stats.VotesRejected),
	)

	if err := verifyRanking(ctx, client, cfg, items, stats, log); err != nil {
		return nil, err
	}

	stats.Elapsed = time.Since(start)
	log.Info(ctx, "run complete",
		logger.Duration("elapsed", stats.Elapsed),
		logger.Float64("rankCorrelation", stats.RankCorrelation),
	)
	return stats, nil
}

func registerItems(ctx context.Context, client *httpClient, cfg *Config, rng *rand.Rand, stats *Stats) ([]item, error) {
	items := make([]item, cfg.NumItems)
	for i := range items {
		name := fmt.Sprintf("seed-%03d", i)
		var resp itemResponse
		_, err := client.postJSON(ctx, cfg.BaseURL+"/items", map[string]string{
			"path": "seed/" + uuid.NewString() + ".jpg",
			"name": name,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("register item %d: %w", i, err)
		}
		items[i] = item{
			ID:       resp.ID,
			Name:     name,
			Strength: rng.NormFloat64() * strengthSpread,
		}
	}
	stats.ItemsRegistered = len(items)
	return items, nil
}

// submitVotes samples pairs uniformly and outcomes from a logistic on
// the strength difference, spread across cfg.Workers goroutines.
func submitVotes(ctx context.Context, client *httpClient, cfg *Config, items []item, stats *Stats) error {
	if len(items) < 2 {
		return fmt.Errorf("need at least 2 items, have %d", len(items))
	}

	var wg sync.WaitGroup
	votesPerWorker := cfg.NumVotes / cfg.Workers
	errCh := make(chan error, cfg.Workers)

	for w := 0; w < cfg.Workers; w++ {
		count := votesPerWorker
		if w == cfg.Workers-1 {
			count += cfg.NumVotes % cfg.Workers
		}
		wg.Add(1)
		go func(seed int64, count int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < count; i++ {
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				a := rng.Intn(len(items))
				b := rng.Intn(len(items) - 1)
				if b >= a {
					b++
				}
				status, err := client.postJSON(ctx, cfg.BaseURL+"/verdicts", verdictRequest{
					VerdictID: uuid.NewString(),
					ItemA:     items[a].ID,
					ItemB:     items[b].ID,
					Result:    sampleResult(rng, items[a].Strength, items[b].Strength),
				}, nil)
				switch {
				case err != nil:
					atomic.AddInt64(&stats.VotesRejected, 1)
				case status == http.StatusAccepted:
					atomic.AddInt64(&stats.VotesAccepted, 1)
				default:
					atomic.AddInt64(&stats.VotesDuplicate, 1)
				}
			}
		}(cfg.Seed+int64(w)+1, count)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// sampleResult draws a verdict outcome from the hidden strengths.
func sampleResult(rng *rand.Rand, sa, sb float64) float64 {
	if rng.Float64() < drawProbability {
		return model.ResultDraw
	}
	pa := 1.0 / (1.0 + math.Pow(10, (sb-sa)/logisticScale))
	if rng.Float64() < pa {
		return model.ResultAWins
	}
	return model.ResultBWins
}

// verifyRanking fetches the service ranking and computes the Spearman
// correlation between true-strength order and observed order. The run
// fails when enough votes were cast but the correlation stayed low.
func verifyRanking(ctx context.Context, client *httpClient, cfg *Config, items []item, stats *Stats, log logger.Logger) error {
	var ranked []rankedItem
	url := fmt.Sprintf("%s/ranking?limit=%d", cfg.BaseURL, len(items))
	if err := client.getJSON(ctx, url, &ranked); err != nil {
		return fmt.Errorf("fetch ranking: %w", err)
	}

	observed := make(map[string]int, len(ranked))
	for _, row := range ranked {
		observed[row.ID] = row.Rank
	}

	byStrength := make([]item, len(items))
	copy(byStrength, items)
	sort.Slice(byStrength, func(i, j int) bool {
		return byStrength[i].Strength > byStrength[j].Strength
	})

	stats.RankCorrelation = spearman(byStrength, observed)

	if cfg.Verbose {
		for i, it := range byStrength {
			if i >= 10 {
				break
			}
			log.Info(ctx, "top performer",
				logger.Int("trueRank", i+1),
				logger.Int("observedRank", observed[it.ID]),
				logger.String("name", it.Name),
			)
		}
	}

	if cfg.NumVotes >= correlationMinVotes && stats.RankCorrelation < minCorrelation {
		return fmt.Errorf("ranking did not converge: correlation %.3f < %.3f",
			stats.RankCorrelation, minCorrelation)
	}
	return nil
}

// spearman computes the rank correlation between the true-strength
// order of byStrength and the observed service ranks.
func spearman(byStrength []item, observed map[string]int) float64 {
	n := len(byStrength)
	if n < 2 {
		return 1.0
	}
	var sumSq float64
	for trueRank, it := range byStrength {
		obs, ok := observed[it.ID]
		if !ok {
			obs = n
		}
		d := float64(trueRank + 1 - obs)
		sumSq += d * d
	}
	nf := float64(n)
	return 1.0 - (6.0*sumSq)/(nf*(nf*nf-1.0))
}
