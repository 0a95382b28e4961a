// Command seed-votes floods a running duelrank instance with synthetic
// items and verdicts, then checks ranking convergence.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/mkarimi/duelrank/internal/seedvotes"
	"github.com/mkarimi/duelrank/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumItems   = 100
	defaultNumVotes   = 5000
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numItems = flag.Int("items", defaultNumItems, "Number of items to register")
		numVotes = flag.Int("votes", defaultNumVotes, "Number of verdicts to submit")
		workers  = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent submitters")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible runs")
		verbose  = flag.Bool("verbose", false, "Log top performers after the run")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seedvotes.Config{
		BaseURL:  *baseURL,
		NumItems: *numItems,
		NumVotes: *numVotes,
		Workers:  *workers,
		Timeout:  *timeout,
		Seed:     *seed,
		Verbose:  *verbose,
	}

	if _, err := seedvotes.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seed run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
