package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/salto/internal/simulate"
	"github.com/okian/salto/pkg/logger"
)

// Default configuration constants.
const (
	defaultAthletes    = 25
	defaultDJudges     = 2
	defaultEJudges     = 5
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultPublishTop  = 3
	defaultTimeout     = 30 * time.Second
	defaultSettleDelay = 2 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		athletes    = flag.Int("athletes", defaultAthletes, "Number of athletes to register")
		dJudges     = flag.Int("d-judges", defaultDJudges, "Number of difficulty judges per panel")
		eJudges     = flag.Int("e-judges", defaultEJudges, "Number of execution judges per panel")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submission workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		publishTop  = flag.Int("publish-top", defaultPublishTop, "Number of leaders per apparatus to publish")
		settleDelay = flag.Duration("settle", defaultSettleDelay, "Delay before leaderboard verification")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:     *baseURL,
		Athletes:    *athletes,
		DJudges:     *dJudges,
		EJudges:     *eJudges,
		Workers:     *workers,
		Timeout:     *timeout,
		PublishTop:  *publishTop,
		SettleDelay: *settleDelay,
		Verbose:     *verbose,
	}

	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
