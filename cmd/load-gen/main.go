package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/podium/internal/loadgen"
)

// Default configuration constants.
const (
	defaultNumAttempts = 10000
	defaultChallenges  = 10
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numAttempts = flag.Int("attempts", defaultNumAttempts, "Number of attempts to generate and submit")
		challenges  = flag.Int("challenges", defaultChallenges, "Number of challenges to spread attempts over")
		topN        = flag.Int("top", defaultTopN, "Number of top entries to fetch per leaderboard")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		adminToken  = flag.String("admin-token", os.Getenv("PODIUM_ADMIN_TOKEN"), "Token for the reindex trigger")
		outputFile  = flag.String("output", "", "Output file for generated attempts (default: generated_attempts_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for run output (default: load_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	if err := loadgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:     *baseURL,
		NumAttempts: *numAttempts,
		Challenges:  *challenges,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		AdminToken:  *adminToken,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		return
	}
}
