package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/podium/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete load-generation pass: submit attempts, trigger
// a reindex sweep, then read back and verify the leaderboards.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting podium load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("attempts", config.NumAttempts),
		logger.Int("challenges", config.Challenges),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	attempts, err := generateAttempts(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("attempt generation failed: %w", err)
	}

	if err := submitAttempts(ctx, config, attempts, stats); err != nil {
		return fmt.Errorf("attempt submission failed: %w", err)
	}

	// Ingest workers reindex asynchronously; give them a moment, then force
	// a sweep so every challenge has a fresh snapshot.
	logger.Get().Info(ctx, "waiting for attempts to be processed")
	time.Sleep(ProcessingDelay)

	if err := triggerReindex(ctx, config); err != nil {
		return fmt.Errorf("reindex trigger failed: %w", err)
	}

	boards, err := readLeaderboards(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	if err := verifyLeaderboards(ctx, boards); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}

	if err := saveAttemptsToFile(ctx, config, attempts); err != nil {
		logger.Get().Warn(ctx, "failed to save attempts to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "load run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout, config.AdminToken)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// readLeaderboards fetches the snapshot for every generated challenge.
func readLeaderboards(ctx context.Context, config *Config, stats *Stats) (map[string][]Entry, error) {
	client := newHTTPClient(config.Timeout, config.AdminToken)

	boards := make(map[string][]Entry, config.Challenges)
	for i := 0; i < config.Challenges; i++ {
		challengeID := "challenge-" + strconv.Itoa(i)
		entries, err := getLeaderboard(ctx, client, config, challengeID)
		if err != nil {
			// A challenge may legitimately have received no attempts.
			if config.Verbose {
				logger.Get().Warn(ctx, "leaderboard read failed",
					logger.String("challenge_id", challengeID), logger.Error(err))
			}
			continue
		}
		boards[challengeID] = entries
		stats.LeaderboardsRead++
		stats.LeaderboardEntries += len(entries)
	}

	if len(boards) == 0 {
		return nil, fmt.Errorf("no leaderboards could be read")
	}
	return boards, nil
}

// saveAttemptsToFile saves the generated attempts to a JSON file.
func saveAttemptsToFile(ctx context.Context, config *Config, attempts []Attempt) error {
	if len(attempts) == 0 {
		return fmt.Errorf("no attempts to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_attempts_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(attempts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "attempts saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, attemptsPerSecond float64

	if stats.AttemptsSubmitted > 0 {
		successRate = float64(stats.AttemptsSuccessful) / float64(stats.AttemptsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		attemptsPerSecond = float64(stats.AttemptsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("attemptsGenerated", stats.AttemptsGenerated),
		logger.Int("attemptsSubmitted", stats.AttemptsSubmitted),
		logger.Int("attemptsSuccessful", stats.AttemptsSuccessful),
		logger.Int("attemptsDuplicate", stats.AttemptsDuplicate),
		logger.Int("attemptsFailed", stats.AttemptsFailed),
		logger.Int("leaderboardsRead", stats.LeaderboardsRead),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("attemptsPerSecond", attemptsPerSecond))
}
