package loadgen

import "time"

// Config holds configuration for a load-generation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumAttempts int           // Number of attempts to generate
	Challenges  int           // Number of distinct challenges to spread attempts over
	TopN        int           // Number of top entries to fetch per leaderboard
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	AdminToken  string        // Token for the reindex trigger
	OutputFile  string        // Output file for generated attempts
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging
}

// Attempt mirrors the ingest schema accepted by POST /attempts.
type Attempt struct {
	AttemptID   string `json:"attempt_id"`
	ChallengeID string `json:"challenge_id"`
	ProfileID   string `json:"profile_id,omitempty"`
	Success     bool   `json:"success"`
	Cost        int64  `json:"cost"`
	AchievedAt  string `json:"achieved_at"`
}

// Entry mirrors a leaderboard entry returned by the read API.
type Entry struct {
	Rank      int    `json:"rank"`
	ProfileID string `json:"profile_id"`
	AttemptID string `json:"attempt_id"`
	Score     int64  `json:"score"`
}

// leaderboardResponse mirrors GET /leaderboard/{challenge_id}.
type leaderboardResponse struct {
	ChallengeID string  `json:"challenge_id"`
	Entries     []Entry `json:"entries"`
}

// AckResponse represents the response from attempt submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	AttemptsGenerated  int
	AttemptsSubmitted  int
	AttemptsSuccessful int
	AttemptsDuplicate  int
	AttemptsFailed     int
	LeaderboardsRead   int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
