// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry as served by the read API.
// Rank is the 1-based position within the current score cache.
type Entry struct {
	Rank      int    `json:"rank"`
	ProfileID string `json:"profile_id"`
	AttemptID string `json:"attempt_id"`
	Score     int64  `json:"score"`
}

// ReindexOutcome reports the terminal result of a single-challenge reindex.
type ReindexOutcome struct {
	ChallengeID string `json:"challenge_id"`
	Entries     int    `json:"entries"`
	Retries     int    `json:"retries"`
}

// ReindexSummary reports the result of a full reindex sweep.
type ReindexSummary struct {
	Challenges int      `json:"challenges"`
	Succeeded  int      `json:"succeeded"`
	Failed     []string `json:"failed,omitempty"`
}
