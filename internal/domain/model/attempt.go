// Package model contains domain models passed between layers.
package model

import "time"

// Attempt represents one evaluated submission outcome for a challenge.
// Fields mirror what the external attempt evaluator reports; attempts are
// immutable once recorded.
type Attempt struct {
	ID          string    // unique id for idempotency
	ChallengeID string    // owning challenge
	ProfileID   string    // submitting profile; empty for anonymous attempts
	Success     bool      // whether the evaluator judged the attempt correct
	Cost        int64     // the quantity being minimized; lower is better
	AchievedAt  time.Time // evaluation timestamp
}

// Anonymous reports whether the attempt carries no profile identity.
func (a Attempt) Anonymous() bool {
	return a.ProfileID == ""
}

// PointTable is an ordered sequence of point values awarded by rank.
// Values[0] is the award for the best-ranked profile. Reference data,
// immutable once stored.
type PointTable struct {
	ID     string
	Values []int64
}

// Entry is one scored row of a challenge's leaderboard: the profile, the
// best attempt it is ranked by, and the points awarded for its position.
type Entry struct {
	ProfileID string
	AttemptID string
	Score     int64
}

// ScoreCache is the denormalized leaderboard snapshot for a challenge.
// It is replaced wholesale on every successful reindex, never patched.
type ScoreCache struct {
	ChallengeID string
	Entries     []Entry
	ComputedAt  time.Time
}
