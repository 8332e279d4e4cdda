package loadgen

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/podium/pkg/logger"
)

// Cost distribution bounds. Most solvers land mid-range; a few are cheap
// enough to contest the podium and a few fail outright.
const (
	costBucketCount = 8

	eliteCostMax   = 10
	strongCostMin  = 10
	strongCostMax  = 50
	typicalCostMin = 50
	typicalCostMax = 500
	weakCostMin    = 500
	weakCostMax    = 5_000

	failureBucket   = 7
	anonymousBucket = 6
)

// randInt64 returns a uniform value in [0, n) using crypto/rand.
func randInt64(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateAttempts creates the configured number of attempts spread over the
// configured challenges, each with a unique profile and attempt id.
func generateAttempts(ctx context.Context, config *Config, stats *Stats) ([]Attempt, error) {
	logger.Get().Info(ctx, "generating attempts",
		logger.Int("numAttempts", config.NumAttempts),
		logger.Int("challenges", config.Challenges))

	attempts := make([]Attempt, config.NumAttempts)
	for i := range attempts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		attempts[i] = generateSingleAttempt(i, config.Challenges)
	}

	stats.AttemptsGenerated = len(attempts)
	logger.Get().Info(ctx, "generated attempts", logger.Int("count", len(attempts)))
	return attempts, nil
}

// generateSingleAttempt creates one attempt for a pseudo-random challenge.
func generateSingleAttempt(index, challenges int) Attempt {
	bucket := randInt64(costBucketCount)

	a := Attempt{
		AttemptID:   "attempt_" + strconv.Itoa(index) + "_" + strconv.FormatInt(time.Now().UnixNano(), 10),
		ChallengeID: "challenge-" + strconv.FormatInt(randInt64(int64(challenges)), 10),
		ProfileID:   uuid.New().String(),
		Success:     bucket != failureBucket,
		Cost:        generateCost(bucket),
		AchievedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if bucket == anonymousBucket {
		a.ProfileID = ""
	}
	return a
}

// generateCost maps a bucket to a cost range so the resulting leaderboard
// has contested podium spots rather than a flat distribution.
func generateCost(bucket int64) int64 {
	switch bucket {
	case 0:
		return randInt64(eliteCostMax) + 1
	case 1, 2:
		return strongCostMin + randInt64(strongCostMax-strongCostMin)
	case 3, 4, 5:
		return typicalCostMin + randInt64(typicalCostMax-typicalCostMin)
	default:
		return weakCostMin + randInt64(weakCostMax-weakCostMin)
	}
}
