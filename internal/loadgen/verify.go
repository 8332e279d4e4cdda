package loadgen

import (
	"context"
	"fmt"

	"github.com/okian/podium/pkg/logger"
)

// verifyLeaderboards checks each returned snapshot for internal consistency:
// contiguous 1-based ranks, non-increasing scores, and one entry per profile.
func verifyLeaderboards(ctx context.Context, boards map[string][]Entry) error {
	checked := 0
	for challengeID, entries := range boards {
		if err := verifyBoard(entries); err != nil {
			return fmt.Errorf("challenge %s: %w", challengeID, err)
		}
		checked++
	}

	logger.Get().Info(ctx, "leaderboard verification completed", logger.Int("checked", checked))
	return nil
}

func verifyBoard(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
		if i > 0 && e.Score > entries[i-1].Score {
			return fmt.Errorf("entry %d score %d exceeds entry %d score %d",
				i, e.Score, i-1, entries[i-1].Score)
		}
		if e.ProfileID == "" {
			return fmt.Errorf("entry %d has an empty profile id", i)
		}
		if _, dup := seen[e.ProfileID]; dup {
			return fmt.Errorf("profile %s appears more than once", e.ProfileID)
		}
		seen[e.ProfileID] = struct{}{}
	}
	return nil
}
