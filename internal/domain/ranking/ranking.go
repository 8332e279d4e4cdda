// Package ranking turns a challenge's attempt set and a point table into an
// ordered, scored leaderboard.
//
// The computation is a pure function decomposed into five passes, each
// exported so it can be verified in isolation:
//
//	Filter -> BestPerProfile -> TieGroups -> Flatten -> Assign
//
// Ordering is fully deterministic: ascending cost, then earliest AchievedAt,
// then smallest attempt id. Identical input always yields identical output.
package ranking

import (
	"sort"

	"github.com/okian/podium/internal/domain/model"
)

// Group is a rank group: the best attempts sharing one cost value,
// ordered by ascending AchievedAt (earliest finisher first).
type Group struct {
	Cost    int64
	Members []model.Attempt
}

// Compute produces the scored leaderboard for one challenge's attempts.
// Returns ErrEmptyPointTable if the table carries no values; malformed
// attempts are filtered out, never rejected.
func Compute(attempts []model.Attempt, table model.PointTable) ([]model.Entry, error) {
	if len(table.Values) == 0 {
		return nil, ErrEmptyPointTable
	}
	ordered := Flatten(TieGroups(BestPerProfile(Filter(attempts))))
	return Assign(ordered, table), nil
}

// Filter drops attempts that cannot be ranked: failures and anonymous
// submissions.
func Filter(attempts []model.Attempt) []model.Attempt {
	kept := make([]model.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if !a.Success || a.Anonymous() {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// BestPerProfile reduces the attempt set to at most one attempt per profile:
// the one with minimal cost, ties broken by earliest AchievedAt, then by
// smallest attempt id so the reduction is deterministic.
func BestPerProfile(attempts []model.Attempt) []model.Attempt {
	best := make(map[string]model.Attempt, len(attempts))
	for _, a := range attempts {
		cur, ok := best[a.ProfileID]
		if !ok || better(a, cur) {
			best[a.ProfileID] = a
		}
	}
	out := make([]model.Attempt, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	return out
}

// better reports whether a outranks b for the same profile.
func better(a, b model.Attempt) bool {
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	if !a.AchievedAt.Equal(b.AchievedAt) {
		return a.AchievedAt.Before(b.AchievedAt)
	}
	return a.ID < b.ID
}

// TieGroups partitions best attempts by cost into rank groups, returned in
// ascending cost order. Members within a group are ordered by ascending
// AchievedAt, then attempt id.
func TieGroups(best []model.Attempt) []Group {
	byCost := make(map[int64][]model.Attempt)
	for _, a := range best {
		byCost[a.Cost] = append(byCost[a.Cost], a)
	}
	groups := make([]Group, 0, len(byCost))
	for cost, members := range byCost {
		sort.Slice(members, func(i, j int) bool {
			if !members[i].AchievedAt.Equal(members[j].AchievedAt) {
				return members[i].AchievedAt.Before(members[j].AchievedAt)
			}
			return members[i].ID < members[j].ID
		})
		groups = append(groups, Group{Cost: cost, Members: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Cost < groups[j].Cost })
	return groups
}

// Flatten concatenates rank groups into the total order, best to worst.
func Flatten(groups []Group) []model.Attempt {
	var total int
	for _, g := range groups {
		total += len(g.Members)
	}
	ordered := make([]model.Attempt, 0, total)
	for _, g := range groups {
		ordered = append(ordered, g.Members...)
	}
	return ordered
}

// Assign zips the total order with the point table positionally. Positions at
// or beyond the table's length are dropped from the output entirely rather
// than zero-scored; that matches the product's truncate-by-zip leaderboard
// behavior.
func Assign(ordered []model.Attempt, table model.PointTable) []model.Entry {
	n := len(ordered)
	if n > len(table.Values) {
		n = len(table.Values)
	}
	entries := make([]model.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, model.Entry{
			ProfileID: ordered[i].ProfileID,
			AttemptID: ordered[i].ID,
			Score:     table.Values[i],
		})
	}
	return entries
}
