package usecase

import (
	"github.com/samber/lo"

	"github.com/eslsoft/vocsync/internal/entity"
)

// mergeStrategy names how a replicated slice reconciles across the local and
// remote replicas. Strategies are commutative or deterministic under repeat
// application so two devices converging independently reach the same result.
type mergeStrategy int

const (
	// strategyUnionSet keeps every element either side recorded.
	strategyUnionSet mergeStrategy = iota
	// strategyUnionMap unions keys, and unions the id-sets of shared keys.
	strategyUnionMap
	// strategyIDKeyedOverwrite merges by id; remote wins on collision
	// because collaborative edits land server-side first, but local-only
	// entries survive.
	strategyIDKeyedOverwrite
	// strategyMaxByCount keeps the side with the higher counter.
	strategyMaxByCount
	// strategyLocalWinsIfAbsent keeps local only when remote has nothing.
	strategyLocalWinsIfAbsent
	// strategyRemoteWins prefers remote whenever it is present.
	strategyRemoteWins
)

// mergeTable declares the strategy for every replicated slice in one place
// so reconciliation stays uniform and testable per field.
var mergeTable = []struct {
	slice    entity.Slice
	strategy mergeStrategy
}{
	{entity.SliceStarred, strategyUnionSet},
	{entity.SliceMastered, strategyUnionSet},
	{entity.SliceDailyProgress, strategyUnionMap},
	{entity.SliceCollections, strategyIDKeyedOverwrite},
	{entity.SliceStreak, strategyMaxByCount},
	{entity.SlicePushToken, strategyLocalWinsIfAbsent},
	{entity.SlicePlacement, strategyRemoteWins},
}

// mergeStates reconciles two replicas of the same user's state. Neither input
// is mutated. Applying the merge twice with an unchanged remote yields the
// same result, which is what makes Reconcile idempotent.
func mergeStates(local, remote *entity.LearningState) *entity.LearningState {
	out := entity.NewLearningState()
	for _, row := range mergeTable {
		mergeSlice(out, local, remote, row.slice, row.strategy)
	}
	return out
}

func mergeSlice(out, local, remote *entity.LearningState, slice entity.Slice, strategy mergeStrategy) {
	switch strategy {
	case strategyUnionSet:
		switch slice {
		case entity.SliceStarred:
			out.StarredWordIDs = unionIDs(local.StarredWordIDs, remote.StarredWordIDs)
		case entity.SliceMastered:
			out.MasteredWordIDs = unionIDs(local.MasteredWordIDs, remote.MasteredWordIDs)
		}
	case strategyUnionMap:
		out.DailyProgress = mergeDailyProgress(local.DailyProgress, remote.DailyProgress)
	case strategyIDKeyedOverwrite:
		out.Collections = mergeCollections(local.Collections, remote.Collections)
	case strategyMaxByCount:
		out.Streak = mergeStreak(local.Streak, remote.Streak)
	case strategyLocalWinsIfAbsent:
		out.PushToken = remote.PushToken
		if out.PushToken == "" {
			out.PushToken = local.PushToken
		}
	case strategyRemoteWins:
		out.Placement = clonePlacement(remote.Placement)
		if out.Placement == nil {
			out.Placement = clonePlacement(local.Placement)
		}
	}
}

func unionIDs(local, remote []string) []string {
	return lo.Union(local, remote)
}

// mergeDailyProgress never drops a day's record, only extends it.
func mergeDailyProgress(local, remote map[string][]string) map[string][]string {
	out := make(map[string][]string, len(local)+len(remote))
	for date, ids := range local {
		out[date] = append([]string{}, ids...)
	}
	for date, ids := range remote {
		out[date] = lo.Union(out[date], ids)
	}
	return out
}

// mergeCollections applies local entries first, then remote entries
// overwrite on id collision. Local order is preserved; collections created
// offline moments before reconnect survive the merge.
func mergeCollections(local, remote []entity.Collection) []entity.Collection {
	out := make([]entity.Collection, 0, len(local)+len(remote))
	index := make(map[string]int, len(local))
	for _, c := range local {
		index[c.ID] = len(out)
		out = append(out, *c.Clone())
	}
	for _, c := range remote {
		if i, ok := index[c.ID]; ok {
			out[i] = *c.Clone()
			continue
		}
		index[c.ID] = len(out)
		out = append(out, *c.Clone())
	}
	return out
}

// mergeStreak keeps the replica with the higher count. A stale lastActiveDate
// on the winning side can inflate the streak; known heuristic, kept for
// compatibility with converged values already in the wild.
func mergeStreak(local, remote entity.Streak) entity.Streak {
	winner := local
	if remote.Count > local.Count {
		winner = remote
	}
	if local.MaxCount > winner.MaxCount {
		winner.MaxCount = local.MaxCount
	}
	if remote.MaxCount > winner.MaxCount {
		winner.MaxCount = remote.MaxCount
	}
	return winner
}

func clonePlacement(p *entity.PlacementResult) *entity.PlacementResult {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
