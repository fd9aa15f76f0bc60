package entity

import "time"

// DateLayout is the calendar-day key format used by the daily progress log.
const DateLayout = "2006-01-02"

// Slice names a replicated field of LearningState. The values double as the
// field names of the remote per-user document, so a partial sync patches
// exactly one of them.
type Slice string

const (
	SliceStarred       Slice = "starredWords"
	SliceMastered      Slice = "masteredWords"
	SliceDailyProgress Slice = "dailyProgress"
	SliceCollections   Slice = "customBooks"
	SliceStreak        Slice = "streakData"
	SlicePlacement     Slice = "placementTestResult"
	SlicePushToken     Slice = "fcmToken"
)

// Slices lists every replicated slice in document order.
var Slices = []Slice{
	SliceStarred,
	SliceMastered,
	SliceDailyProgress,
	SliceCollections,
	SliceStreak,
	SlicePlacement,
	SlicePushToken,
}

// KnownSlice reports whether s names a replicated slice.
func KnownSlice(s Slice) bool {
	for _, known := range Slices {
		if s == known {
			return true
		}
	}
	return false
}

// PlacementLevel labels the outcome of the one-time placement test.
type PlacementLevel string

const (
	PlacementBeginner PlacementLevel = "beginner"
	PlacementAdvanced PlacementLevel = "advanced"
	PlacementMaster   PlacementLevel = "master"
)

// PlacementResult is the one-time outcome of the placement quiz.
type PlacementResult struct {
	Level   PlacementLevel `json:"level"`
	Score   int            `json:"score"`
	TakenAt time.Time      `json:"taken_at"`
}

// Streak is the consecutive-day activity counter.
type Streak struct {
	Count          int    `json:"count"`
	LastActiveDate string `json:"last_active_date"`
	MaxCount       int    `json:"max_count"`
}

// Touch records activity at now. A second touch on the same calendar day is a
// no-op. Returns true when the streak changed.
func (s *Streak) Touch(now time.Time) bool {
	today := now.Format(DateLayout)
	if s.LastActiveDate == today {
		return false
	}
	yesterday := now.AddDate(0, 0, -1).Format(DateLayout)
	if s.LastActiveDate == yesterday {
		s.Count++
	} else {
		s.Count = 1
	}
	s.LastActiveDate = today
	if s.Count > s.MaxCount {
		s.MaxCount = s.Count
	}
	return true
}

// LearningState is one user's mutable learning record. The local store holds
// the fast replica, the remote document store the durable one; either may be
// stale relative to the other until the next reconcile.
type LearningState struct {
	StarredWordIDs  []string            `json:"starred_word_ids"`
	MasteredWordIDs []string            `json:"mastered_word_ids"`
	DailyProgress   map[string][]string `json:"daily_progress"`
	Collections     []Collection        `json:"collections"`
	Streak          Streak              `json:"streak"`
	Placement       *PlacementResult    `json:"placement,omitempty"`
	PushToken       string              `json:"push_token,omitempty"`
}

// NewLearningState returns an empty state with all containers allocated.
func NewLearningState() *LearningState {
	return &LearningState{
		StarredWordIDs:  []string{},
		MasteredWordIDs: []string{},
		DailyProgress:   map[string][]string{},
		Collections:     []Collection{},
	}
}

// Normalize allocates any nil containers, typically after decoding a partial
// or corrupt persisted value.
func (s *LearningState) Normalize() {
	if s.StarredWordIDs == nil {
		s.StarredWordIDs = []string{}
	}
	if s.MasteredWordIDs == nil {
		s.MasteredWordIDs = []string{}
	}
	if s.DailyProgress == nil {
		s.DailyProgress = map[string][]string{}
	}
	if s.Collections == nil {
		s.Collections = []Collection{}
	}
}

// EnsureFavorites seeds the reserved favorites collection when absent.
// Returns true when the collection was added.
func (s *LearningState) EnsureFavorites() bool {
	for _, c := range s.Collections {
		if c.ID == FavoritesCollectionID {
			return false
		}
	}
	s.Collections = append(s.Collections, NewFavoritesCollection())
	return true
}

// Collection returns a pointer into the state's collection list, or nil.
func (s *LearningState) Collection(id string) *Collection {
	for i := range s.Collections {
		if s.Collections[i].ID == id {
			return &s.Collections[i]
		}
	}
	return nil
}

// Clone deep-copies the state so asynchronous publishers never observe a
// half-applied mutation.
func (s *LearningState) Clone() *LearningState {
	out := &LearningState{
		StarredWordIDs:  append([]string{}, s.StarredWordIDs...),
		MasteredWordIDs: append([]string{}, s.MasteredWordIDs...),
		DailyProgress:   make(map[string][]string, len(s.DailyProgress)),
		Collections:     make([]Collection, 0, len(s.Collections)),
		Streak:          s.Streak,
		PushToken:       s.PushToken,
	}
	for date, ids := range s.DailyProgress {
		out.DailyProgress[date] = append([]string{}, ids...)
	}
	for _, c := range s.Collections {
		out.Collections = append(out.Collections, *c.Clone())
	}
	if s.Placement != nil {
		placement := *s.Placement
		out.Placement = &placement
	}
	return out
}
