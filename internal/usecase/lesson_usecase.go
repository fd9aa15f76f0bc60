package usecase

import (
	"context"
	"math/rand"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
	"github.com/eslsoft/vocsync/pkg/shuffle"
)

const (
	dailyNewCount    = 10
	dailyReviewCount = 5

	// frontierThreshold is the mastery fraction above which a level is
	// considered finished and the frontier moves on.
	frontierThreshold = 0.9
)

// LessonProfile is the scheduler's input: the user's mastery history plus
// the words missed in recent quiz sessions.
type LessonProfile struct {
	MasteredWordIDs []string
	IncorrectWords  []entity.Word
}

// LessonUsecase computes daily lessons from mastery history and persists
// their completion through the sync entry point.
type LessonUsecase interface {
	// GenerateLesson selects review and new words for today. Deterministic
	// given its inputs apart from the shuffled presentation order.
	GenerateLesson(profile LessonProfile) *entity.LessonPlan
	// CompleteLesson runs the summary phase: extend today's progress log,
	// promote the plan's new words to mastered, and bump the streak.
	CompleteLesson(ctx context.Context, userID string, plan *entity.LessonPlan) (*entity.LearningState, error)
}

// NewLessonUsecase wires the corpus and sync entry point with ambient
// randomness and the wall clock.
func NewLessonUsecase(words repository.WordRepository, sync SyncUsecase, logger *logrus.Logger) LessonUsecase {
	return &lessonUsecase{
		words:  words,
		sync:   sync,
		logger: logger,
		clock:  time.Now,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type lessonUsecase struct {
	words  repository.WordRepository
	sync   SyncUsecase
	logger *logrus.Logger
	clock  func() time.Time
	rand   *rand.Rand
}

func (u *lessonUsecase) GenerateLesson(profile LessonProfile) *entity.LessonPlan {
	mastered := make(map[string]bool, len(profile.MasteredWordIDs))
	for _, id := range profile.MasteredWordIDs {
		mastered[id] = true
	}

	reviews := u.selectReviews(profile, mastered)
	frontier := u.frontierLevel(mastered)
	newWords := u.selectNewWords(frontier, mastered)

	return &entity.LessonPlan{
		Date:        u.clock().Format(entity.DateLayout),
		NewWords:    newWords,
		ReviewWords: reviews,
		Total:       len(newWords) + len(reviews),
	}
}

// selectReviews takes distinct recently-missed words first, in input order,
// then fills the remaining slots from the shuffled mastered set.
func (u *lessonUsecase) selectReviews(profile LessonProfile, mastered map[string]bool) []entity.Word {
	reviews := make([]entity.Word, 0, dailyReviewCount)
	picked := make(map[string]bool, dailyReviewCount)

	for _, w := range profile.IncorrectWords {
		if len(reviews) >= dailyReviewCount {
			break
		}
		if picked[w.ID] {
			continue
		}
		picked[w.ID] = true
		reviews = append(reviews, w)
	}

	if len(reviews) < dailyReviewCount && len(mastered) > 0 {
		pool := shuffle.Clone(u.rand, lo.Keys(mastered))
		for _, id := range pool {
			if len(reviews) >= dailyReviewCount {
				break
			}
			if picked[id] {
				continue
			}
			w, ok := u.words.Find(id)
			if !ok {
				continue
			}
			picked[id] = true
			reviews = append(reviews, w)
		}
	}
	return reviews
}

// frontierLevel scans levels in order and picks the first one whose mastery
// fraction is still below the threshold. Falls back to the last level when
// everything is effectively mastered.
func (u *lessonUsecase) frontierLevel(mastered map[string]bool) int {
	for level := entity.MinLevel; level <= entity.MaxLevel; level++ {
		words := u.words.ByLevel(level)
		if len(words) == 0 {
			continue
		}
		known := lo.CountBy(words, func(w entity.Word) bool { return mastered[w.ID] })
		if float64(known)/float64(len(words)) < frontierThreshold {
			return level
		}
	}
	return entity.MaxLevel
}

// selectNewWords shuffles the frontier level's unmastered words and takes up
// to the daily count. No fallback to other levels: running out means the
// level is all but finished, and a short lesson is fine.
func (u *lessonUsecase) selectNewWords(level int, mastered map[string]bool) []entity.Word {
	pool := lo.Filter(u.words.ByLevel(level), func(w entity.Word, _ int) bool {
		return !mastered[w.ID]
	})
	shuffle.Slice(u.rand, pool)
	if len(pool) > dailyNewCount {
		pool = pool[:dailyNewCount]
	}
	return pool
}

func (u *lessonUsecase) CompleteLesson(ctx context.Context, userID string, plan *entity.LessonPlan) (*entity.LearningState, error) {
	state, err := u.sync.State(ctx)
	if err != nil {
		return nil, err
	}

	touched := lo.Union(entity.WordIDs(plan.NewWords), entity.WordIDs(plan.ReviewWords))
	progress := state.DailyProgress
	progress[plan.Date] = lo.Union(progress[plan.Date], touched)
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceDailyProgress, progress); err != nil {
		return nil, err
	}

	// Completing the lesson is what promotes new words to mastered;
	// quiz correctness inside the lesson does not gate it.
	mastered := lo.Union(state.MasteredWordIDs, entity.WordIDs(plan.NewWords))
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceMastered, mastered); err != nil {
		return nil, err
	}

	streak := state.Streak
	if streak.Touch(u.clock()) {
		if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceStreak, streak); err != nil {
			return nil, err
		}
	}

	return u.sync.State(ctx)
}
