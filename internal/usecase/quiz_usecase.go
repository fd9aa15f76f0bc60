package usecase

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
	"github.com/eslsoft/vocsync/pkg/shuffle"
)

const (
	standardQuestionCount  = 10
	placementQuestionCount = 5

	// retryOffset is how far ahead a missed question is reinserted so it
	// resurfaces before the session ends.
	retryOffset = 3

	// minQuizPool is the smallest pool that still yields four distinct
	// answer options.
	minQuizPool = 4
)

// QuizUsecase generates multiple-choice question sets, scores answers and
// re-queues missed items within a session.
type QuizUsecase interface {
	// StartQuiz samples question targets from the pool without
	// replacement and builds shuffled options for each.
	StartQuiz(mode entity.QuizMode, pool []entity.Word) (*entity.QuizSession, error)
	// PoolForLevel builds a quiz pool from one corpus level.
	PoolForLevel(level int) ([]entity.Word, error)
	// PoolForCollection builds a quiz pool from a collection's words.
	PoolForCollection(ctx context.Context, collectionID string) ([]entity.Word, error)
	// PoolForStarred builds a quiz pool from the starred set.
	PoolForStarred(ctx context.Context) ([]entity.Word, error)
	// SubmitAnswer scores the current question, advances the session and
	// persists a correct answer's mastery through the sync entry point.
	SubmitAnswer(ctx context.Context, userID string, session *entity.QuizSession, answer string) (*entity.AnswerResult, error)
	// FinishPlacement maps a finished placement session's score to a
	// level label and persists it as the one-time placement result.
	FinishPlacement(ctx context.Context, userID string, session *entity.QuizSession) (*entity.PlacementResult, error)
}

// NewQuizUsecase wires the corpus and sync entry point with ambient
// randomness.
func NewQuizUsecase(words repository.WordRepository, sync SyncUsecase, logger *logrus.Logger) QuizUsecase {
	return &quizUsecase{
		words:  words,
		sync:   sync,
		logger: logger,
		clock:  time.Now,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type quizUsecase struct {
	words  repository.WordRepository
	sync   SyncUsecase
	logger *logrus.Logger
	clock  func() time.Time
	rand   *rand.Rand
}

func (u *quizUsecase) StartQuiz(mode entity.QuizMode, pool []entity.Word) (*entity.QuizSession, error) {
	if len(pool) == 0 {
		return nil, entity.ErrEmptyQuizPool
	}

	count := standardQuestionCount
	if mode == entity.QuizModePlacement {
		count = placementQuestionCount
	}

	remaining := append([]entity.Word{}, pool...)
	targets := make([]entity.Word, 0, count)
	for len(targets) < count && len(remaining) > 0 {
		i := u.rand.Intn(len(remaining))
		targets = append(targets, remaining[i])
		remaining[i] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}

	questions := make([]entity.Question, 0, len(targets))
	for _, target := range targets {
		questions = append(questions, u.buildQuestion(target))
	}

	return &entity.QuizSession{
		Mode:           mode,
		Questions:      questions,
		IncorrectWords: []entity.Word{},
	}, nil
}

// buildQuestion pairs the target's definition with three distractors drawn
// uniformly from the rest of the corpus. Distractors may repeat; only the
// target itself is excluded.
func (u *quizUsecase) buildQuestion(target entity.Word) entity.Question {
	others := make([]entity.Word, 0)
	for _, w := range u.words.All() {
		if w.ID != target.ID {
			others = append(others, w)
		}
	}

	options := make([]string, 0, entity.OptionsPerQuestion)
	options = append(options, target.Definition)
	for len(options) < entity.OptionsPerQuestion && len(others) > 0 {
		options = append(options, others[u.rand.Intn(len(others))].Definition)
	}
	shuffle.Slice(u.rand, options)

	return entity.Question{
		Target:  target,
		Options: options,
		Correct: target.Definition,
	}
}

func (u *quizUsecase) PoolForLevel(level int) ([]entity.Word, error) {
	pool := u.words.ByLevel(level)
	if len(pool) < minQuizPool {
		return nil, entity.ErrQuizPoolTooSmall
	}
	return pool, nil
}

func (u *quizUsecase) PoolForCollection(ctx context.Context, collectionID string) ([]entity.Word, error) {
	state, err := u.sync.State(ctx)
	if err != nil {
		return nil, err
	}
	collection := state.Collection(collectionID)
	if collection == nil {
		return nil, entity.ErrCollectionNotFound
	}
	pool := u.words.ByIDs(collection.WordIDs)
	if len(pool) < minQuizPool {
		return nil, entity.ErrQuizPoolTooSmall
	}
	return pool, nil
}

func (u *quizUsecase) PoolForStarred(ctx context.Context) ([]entity.Word, error) {
	state, err := u.sync.State(ctx)
	if err != nil {
		return nil, err
	}
	pool := u.words.ByIDs(state.StarredWordIDs)
	if len(pool) == 0 {
		return nil, entity.ErrEmptyQuizPool
	}
	return pool, nil
}

func (u *quizUsecase) SubmitAnswer(ctx context.Context, userID string, session *entity.QuizSession, answer string) (*entity.AnswerResult, error) {
	question, ok := session.Current()
	if !ok {
		return nil, entity.ErrEmptyQuizPool
	}

	result := &entity.AnswerResult{CorrectAnswer: question.Correct}
	if answer != entity.DontKnowAnswer && answer == question.Correct {
		result.Correct = true
		session.Score++
		if session.Mode != entity.QuizModePlacement {
			result.MasteredWordID = question.Target.ID
			if err := u.recordMastered(ctx, userID, question.Target.ID); err != nil {
				return nil, err
			}
		}
		if session.Mode == entity.QuizModeStarred {
			result.PromptUnstar = true
		}
	} else {
		session.RecordIncorrect(question.Target)
		if session.Mode != entity.QuizModePlacement {
			insertAt := session.Index + retryOffset
			if insertAt > len(session.Questions) {
				insertAt = len(session.Questions)
			}
			session.Questions = append(session.Questions, entity.Question{})
			copy(session.Questions[insertAt+1:], session.Questions[insertAt:])
			session.Questions[insertAt] = question
			result.Requeued = true
		}
	}

	session.Index++
	return result, nil
}

func (u *quizUsecase) FinishPlacement(ctx context.Context, userID string, session *entity.QuizSession) (*entity.PlacementResult, error) {
	level := entity.PlacementBeginner
	switch {
	case session.Score >= placementQuestionCount:
		level = entity.PlacementMaster
	case session.Score >= 3:
		level = entity.PlacementAdvanced
	}

	result := entity.PlacementResult{
		Level:   level,
		Score:   session.Score,
		TakenAt: u.clock(),
	}
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SlicePlacement, result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (u *quizUsecase) recordMastered(ctx context.Context, userID, wordID string) error {
	state, err := u.sync.State(ctx)
	if err != nil {
		return err
	}
	for _, id := range state.MasteredWordIDs {
		if id == wordID {
			return nil
		}
	}
	mastered := append(append([]string{}, state.MasteredWordIDs...), wordID)
	_, err = u.sync.ApplyAndSync(ctx, userID, entity.SliceMastered, mastered)
	return err
}
