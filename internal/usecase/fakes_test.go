package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeStateStore struct {
	mu    sync.Mutex
	state *entity.LearningState
	fail  error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{state: entity.NewLearningState()}
}

func (s *fakeStateStore) LoadState() (*entity.LearningState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	return s.state.Clone(), nil
}

func (s *fakeStateStore) SaveState(state *entity.LearningState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.state = state.Clone()
	return nil
}

func (s *fakeStateStore) SaveSlice(slice entity.Slice, state *entity.LearningState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	snapshot := state.Clone()
	switch slice {
	case entity.SliceStarred:
		s.state.StarredWordIDs = snapshot.StarredWordIDs
	case entity.SliceMastered:
		s.state.MasteredWordIDs = snapshot.MasteredWordIDs
	case entity.SliceDailyProgress:
		s.state.DailyProgress = snapshot.DailyProgress
	case entity.SliceCollections:
		s.state.Collections = snapshot.Collections
	case entity.SliceStreak:
		s.state.Streak = snapshot.Streak
	case entity.SlicePlacement:
		s.state.Placement = snapshot.Placement
	case entity.SlicePushToken:
		s.state.PushToken = snapshot.PushToken
	default:
		return fmt.Errorf("fake store: unknown slice %q", slice)
	}
	return nil
}

type fakeUserDocRepo struct {
	mu        sync.Mutex
	docs      map[string]*entity.LearningState
	fetchErr  error
	writeErr  error
	patches   []entity.Slice
	published int
}

func newFakeUserDocRepo() *fakeUserDocRepo {
	return &fakeUserDocRepo{docs: make(map[string]*entity.LearningState)}
}

func (r *fakeUserDocRepo) Fetch(ctx context.Context, userID string) (*entity.LearningState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	doc, ok := r.docs[userID]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

func (r *fakeUserDocRepo) Publish(ctx context.Context, userID string, state *entity.LearningState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	r.docs[userID] = state.Clone()
	r.published++
	return nil
}

func (r *fakeUserDocRepo) PatchSlice(ctx context.Context, userID string, slice entity.Slice, state *entity.LearningState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	doc, ok := r.docs[userID]
	if !ok {
		doc = entity.NewLearningState()
	}
	snapshot := state.Clone()
	switch slice {
	case entity.SliceStarred:
		doc.StarredWordIDs = snapshot.StarredWordIDs
	case entity.SliceMastered:
		doc.MasteredWordIDs = snapshot.MasteredWordIDs
	case entity.SliceDailyProgress:
		doc.DailyProgress = snapshot.DailyProgress
	case entity.SliceCollections:
		doc.Collections = snapshot.Collections
	case entity.SliceStreak:
		doc.Streak = snapshot.Streak
	case entity.SlicePlacement:
		doc.Placement = snapshot.Placement
	case entity.SlicePushToken:
		doc.PushToken = snapshot.PushToken
	}
	r.docs[userID] = doc
	r.patches = append(r.patches, slice)
	return nil
}

type fakeSharedRepo struct {
	mu      sync.Mutex
	records map[string]*entity.SharedCollection
	fail    error
	updates map[string][][]string
}

func newFakeSharedRepo() *fakeSharedRepo {
	return &fakeSharedRepo{
		records: make(map[string]*entity.SharedCollection),
		updates: make(map[string][][]string),
	}
}

func (r *fakeSharedRepo) FindByCode(ctx context.Context, code string) (*entity.SharedCollection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	record, ok := r.records[code]
	if !ok {
		return nil, nil
	}
	clone := *record
	clone.WordIDs = append([]string{}, record.WordIDs...)
	return &clone, nil
}

func (r *fakeSharedRepo) Insert(ctx context.Context, record *entity.SharedCollection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	clone := *record
	clone.WordIDs = append([]string{}, record.WordIDs...)
	r.records[record.Code] = &clone
	return nil
}

func (r *fakeSharedRepo) UpdateWordIDs(ctx context.Context, code string, wordIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if record, ok := r.records[code]; ok {
		record.WordIDs = append([]string{}, wordIDs...)
	}
	r.updates[code] = append(r.updates[code], append([]string{}, wordIDs...))
	return nil
}

func (r *fakeSharedRepo) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	delete(r.records, code)
	return nil
}

type fakeWordRepo struct {
	words []entity.Word
}

func (r *fakeWordRepo) All() []entity.Word {
	return append([]entity.Word{}, r.words...)
}

func (r *fakeWordRepo) ByLevel(level int) []entity.Word {
	out := []entity.Word{}
	for _, w := range r.words {
		if w.Level == level {
			out = append(out, w)
		}
	}
	return out
}

func (r *fakeWordRepo) ByIDs(ids []string) []entity.Word {
	out := []entity.Word{}
	for _, id := range ids {
		if w, ok := r.Find(id); ok {
			out = append(out, w)
		}
	}
	return out
}

func (r *fakeWordRepo) Find(id string) (entity.Word, bool) {
	for _, w := range r.words {
		if w.ID == id {
			return w, true
		}
	}
	return entity.Word{}, false
}

func (r *fakeWordRepo) Search(expr string) ([]entity.Word, error) {
	return r.All(), nil
}

func (r *fakeWordRepo) BackfillDefinition(ctx context.Context, wordText, definition string) error {
	for i := range r.words {
		if r.words[i].Text == wordText && !r.words[i].HasDefinition() {
			r.words[i].Definition = definition
		}
	}
	return nil
}

// newTestSync builds a sync usecase whose background pushes run inline so
// assertions observe them deterministically.
func newTestSync(store *fakeStateStore, docs *fakeUserDocRepo) *syncUsecase {
	uc := NewSyncUsecase(store, docs, testLogger()).(*syncUsecase)
	uc.runAsync = func(task func()) { task() }
	return uc
}
