package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

const stateKeyPrefix = "state/"

// NewStateStore builds the badger-backed local replica. Each replicated
// slice lives under its own key so partial saves stay cheap.
func NewStateStore(db *badger.DB, logger *logrus.Logger) repository.StateStore {
	return &stateStore{db: db, logger: logger}
}

type stateStore struct {
	db     *badger.DB
	logger *logrus.Logger
}

func sliceKey(slice entity.Slice) []byte {
	return []byte(stateKeyPrefix + string(slice))
}

func (s *stateStore) LoadState() (*entity.LearningState, error) {
	state := entity.NewLearningState()
	err := s.db.View(func(txn *badger.Txn) error {
		for _, slice := range entity.Slices {
			item, err := txn.Get(sliceKey(slice))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("read slice %s: %w", slice, err)
			}
			if err := item.Value(func(val []byte) error {
				s.decodeSlice(slice, val, state)
				return nil
			}); err != nil {
				return fmt.Errorf("read slice %s: %w", slice, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.Normalize()
	return state, nil
}

func (s *stateStore) SaveState(state *entity.LearningState) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, slice := range entity.Slices {
			if err := setSlice(txn, slice, state); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *stateStore) SaveSlice(slice entity.Slice, state *entity.LearningState) error {
	if !entity.KnownSlice(slice) {
		return fmt.Errorf("%w: %q", entity.ErrUnknownSlice, slice)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setSlice(txn, slice, state)
	})
}

func setSlice(txn *badger.Txn, slice entity.Slice, state *entity.LearningState) error {
	value, err := json.Marshal(sliceValue(slice, state))
	if err != nil {
		return fmt.Errorf("encode slice %s: %w", slice, err)
	}
	if err := txn.Set(sliceKey(slice), value); err != nil {
		return fmt.Errorf("write slice %s: %w", slice, err)
	}
	return nil
}

func sliceValue(slice entity.Slice, state *entity.LearningState) any {
	switch slice {
	case entity.SliceStarred:
		return state.StarredWordIDs
	case entity.SliceMastered:
		return state.MasteredWordIDs
	case entity.SliceDailyProgress:
		return state.DailyProgress
	case entity.SliceCollections:
		return state.Collections
	case entity.SliceStreak:
		return state.Streak
	case entity.SlicePlacement:
		return state.Placement
	case entity.SlicePushToken:
		return state.PushToken
	}
	return nil
}

// decodeSlice tolerates corrupt values: a slice that fails to decode keeps
// its zero value so one bad key never blocks startup.
func (s *stateStore) decodeSlice(slice entity.Slice, val []byte, state *entity.LearningState) {
	var err error
	switch slice {
	case entity.SliceStarred:
		err = json.Unmarshal(val, &state.StarredWordIDs)
	case entity.SliceMastered:
		err = json.Unmarshal(val, &state.MasteredWordIDs)
	case entity.SliceDailyProgress:
		err = json.Unmarshal(val, &state.DailyProgress)
	case entity.SliceCollections:
		err = json.Unmarshal(val, &state.Collections)
	case entity.SliceStreak:
		err = json.Unmarshal(val, &state.Streak)
	case entity.SlicePlacement:
		err = json.Unmarshal(val, &state.Placement)
	case entity.SlicePushToken:
		err = json.Unmarshal(val, &state.PushToken)
	}
	if err != nil {
		s.logger.WithError(err).WithField("slice", slice).
			Warn("corrupt persisted slice, falling back to its zero value")
	}
}
