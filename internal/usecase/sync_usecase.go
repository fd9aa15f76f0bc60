package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

// publishTimeout bounds background remote writes so an abandoned push never
// lingers past the session that issued it.
const publishTimeout = 15 * time.Second

// SyncUsecase is the merge engine: it reconciles the local and remote
// replicas of one user's learning state and is the single mutation entry
// point every state change flows through.
type SyncUsecase interface {
	// Reconcile pulls the remote document, merges it with local state,
	// writes the converged result locally and republishes it remotely.
	// A guest session (empty userID) only normalizes local state.
	// Remote failures degrade to "local is authoritative"; they never
	// surface to the caller as hard errors.
	Reconcile(ctx context.Context, userID string) (*entity.LearningState, error)

	// ApplyAndSync updates one slice locally (synchronous, so the caller
	// can read it back immediately) and patches the same slice on the
	// remote document in the background. Guests skip the remote patch.
	// An unknown slice name or a value of the wrong type is a caller
	// contract violation, rejected synchronously.
	ApplyAndSync(ctx context.Context, userID string, slice entity.Slice, value any) (*entity.LearningState, error)

	// State returns the current local replica.
	State(ctx context.Context) (*entity.LearningState, error)

	// UpdatePushToken records a rotated notification token.
	UpdatePushToken(ctx context.Context, userID, token string) error
}

// NewSyncUsecase wires the local store and remote gateway with default
// behaviour. Remote writes run on a goroutine by default; tests inject an
// inline runner the same way they inject the clock.
func NewSyncUsecase(store repository.StateStore, docs repository.UserDocumentRepository, logger *logrus.Logger) SyncUsecase {
	return &syncUsecase{
		store:    store,
		docs:     docs,
		logger:   logger,
		runAsync: func(task func()) { go task() },
	}
}

type syncUsecase struct {
	store    repository.StateStore
	docs     repository.UserDocumentRepository
	logger   *logrus.Logger
	runAsync func(func())
}

func (u *syncUsecase) Reconcile(ctx context.Context, userID string) (*entity.LearningState, error) {
	local, err := u.store.LoadState()
	if err != nil {
		return nil, fmt.Errorf("load local state: %w", err)
	}
	if local.EnsureFavorites() {
		if err := u.store.SaveSlice(entity.SliceCollections, local); err != nil {
			return nil, fmt.Errorf("seed favorites collection: %w", err)
		}
	}
	if userID == "" {
		return local, nil
	}

	remote, err := u.docs.Fetch(ctx, userID)
	if err != nil {
		u.logger.WithError(err).WithField("user_id", userID).
			Warn("remote state fetch failed, treating local state as authoritative")
		u.publish(userID, local)
		return local, nil
	}

	merged := local
	if remote != nil {
		remote.Normalize()
		merged = mergeStates(local, remote)
	}

	if err := u.store.SaveState(merged); err != nil {
		return nil, fmt.Errorf("save merged state: %w", err)
	}
	u.publish(userID, merged)
	return merged, nil
}

func (u *syncUsecase) ApplyAndSync(ctx context.Context, userID string, slice entity.Slice, value any) (*entity.LearningState, error) {
	state, err := u.store.LoadState()
	if err != nil {
		return nil, fmt.Errorf("load local state: %w", err)
	}
	if err := applySliceValue(state, slice, value); err != nil {
		return nil, err
	}
	if err := u.store.SaveSlice(slice, state); err != nil {
		return nil, fmt.Errorf("save slice %s: %w", slice, err)
	}

	if userID != "" {
		snapshot := state.Clone()
		u.runAsync(func() {
			patchCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := u.docs.PatchSlice(patchCtx, userID, slice, snapshot); err != nil {
				u.logger.WithError(err).
					WithFields(logrus.Fields{"user_id": userID, "slice": slice}).
					Warn("remote slice patch failed, local state remains authoritative")
			}
		})
	}
	return state, nil
}

func (u *syncUsecase) State(ctx context.Context) (*entity.LearningState, error) {
	state, err := u.store.LoadState()
	if err != nil {
		return nil, fmt.Errorf("load local state: %w", err)
	}
	state.EnsureFavorites()
	return state, nil
}

func (u *syncUsecase) UpdatePushToken(ctx context.Context, userID, token string) error {
	_, err := u.ApplyAndSync(ctx, userID, entity.SlicePushToken, token)
	return err
}

// publish pushes the full converged document in the background. Failures are
// logged, never retried; the next ApplyAndSync or Reconcile re-pushes.
func (u *syncUsecase) publish(userID string, state *entity.LearningState) {
	snapshot := state.Clone()
	u.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := u.docs.Publish(ctx, userID, snapshot); err != nil {
			u.logger.WithError(err).WithField("user_id", userID).
				Warn("remote state publish failed")
		}
	})
}

// applySliceValue assigns value to the named slice, enforcing the slice/type
// contract.
func applySliceValue(state *entity.LearningState, slice entity.Slice, value any) error {
	if !entity.KnownSlice(slice) {
		return fmt.Errorf("%w: %q", entity.ErrUnknownSlice, slice)
	}
	switch slice {
	case entity.SliceStarred:
		ids, ok := value.([]string)
		if !ok {
			return invalidSliceValue(slice, value)
		}
		state.StarredWordIDs = append([]string{}, ids...)
	case entity.SliceMastered:
		ids, ok := value.([]string)
		if !ok {
			return invalidSliceValue(slice, value)
		}
		state.MasteredWordIDs = append([]string{}, ids...)
	case entity.SliceDailyProgress:
		progress, ok := value.(map[string][]string)
		if !ok {
			return invalidSliceValue(slice, value)
		}
		copied := make(map[string][]string, len(progress))
		for date, ids := range progress {
			copied[date] = append([]string{}, ids...)
		}
		state.DailyProgress = copied
	case entity.SliceCollections:
		collections, ok := value.([]entity.Collection)
		if !ok {
			return invalidSliceValue(slice, value)
		}
		copied := make([]entity.Collection, 0, len(collections))
		for _, c := range collections {
			copied = append(copied, *c.Clone())
		}
		state.Collections = copied
	case entity.SliceStreak:
		streak, ok := value.(entity.Streak)
		if !ok {
			return invalidSliceValue(slice, value)
		}
		state.Streak = streak
	case entity.SlicePlacement:
		switch v := value.(type) {
		case entity.PlacementResult:
			state.Placement = &v
		case *entity.PlacementResult:
			state.Placement = clonePlacement(v)
		default:
			return invalidSliceValue(slice, value)
		}
	case entity.SlicePushToken:
		token, ok := value.(string)
		if !ok {
			return invalidSliceValue(slice, value)
		}
		state.PushToken = token
	}
	return nil
}

func invalidSliceValue(slice entity.Slice, value any) error {
	return fmt.Errorf("%w: slice %s got %T", entity.ErrInvalidSliceValue, slice, value)
}
