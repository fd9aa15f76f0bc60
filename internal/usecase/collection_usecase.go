package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
)

// CollectionUsecase manages custom word collections and the starred /
// mastered sets. Every mutation flows through the sync entry point; edits to
// co-edited collections additionally push to the shared record.
type CollectionUsecase interface {
	Create(ctx context.Context, userID, name, creatorName string) (*entity.Collection, error)
	// Delete removes a collection. The reserved favorites collection is
	// protected; deleting a co-edited collection revokes its code first.
	Delete(ctx context.Context, userID, collectionID string) error
	// ToggleWord adds the word to the collection or removes it when
	// already present. Returns whether the word is now in the collection.
	ToggleWord(ctx context.Context, userID, collectionID, wordID string) (bool, error)
	// ToggleStar flips a word's starred flag. Returns the new value.
	ToggleStar(ctx context.Context, userID, wordID string) (bool, error)
	// MarkMastered adds words to the mastered set.
	MarkMastered(ctx context.Context, userID string, wordIDs ...string) error
}

// NewCollectionUsecase wires collection management over the sync entry point.
func NewCollectionUsecase(sync SyncUsecase, sharing SharingUsecase, logger *logrus.Logger) CollectionUsecase {
	return &collectionUsecase{sync: sync, sharing: sharing, logger: logger}
}

type collectionUsecase struct {
	sync    SyncUsecase
	sharing SharingUsecase
	logger  *logrus.Logger
}

func (u *collectionUsecase) Create(ctx context.Context, userID, name, creatorName string) (*entity.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, entity.ErrInvalidCollection
	}

	state, err := u.sync.State(ctx)
	if err != nil {
		return nil, err
	}
	collection := entity.Collection{
		ID:          uuid.NewString(),
		Name:        name,
		WordIDs:     []string{},
		CreatorID:   userID,
		CreatorName: creatorName,
	}
	state.Collections = append(state.Collections, collection)
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceCollections, state.Collections); err != nil {
		return nil, err
	}
	return &collection, nil
}

func (u *collectionUsecase) Delete(ctx context.Context, userID, collectionID string) error {
	if collectionID == entity.FavoritesCollectionID {
		return entity.ErrFavoritesProtected
	}

	state, err := u.sync.State(ctx)
	if err != nil {
		return err
	}
	collection := state.Collection(collectionID)
	if collection == nil {
		return entity.ErrCollectionNotFound
	}

	if collection.CoeditCode != "" {
		// Revocation must reach the shared namespace or collaborators
		// keep pushing to a record nobody owns.
		if err := u.sharing.DeleteSharedBook(ctx, userID, collection.CoeditCode); err != nil {
			return err
		}
		state, err = u.sync.State(ctx)
		if err != nil {
			return err
		}
	}

	remaining := lo.Filter(state.Collections, func(c entity.Collection, _ int) bool {
		return c.ID != collectionID
	})
	_, err = u.sync.ApplyAndSync(ctx, userID, entity.SliceCollections, remaining)
	return err
}

func (u *collectionUsecase) ToggleWord(ctx context.Context, userID, collectionID, wordID string) (bool, error) {
	state, err := u.sync.State(ctx)
	if err != nil {
		return false, err
	}
	collection := state.Collection(collectionID)
	if collection == nil {
		return false, entity.ErrCollectionNotFound
	}

	added := collection.AddWord(wordID)
	if !added {
		collection.RemoveWord(wordID)
	}
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceCollections, state.Collections); err != nil {
		return false, err
	}

	if collection.CoeditCode != "" {
		u.sharing.UpdateCoeditedBook(ctx, collection.CoeditCode, collection.WordIDs)
	}
	return added, nil
}

func (u *collectionUsecase) ToggleStar(ctx context.Context, userID, wordID string) (bool, error) {
	state, err := u.sync.State(ctx)
	if err != nil {
		return false, err
	}

	starred := append([]string{}, state.StarredWordIDs...)
	now := !lo.Contains(starred, wordID)
	if now {
		starred = append(starred, wordID)
	} else {
		starred = lo.Without(starred, wordID)
	}
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceStarred, starred); err != nil {
		return false, err
	}
	return now, nil
}

func (u *collectionUsecase) MarkMastered(ctx context.Context, userID string, wordIDs ...string) error {
	if len(wordIDs) == 0 {
		return nil
	}
	state, err := u.sync.State(ctx)
	if err != nil {
		return err
	}
	mastered := lo.Union(state.MasteredWordIDs, wordIDs)
	_, err = u.sync.ApplyAndSync(ctx, userID, entity.SliceMastered, mastered)
	return err
}
