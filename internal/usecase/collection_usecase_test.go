package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/eslsoft/vocsync/internal/entity"
)

func newTestCollections(store *fakeStateStore, shared *fakeSharedRepo) CollectionUsecase {
	sync := newTestSync(store, newFakeUserDocRepo())
	sharing := NewSharingUsecase(sync, shared, testLogger())
	return NewCollectionUsecase(sync, sharing, testLogger())
}

func TestCreateCollectionAssignsFreshID(t *testing.T) {
	store := newFakeStateStore()
	uc := newTestCollections(store, newFakeSharedRepo())

	created, err := uc.Create(context.Background(), "u1", "  travel  ", "Amy")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Name != "travel" {
		t.Fatalf("created = %+v", created)
	}
	if store.state.Collection(created.ID) == nil {
		t.Fatal("collection not persisted")
	}
}

func TestCreateCollectionRejectsBlankName(t *testing.T) {
	uc := newTestCollections(newFakeStateStore(), newFakeSharedRepo())
	if _, err := uc.Create(context.Background(), "u1", "   ", "Amy"); !errors.Is(err, entity.ErrInvalidCollection) {
		t.Fatalf("err = %v, want ErrInvalidCollection", err)
	}
}

func TestDeleteProtectsFavorites(t *testing.T) {
	store := newFakeStateStore()
	store.state.EnsureFavorites()
	uc := newTestCollections(store, newFakeSharedRepo())

	err := uc.Delete(context.Background(), "u1", entity.FavoritesCollectionID)
	if !errors.Is(err, entity.ErrFavoritesProtected) {
		t.Fatalf("err = %v, want ErrFavoritesProtected", err)
	}
	if store.state.Collection(entity.FavoritesCollectionID) == nil {
		t.Fatal("favorites collection was removed")
	}
}

func TestDeleteCoeditedCollectionRevokesRecordFirst(t *testing.T) {
	store := newFakeStateStore()
	store.state.Collections = append(store.state.Collections, entity.Collection{
		ID: "b1", Name: "travel", CoeditCode: "AAAAAA", WordIDs: []string{},
	})
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{Code: "AAAAAA", Mode: entity.ShareModeCoedit}
	uc := newTestCollections(store, shared)

	if err := uc.Delete(context.Background(), "u1", "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := shared.records["AAAAAA"]; ok {
		t.Fatal("shared record survived the delete")
	}
	if store.state.Collection("b1") != nil {
		t.Fatal("collection survived the delete")
	}
}

func TestDeleteUnknownCollection(t *testing.T) {
	uc := newTestCollections(newFakeStateStore(), newFakeSharedRepo())
	if err := uc.Delete(context.Background(), "u1", "nope"); !errors.Is(err, entity.ErrCollectionNotFound) {
		t.Fatalf("err = %v, want ErrCollectionNotFound", err)
	}
}

func TestToggleWordAddsThenRemoves(t *testing.T) {
	store := newFakeStateStore()
	store.state.Collections = append(store.state.Collections, entity.Collection{
		ID: "b1", Name: "travel", WordIDs: []string{},
	})
	uc := newTestCollections(store, newFakeSharedRepo())

	added, err := uc.ToggleWord(context.Background(), "u1", "b1", "w1")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !added {
		t.Fatal("first toggle should add")
	}
	equalIDs(t, store.state.Collection("b1").WordIDs, []string{"w1"})

	added, err = uc.ToggleWord(context.Background(), "u1", "b1", "w1")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if added {
		t.Fatal("second toggle should remove")
	}
	equalIDs(t, store.state.Collection("b1").WordIDs, []string{})
}

func TestToggleWordPushesCoeditedEdits(t *testing.T) {
	store := newFakeStateStore()
	store.state.Collections = append(store.state.Collections, entity.Collection{
		ID: "b1", Name: "travel", CoeditCode: "AAAAAA", WordIDs: []string{},
	})
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{Code: "AAAAAA", Mode: entity.ShareModeCoedit}
	uc := newTestCollections(store, shared)

	if _, err := uc.ToggleWord(context.Background(), "u1", "b1", "w1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := shared.records["AAAAAA"].WordIDs; len(got) != 1 || got[0] != "w1" {
		t.Fatalf("remote word ids = %v, want [w1]", got)
	}
	if len(shared.updates["AAAAAA"]) != 1 {
		t.Fatalf("update pushes = %d, want 1", len(shared.updates["AAAAAA"]))
	}
}

func TestToggleWordCoeditPushFailureStaysLocal(t *testing.T) {
	store := newFakeStateStore()
	store.state.Collections = append(store.state.Collections, entity.Collection{
		ID: "b1", Name: "travel", CoeditCode: "AAAAAA", WordIDs: []string{},
	})
	shared := newFakeSharedRepo()
	shared.fail = errors.New("network down")
	uc := newTestCollections(store, shared)

	added, err := uc.ToggleWord(context.Background(), "u1", "b1", "w1")
	if err != nil {
		t.Fatalf("push failure must not surface: %v", err)
	}
	if !added {
		t.Fatal("local toggle lost")
	}
	equalIDs(t, store.state.Collection("b1").WordIDs, []string{"w1"})
}

func TestToggleStarFlips(t *testing.T) {
	store := newFakeStateStore()
	uc := newTestCollections(store, newFakeSharedRepo())

	on, err := uc.ToggleStar(context.Background(), "u1", "w1")
	if err != nil {
		t.Fatalf("star: %v", err)
	}
	if !on {
		t.Fatal("first toggle should star")
	}
	equalIDs(t, store.state.StarredWordIDs, []string{"w1"})

	on, err = uc.ToggleStar(context.Background(), "u1", "w1")
	if err != nil {
		t.Fatalf("unstar: %v", err)
	}
	if on {
		t.Fatal("second toggle should unstar")
	}
	equalIDs(t, store.state.StarredWordIDs, []string{})
}

func TestMarkMasteredUnions(t *testing.T) {
	store := newFakeStateStore()
	store.state.MasteredWordIDs = []string{"w1"}
	uc := newTestCollections(store, newFakeSharedRepo())

	if err := uc.MarkMastered(context.Background(), "u1", "w1", "w2"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	equalIDs(t, store.state.MasteredWordIDs, []string{"w1", "w2"})
}
