package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eslsoft/vocsync/internal/entity"
)

func newTestSharing(t *testing.T, store *fakeStateStore, shared *fakeSharedRepo) *sharingUsecase {
	t.Helper()
	sync := newTestSync(store, newFakeUserDocRepo())
	uc := NewSharingUsecase(sync, shared, testLogger()).(*sharingUsecase)
	codes := []string{"AAAAAA", "BBBBBB", "CCCCCC"}
	uc.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
	return uc
}

func stateWithCollection(c entity.Collection) *fakeStateStore {
	store := newFakeStateStore()
	store.state.Collections = []entity.Collection{c}
	return store
}

func TestCreateExportCodeMintsRecord(t *testing.T) {
	store := stateWithCollection(entity.Collection{ID: "b1", Name: "travel", WordIDs: []string{"w1", "w2"}})
	shared := newFakeSharedRepo()
	uc := newTestSharing(t, store, shared)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	uc.clock = func() time.Time { return now }

	info, err := uc.CreateExportCode(context.Background(), "u1", "Amy", "b1")
	if err != nil {
		t.Fatalf("create export code: %v", err)
	}
	if info.Code != "AAAAAA" {
		t.Fatalf("code = %q", info.Code)
	}
	if !info.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("expiresAt = %v, want now+15m", info.ExpiresAt)
	}

	record := shared.records["AAAAAA"]
	if record == nil {
		t.Fatal("no shared record inserted")
	}
	if record.Mode != entity.ShareModeExport || record.OriginalCollectionID != "b1" {
		t.Fatalf("record = %+v", record)
	}
	if store.state.Collections[0].ExportInfo == nil {
		t.Fatal("export info not cached on the collection")
	}
}

func TestCreateExportCodeReusesFreshCode(t *testing.T) {
	store := stateWithCollection(entity.Collection{ID: "b1", Name: "travel", WordIDs: []string{"w1"}})
	shared := newFakeSharedRepo()
	uc := newTestSharing(t, store, shared)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	uc.clock = func() time.Time { return now }

	first, err := uc.CreateExportCode(context.Background(), "u1", "Amy", "b1")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Two minutes later the cached code still has plenty of validity.
	uc.clock = func() time.Time { return now.Add(2 * time.Minute) }
	second, err := uc.CreateExportCode(context.Background(), "u1", "Amy", "b1")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Code != first.Code {
		t.Fatalf("fresh code minted (%q) instead of reusing %q", second.Code, first.Code)
	}

	// Under ten seconds remaining mints a new one.
	uc.clock = func() time.Time { return now.Add(15*time.Minute - 5*time.Second) }
	third, err := uc.CreateExportCode(context.Background(), "u1", "Amy", "b1")
	if err != nil {
		t.Fatalf("third create: %v", err)
	}
	if third.Code == first.Code {
		t.Fatal("expired code was reused")
	}
}

func TestFindSharedBookComputesExpiredStatus(t *testing.T) {
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{
		Code:      "AAAAAA",
		Mode:      entity.ShareModeExport,
		ExpiresAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		Status:    entity.ShareStatusActive,
	}
	uc := newTestSharing(t, newFakeStateStore(), shared)
	uc.clock = func() time.Time { return time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC) }

	record, err := uc.FindSharedBook(context.Background(), "  aaaaaa ")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if record == nil {
		t.Fatal("record not found via case-insensitive code")
	}
	if record.Status != entity.ShareStatusExpired {
		t.Fatalf("status = %s, want expired", record.Status)
	}
}

func TestFindSharedBookNotFoundIsNil(t *testing.T) {
	uc := newTestSharing(t, newFakeStateStore(), newFakeSharedRepo())
	record, err := uc.FindSharedBook(context.Background(), "ZZZZZZ")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if record != nil {
		t.Fatalf("record = %+v, want nil", record)
	}
}

func TestInitiateCoeditIsDurableAndIdempotent(t *testing.T) {
	store := stateWithCollection(entity.Collection{ID: "b1", Name: "travel", WordIDs: []string{"w1"}})
	shared := newFakeSharedRepo()
	uc := newTestSharing(t, store, shared)

	code, err := uc.InitiateCoedit(context.Background(), "u1", "Amy", "b1")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	record := shared.records[code]
	if record == nil || record.Mode != entity.ShareModeCoedit {
		t.Fatalf("record = %+v", record)
	}
	if !record.ExpiresAt.IsZero() {
		t.Fatal("co-edit records must not expire")
	}

	again, err := uc.InitiateCoedit(context.Background(), "u1", "Amy", "b1")
	if err != nil {
		t.Fatalf("second initiate: %v", err)
	}
	if again != code {
		t.Fatalf("second initiate minted new code %q, want %q", again, code)
	}
}

func TestDeleteSharedBookRevokesAndClearsCode(t *testing.T) {
	store := stateWithCollection(entity.Collection{ID: "b1", Name: "travel", CoeditCode: "AAAAAA", WordIDs: []string{}})
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{Code: "AAAAAA", Mode: entity.ShareModeCoedit}
	uc := newTestSharing(t, store, shared)

	if err := uc.DeleteSharedBook(context.Background(), "u1", "AAAAAA"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := shared.records["AAAAAA"]; ok {
		t.Fatal("shared record still present after revoke")
	}
	if store.state.Collections[0].CoeditCode != "" {
		t.Fatal("co-edit code not cleared on local collection")
	}
}

func TestImportSharedBookRefusesOwnCollection(t *testing.T) {
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{
		Code:      "AAAAAA",
		CreatorID: "u1",
		Mode:      entity.ShareModeExport,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	uc := newTestSharing(t, newFakeStateStore(), shared)

	_, err := uc.ImportSharedBook(context.Background(), "u1", "AAAAAA", false)
	if !errors.Is(err, entity.ErrOwnSharedCollection) {
		t.Fatalf("err = %v, want ErrOwnSharedCollection", err)
	}
}

func TestImportSharedBookWarnsOnDuplicate(t *testing.T) {
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{
		Code:      "AAAAAA",
		Name:      "travel",
		CreatorID: "owner",
		Mode:      entity.ShareModeExport,
		ExpiresAt: time.Now().Add(time.Hour),
		WordIDs:   []string{"w1"},
	}
	store := stateWithCollection(entity.Collection{ID: "x", OriginalCode: "AAAAAA", WordIDs: []string{}})
	uc := newTestSharing(t, store, shared)

	_, err := uc.ImportSharedBook(context.Background(), "u2", "AAAAAA", false)
	if !errors.Is(err, entity.ErrDuplicateImport) {
		t.Fatalf("err = %v, want ErrDuplicateImport", err)
	}

	// Confirming imports it anyway.
	imported, err := uc.ImportSharedBook(context.Background(), "u2", "AAAAAA", true)
	if err != nil {
		t.Fatalf("confirmed import: %v", err)
	}
	if imported.OriginalCode != "AAAAAA" {
		t.Fatalf("imported = %+v", imported)
	}
}

func TestImportCoeditKeepsPropagationWiring(t *testing.T) {
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{
		Code:                 "AAAAAA",
		Name:                 "travel",
		CreatorID:            "owner",
		Mode:                 entity.ShareModeCoedit,
		WordIDs:              []string{"w1", "w2"},
		OriginalCollectionID: "orig",
	}
	store := newFakeStateStore()
	uc := newTestSharing(t, store, shared)

	imported, err := uc.ImportSharedBook(context.Background(), "u2", "AAAAAA", false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.CoeditCode != "AAAAAA" {
		t.Fatal("co-edit import must carry the code for future pushes")
	}
	if imported.ID == "orig" || imported.ID == "" {
		t.Fatalf("imported id %q must be fresh", imported.ID)
	}
	if imported.OriginalCollectionID != "orig" {
		t.Fatalf("original collection id lost: %+v", imported)
	}
}

func TestImportExpiredExportIsRejectedDistinctly(t *testing.T) {
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{
		Code:      "AAAAAA",
		CreatorID: "owner",
		Mode:      entity.ShareModeExport,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	uc := newTestSharing(t, newFakeStateStore(), shared)

	_, err := uc.ImportSharedBook(context.Background(), "u2", "AAAAAA", false)
	if !errors.Is(err, entity.ErrShareUnavailable) {
		t.Fatalf("err = %v, want ErrShareUnavailable", err)
	}
}

func TestUpdateCoeditedBookPushesWordIDs(t *testing.T) {
	shared := newFakeSharedRepo()
	shared.records["AAAAAA"] = &entity.SharedCollection{Code: "AAAAAA", Mode: entity.ShareModeCoedit}
	uc := newTestSharing(t, newFakeStateStore(), shared)

	uc.UpdateCoeditedBook(context.Background(), "aaaaaa", []string{"w1", "w2"})
	if got := shared.records["AAAAAA"].WordIDs; len(got) != 2 {
		t.Fatalf("remote word ids = %v", got)
	}
}

func TestUpdateCoeditedBookSwallowsFailures(t *testing.T) {
	shared := newFakeSharedRepo()
	shared.fail = errors.New("network down")
	uc := newTestSharing(t, newFakeStateStore(), shared)

	// Must not panic or surface the failure.
	uc.UpdateCoeditedBook(context.Background(), "AAAAAA", []string{"w1"})
}
