package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

const (
	// exportCodeTTL is the validity window of an export code.
	exportCodeTTL = 15 * time.Minute
	// exportReuseGuard keeps returning a cached code while at least this
	// much of its window remains, avoiding code churn on repeated taps.
	exportReuseGuard = 10 * time.Second

	shareCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	shareCodeLength   = 6
)

// SharingUsecase issues and resolves collection share codes. Export codes
// are short-lived single-snapshot grants; co-edit codes durably bind
// importers to one remote record the owner keeps pushing edits to.
type SharingUsecase interface {
	CreateExportCode(ctx context.Context, userID, userName, collectionID string) (*entity.ExportInfo, error)
	InitiateCoedit(ctx context.Context, userID, userName, collectionID string) (string, error)
	// UpdateCoeditedBook pushes a co-edited collection's latest word list
	// to the remote record. Best-effort: failures are logged, not retried.
	UpdateCoeditedBook(ctx context.Context, code string, wordIDs []string)
	// DeleteSharedBook revokes a co-edit record and clears the code on the
	// owning collection. This permanently disconnects all collaborators.
	DeleteSharedBook(ctx context.Context, userID, code string) error
	// FindSharedBook resolves a code (case-insensitive, trimmed) to its
	// record with the status computed lazily. Not-found is (nil, nil).
	FindSharedBook(ctx context.Context, code string) (*entity.SharedCollection, error)
	// ImportSharedBook copies a resolved record into the user's own
	// collections under a fresh local id. Importing one's own collection
	// is refused; re-importing the same code requires confirmDuplicate.
	ImportSharedBook(ctx context.Context, userID, code string, confirmDuplicate bool) (*entity.Collection, error)
}

// NewSharingUsecase wires the sync entry point and the shared-collection
// namespace with default code generation and clock.
func NewSharingUsecase(sync SyncUsecase, shared repository.SharedCollectionRepository, logger *logrus.Logger) SharingUsecase {
	return &sharingUsecase{
		sync:   sync,
		shared: shared,
		logger: logger,
		clock:  time.Now,
		newCode: func() (string, error) {
			return gonanoid.Generate(shareCodeAlphabet, shareCodeLength)
		},
	}
}

type sharingUsecase struct {
	sync    SyncUsecase
	shared  repository.SharedCollectionRepository
	logger  *logrus.Logger
	clock   func() time.Time
	newCode func() (string, error)
}

func (u *sharingUsecase) CreateExportCode(ctx context.Context, userID, userName, collectionID string) (*entity.ExportInfo, error) {
	state, err := u.sync.State(ctx)
	if err != nil {
		return nil, err
	}
	collection := state.Collection(collectionID)
	if collection == nil {
		return nil, entity.ErrCollectionNotFound
	}

	now := u.clock()
	if info := collection.ExportInfo; info != nil && info.ExpiresAt.After(now.Add(exportReuseGuard)) {
		return info, nil
	}

	code, err := u.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate export code: %w", err)
	}
	record := &entity.SharedCollection{
		Code:                 code,
		Name:                 collection.Name,
		WordIDs:              append([]string{}, collection.WordIDs...),
		CreatorID:            userID,
		CreatorName:          userName,
		Mode:                 entity.ShareModeExport,
		ExpiresAt:            now.Add(exportCodeTTL),
		OriginalCollectionID: collection.ID,
		Status:               entity.ShareStatusActive,
		CreatedAt:            now,
	}
	if err := u.shared.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("publish export record: %w", err)
	}

	collection.ExportInfo = &entity.ExportInfo{Code: code, ExpiresAt: record.ExpiresAt}
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceCollections, state.Collections); err != nil {
		return nil, err
	}
	return collection.ExportInfo, nil
}

func (u *sharingUsecase) InitiateCoedit(ctx context.Context, userID, userName, collectionID string) (string, error) {
	state, err := u.sync.State(ctx)
	if err != nil {
		return "", err
	}
	collection := state.Collection(collectionID)
	if collection == nil {
		return "", entity.ErrCollectionNotFound
	}
	if collection.CoeditCode != "" {
		return collection.CoeditCode, nil
	}

	code, err := u.newCode()
	if err != nil {
		return "", fmt.Errorf("generate co-edit code: %w", err)
	}
	now := u.clock()
	record := &entity.SharedCollection{
		Code:                 code,
		Name:                 collection.Name,
		WordIDs:              append([]string{}, collection.WordIDs...),
		CreatorID:            userID,
		CreatorName:          userName,
		Mode:                 entity.ShareModeCoedit,
		OriginalCollectionID: collection.ID,
		Status:               entity.ShareStatusActive,
		CreatedAt:            now,
	}
	if err := u.shared.Insert(ctx, record); err != nil {
		return "", fmt.Errorf("publish co-edit record: %w", err)
	}

	collection.CoeditCode = code
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceCollections, state.Collections); err != nil {
		return "", err
	}
	return code, nil
}

func (u *sharingUsecase) UpdateCoeditedBook(ctx context.Context, code string, wordIDs []string) {
	if code == "" {
		return
	}
	if err := u.shared.UpdateWordIDs(ctx, normalizeCode(code), wordIDs); err != nil {
		u.logger.WithError(err).WithField("code", code).
			Warn("co-edit push failed, collaborators will catch up on the next edit")
	}
}

func (u *sharingUsecase) DeleteSharedBook(ctx context.Context, userID, code string) error {
	normalized := normalizeCode(code)
	if err := u.shared.Delete(ctx, normalized); err != nil {
		return fmt.Errorf("delete shared record: %w", err)
	}

	state, err := u.sync.State(ctx)
	if err != nil {
		return err
	}
	changed := false
	for i := range state.Collections {
		if state.Collections[i].CoeditCode == normalized {
			state.Collections[i].CoeditCode = ""
			changed = true
		}
	}
	if !changed {
		return nil
	}
	_, err = u.sync.ApplyAndSync(ctx, userID, entity.SliceCollections, state.Collections)
	return err
}

func (u *sharingUsecase) FindSharedBook(ctx context.Context, code string) (*entity.SharedCollection, error) {
	normalized := normalizeCode(code)
	if normalized == "" {
		return nil, nil
	}
	record, err := u.shared.FindByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("find shared record: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	record.Status = record.ResolveStatus(u.clock())
	return record, nil
}

func (u *sharingUsecase) ImportSharedBook(ctx context.Context, userID, code string, confirmDuplicate bool) (*entity.Collection, error) {
	record, err := u.FindSharedBook(ctx, code)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if record.Status != entity.ShareStatusActive {
		return nil, fmt.Errorf("%w: %s", entity.ErrShareUnavailable, record.Status)
	}
	if record.CreatorID != "" && record.CreatorID == userID {
		return nil, entity.ErrOwnSharedCollection
	}

	state, err := u.sync.State(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range state.Collections {
		if c.OriginalCode == record.Code && !confirmDuplicate {
			return nil, entity.ErrDuplicateImport
		}
	}

	imported := entity.Collection{
		ID:                   uuid.NewString(),
		Name:                 record.Name,
		WordIDs:              append([]string{}, record.WordIDs...),
		CreatorID:            record.CreatorID,
		CreatorName:          record.CreatorName,
		OriginalCode:         record.Code,
		OriginalCollectionID: record.OriginalCollectionID,
	}
	if record.Mode == entity.ShareModeCoedit {
		imported.CoeditCode = record.Code
	}

	state.Collections = append(state.Collections, imported)
	if _, err := u.sync.ApplyAndSync(ctx, userID, entity.SliceCollections, state.Collections); err != nil {
		return nil, err
	}
	return &imported, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
