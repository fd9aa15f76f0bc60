package repository

import (
	"context"

	"github.com/eslsoft/vocsync/internal/entity"
)

// SharedCollectionRepository persists shared collection records in the
// remote namespace, keyed by their short share code.
type SharedCollectionRepository interface {
	// FindByCode looks up a record by its (already normalized) code.
	// A missing record is (nil, nil), not an error.
	FindByCode(ctx context.Context, code string) (*entity.SharedCollection, error)
	Insert(ctx context.Context, record *entity.SharedCollection) error
	// UpdateWordIDs pushes a co-edited collection's latest contents.
	UpdateWordIDs(ctx context.Context, code string, wordIDs []string) error
	Delete(ctx context.Context, code string) error
}
