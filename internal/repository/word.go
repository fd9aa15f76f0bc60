package repository

import (
	"context"

	"github.com/eslsoft/vocsync/internal/entity"
)

// WordRepository serves the static vocabulary corpus loaded at startup.
// Entries are immutable except for definitions, which external back-fill
// logic may populate after construction.
type WordRepository interface {
	// All returns every entry in corpus order.
	All() []entity.Word
	// ByLevel returns the entries of one difficulty level, corpus order.
	ByLevel(level int) []entity.Word
	// ByIDs resolves ids to entries, preserving input order and skipping
	// unknown ids.
	ByIDs(ids []string) []entity.Word
	// Find looks up a single entry by id.
	Find(id string) (entity.Word, bool)
	// Search returns the entries matching a filter expression, corpus
	// order. An empty expression matches everything.
	Search(expr string) ([]entity.Word, error)
	// BackfillDefinition fills the definition of entries whose definition
	// is still empty, and records it in the definition cache so the next
	// load starts warm.
	BackfillDefinition(ctx context.Context, wordText, definition string) error
}

// DefinitionCache is the local cache of back-filled definitions, keyed by
// word text. It survives restarts so translation work is never repeated.
type DefinitionCache interface {
	All(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, wordText, definition string) error
	Close() error
}
