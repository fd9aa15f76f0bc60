package repository

import "github.com/eslsoft/vocsync/internal/entity"

// StateStore is the local replica of one user's learning state, backed by a
// key-value persistence capability. Reads always complete synchronously
// against local storage; a corrupt persisted slice decodes to its zero value
// rather than failing the load.
type StateStore interface {
	// LoadState assembles the full state from the per-slice keys.
	LoadState() (*entity.LearningState, error)
	// SaveState persists every slice.
	SaveState(state *entity.LearningState) error
	// SaveSlice persists a single slice of the given state.
	SaveSlice(slice entity.Slice, state *entity.LearningState) error
}
