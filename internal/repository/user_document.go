package repository

import (
	"context"

	"github.com/eslsoft/vocsync/internal/entity"
)

// UserDocumentRepository is the durable replica: one JSON document per user
// in the remote document store. The same document may be written concurrently
// by multiple devices; the merge engine's rules are commutative and
// idempotent to tolerate that without a server-side transaction.
type UserDocumentRepository interface {
	// Fetch reads the user's document. A missing document is (nil, nil),
	// not an error.
	Fetch(ctx context.Context, userID string) (*entity.LearningState, error)
	// Publish upserts the full document with merge semantics.
	Publish(ctx context.Context, userID string, state *entity.LearningState) error
	// PatchSlice updates a single document field, leaving concurrent
	// writes to other fields untouched.
	PatchSlice(ctx context.Context, userID string, slice entity.Slice, state *entity.LearningState) error
}
