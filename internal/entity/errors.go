package entity

import "errors"

// Domain errors for learning state, collections and sharing.
var (
	ErrUnknownSlice        = errors.New("unknown state slice")
	ErrInvalidSliceValue   = errors.New("invalid value for state slice")
	ErrFavoritesProtected  = errors.New("favorites collection cannot be deleted")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrInvalidCollection   = errors.New("invalid collection name")
	ErrOwnSharedCollection = errors.New("cannot import own shared collection")
	ErrDuplicateImport     = errors.New("shared collection already imported")
	ErrShareUnavailable    = errors.New("shared collection is not active")
	ErrNotCoedited         = errors.New("collection is not in co-edit mode")
	ErrEmptyQuizPool       = errors.New("quiz pool is empty")
	ErrQuizPoolTooSmall    = errors.New("quiz pool needs at least 4 words")
)
