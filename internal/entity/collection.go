package entity

import "time"

// FavoritesCollectionID is the reserved id of the default favorites
// collection. It is seeded on first use and can never be deleted.
const FavoritesCollectionID = "book_favorites"

// ShareMode distinguishes the two collection sharing flavours.
type ShareMode string

const (
	// ShareModeExport grants a one-time import of a snapshot within a
	// short validity window.
	ShareModeExport ShareMode = "export"
	// ShareModeCoedit durably binds importers to one remote record that
	// the owner keeps pushing edits to.
	ShareModeCoedit ShareMode = "coedit"
)

// ShareStatus is the resolved lifecycle state of a shared collection record.
type ShareStatus string

const (
	ShareStatusActive  ShareStatus = "active"
	ShareStatusExpired ShareStatus = "expired"
	ShareStatusClosed  ShareStatus = "closed"
)

// ExportInfo caches the most recently minted export code for a collection so
// repeated share taps reuse it instead of minting a fresh one.
type ExportInfo struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Collection is a user-curated word book. Order of WordIDs is
// user-meaningful and duplicates are disallowed.
type Collection struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	WordIDs     []string    `json:"word_ids"`
	CreatorID   string      `json:"creator_id,omitempty"`
	CreatorName string      `json:"creator_name,omitempty"`
	ExportInfo  *ExportInfo `json:"export_info,omitempty"`

	// CoeditCode is set iff the collection is in durable co-edit mode,
	// either as owner or as importer.
	CoeditCode string `json:"coedit_code,omitempty"`

	// OriginalCode/OriginalCollectionID are set iff this collection was
	// imported from another user's share code.
	OriginalCode         string `json:"original_code,omitempty"`
	OriginalCollectionID string `json:"original_collection_id,omitempty"`
}

// NewFavoritesCollection builds the reserved favorites collection.
func NewFavoritesCollection() Collection {
	return Collection{
		ID:      FavoritesCollectionID,
		Name:    "Favorites",
		WordIDs: []string{},
	}
}

// HasWord reports whether the collection contains the word id.
func (c *Collection) HasWord(wordID string) bool {
	for _, id := range c.WordIDs {
		if id == wordID {
			return true
		}
	}
	return false
}

// AddWord appends the word id, rejecting duplicates. Returns true if added.
func (c *Collection) AddWord(wordID string) bool {
	if c.HasWord(wordID) {
		return false
	}
	c.WordIDs = append(c.WordIDs, wordID)
	return true
}

// RemoveWord drops the word id, preserving order. Returns true if removed.
func (c *Collection) RemoveWord(wordID string) bool {
	for i, id := range c.WordIDs {
		if id == wordID {
			c.WordIDs = append(c.WordIDs[:i], c.WordIDs[i+1:]...)
			return true
		}
	}
	return false
}

// Clone deep-copies the collection.
func (c *Collection) Clone() *Collection {
	out := *c
	out.WordIDs = append([]string{}, c.WordIDs...)
	if c.ExportInfo != nil {
		info := *c.ExportInfo
		out.ExportInfo = &info
	}
	return &out
}

// SharedCollection is the denormalized snapshot stored in the shared
// collections namespace, keyed by a short human-enterable code.
type SharedCollection struct {
	Code                 string      `json:"code"`
	Name                 string      `json:"name"`
	WordIDs              []string    `json:"word_ids"`
	CreatorID            string      `json:"creator_id"`
	CreatorName          string      `json:"creator_name"`
	Mode                 ShareMode   `json:"mode"`
	ExpiresAt            time.Time   `json:"expires_at,omitempty"`
	OriginalCollectionID string      `json:"original_collection_id"`
	Status               ShareStatus `json:"status"`
	CreatedAt            time.Time   `json:"created_at"`
}

// ResolveStatus computes the record's effective status at the given time.
// Export codes expire lazily; nobody flips them to expired in storage.
func (r *SharedCollection) ResolveStatus(now time.Time) ShareStatus {
	if r.Status == ShareStatusClosed {
		return ShareStatusClosed
	}
	if r.Mode == ShareModeExport && !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt) {
		return ShareStatusExpired
	}
	return ShareStatusActive
}
