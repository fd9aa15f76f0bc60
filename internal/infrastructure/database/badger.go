package database

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/eslsoft/vocsync/internal/infrastructure/config"
)

// NewBadgerDB opens the local key-value store. Badger's own chatty logger is
// silenced; the state store logs what matters.
func NewBadgerDB(cfg *config.Config) (*badger.DB, func(), error) {
	opts := badger.DefaultOptions(cfg.Store.Path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open local store: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}
