package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eslsoft/vocsync/internal/repository"
)

const definitionSchema = `
CREATE TABLE IF NOT EXISTS definitions (
	word       TEXT PRIMARY KEY,
	definition TEXT NOT NULL
);`

// NewDefinitionCache opens (creating if needed) the sqlite-backed cache of
// back-filled definitions at path.
func NewDefinitionCache(path string) (repository.DefinitionCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open definition cache: %w", err)
	}
	if _, err := db.Exec(definitionSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init definition cache: %w", err)
	}
	return &definitionCache{db: db}, nil
}

type definitionCache struct {
	db *sql.DB
}

func (c *definitionCache) All(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT word, definition FROM definitions`)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	defer rows.Close()

	definitions := map[string]string{}
	for rows.Next() {
		var word, definition string
		if err := rows.Scan(&word, &definition); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		definitions[word] = definition
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definitions: %w", err)
	}
	return definitions, nil
}

func (c *definitionCache) Put(ctx context.Context, wordText, definition string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO definitions (word, definition) VALUES (?, ?)
		 ON CONFLICT(word) DO UPDATE SET definition = excluded.definition`,
		wordText, definition,
	)
	if err != nil {
		return fmt.Errorf("store definition: %w", err)
	}
	return nil
}

func (c *definitionCache) Close() error {
	return c.db.Close()
}
