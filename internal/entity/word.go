package entity

import "strings"

// Vocabulary levels span 1 (beginner) through 6 (near-native).
const (
	MinLevel = 1
	MaxLevel = 6
)

// Word is a single vocabulary corpus entry. The corpus is loaded once at
// startup and entries are immutable except for Definition, which may be
// back-filled later when the corpus ships with a missing or placeholder
// translation.
type Word struct {
	ID            string `json:"id"`
	Text          string `json:"word"`
	Pos           string `json:"pos"`
	Definition    string `json:"definition"`
	Sentence      string `json:"sentence,omitempty"`
	Level         int    `json:"level"`
	FrequencyRank int    `json:"frequency_rank"`
}

// HasDefinition reports whether the entry carries a usable definition.
func (w *Word) HasDefinition() bool {
	return strings.TrimSpace(w.Definition) != ""
}

// WordIDs extracts the ids of the given words, preserving order.
func WordIDs(words []Word) []string {
	ids := make([]string, 0, len(words))
	for _, w := range words {
		ids = append(ids, w.ID)
	}
	return ids
}
