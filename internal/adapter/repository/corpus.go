package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
	"github.com/eslsoft/vocsync/pkg/filterexpr"
)

// wordSchema exposes the filterable corpus fields to search expressions.
var wordSchema = filterexpr.Schema{
	"id":             filterexpr.KindString,
	"word":           filterexpr.KindString,
	"pos":            filterexpr.KindString,
	"definition":     filterexpr.KindString,
	"level":          filterexpr.KindInt,
	"frequency_rank": filterexpr.KindInt,
}

// Corpus is the in-memory vocabulary, loaded once at startup from a JSON
// file. Definitions missing from the file are warmed from the local cache
// and back-filled into it as they become known.
type Corpus struct {
	mu      sync.RWMutex
	words   []entity.Word
	byID    map[string]int
	byLevel map[int][]int
	cache   repository.DefinitionCache
	logger  *logrus.Logger
}

// NewCorpus loads the corpus file and merges the cached definitions.
func NewCorpus(ctx context.Context, path string, cache repository.DefinitionCache, logger *logrus.Logger) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	var words []entity.Word
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("parse corpus file: %w", err)
	}

	c := &Corpus{
		words:   words,
		byID:    make(map[string]int, len(words)),
		byLevel: map[int][]int{},
		cache:   cache,
		logger:  logger,
	}
	for i, w := range words {
		c.byID[w.ID] = i
		c.byLevel[w.Level] = append(c.byLevel[w.Level], i)
	}

	if cache != nil {
		cached, err := cache.All(ctx)
		if err != nil {
			logger.WithError(err).Warn("definition cache unreadable, starting cold")
		} else {
			warmed := 0
			for i := range c.words {
				if c.words[i].HasDefinition() {
					continue
				}
				if definition, ok := cached[c.words[i].Text]; ok {
					c.words[i].Definition = definition
					warmed++
				}
			}
			if warmed > 0 {
				logger.WithField("count", warmed).Debug("definitions warmed from cache")
			}
		}
	}

	logger.WithField("words", len(words)).Info("corpus loaded")
	return c, nil
}

func (c *Corpus) All() []entity.Word {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]entity.Word{}, c.words...)
}

func (c *Corpus) ByLevel(level int) []entity.Word {
	c.mu.RLock()
	defer c.mu.RUnlock()
	indexes := c.byLevel[level]
	out := make([]entity.Word, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, c.words[i])
	}
	return out
}

func (c *Corpus) ByIDs(ids []string) []entity.Word {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.Word, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.byID[id]; ok {
			out = append(out, c.words[i])
		}
	}
	return out
}

func (c *Corpus) Find(id string) (entity.Word, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return entity.Word{}, false
	}
	return c.words[i], true
}

func (c *Corpus) Search(expr string) ([]entity.Word, error) {
	filter, err := filterexpr.Compile(expr, wordSchema)
	if err != nil {
		return nil, fmt.Errorf("compile word filter: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []entity.Word{}
	for _, w := range c.words {
		match, err := filter.Matches(map[string]any{
			"id":             w.ID,
			"word":           w.Text,
			"pos":            w.Pos,
			"definition":     w.Definition,
			"level":          w.Level,
			"frequency_rank": w.FrequencyRank,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate word filter: %w", err)
		}
		if match {
			out = append(out, w)
		}
	}
	return out, nil
}

func (c *Corpus) BackfillDefinition(ctx context.Context, wordText, definition string) error {
	if wordText == "" || definition == "" {
		return nil
	}

	c.mu.Lock()
	filled := false
	for i := range c.words {
		if c.words[i].Text == wordText && !c.words[i].HasDefinition() {
			c.words[i].Definition = definition
			filled = true
		}
	}
	c.mu.Unlock()

	if !filled || c.cache == nil {
		return nil
	}
	if err := c.cache.Put(ctx, wordText, definition); err != nil {
		return fmt.Errorf("cache definition: %w", err)
	}
	return nil
}
