package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

const corpusFixture = `[
	{"id": "w1", "word": "apple", "pos": "noun", "definition": "a fruit", "level": 1, "frequency_rank": 10},
	{"id": "w2", "word": "run", "pos": "verb", "definition": "", "level": 1, "frequency_rank": 5},
	{"id": "w3", "word": "ubiquitous", "pos": "adj", "definition": "found everywhere", "level": 5, "frequency_rank": 9000}
]`

type memoryCache struct {
	mu   sync.Mutex
	defs map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{defs: map[string]string{}}
}

func (c *memoryCache) All(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.defs))
	for k, v := range c.defs {
		out[k] = v
	}
	return out, nil
}

func (c *memoryCache) Put(ctx context.Context, wordText, definition string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[wordText] = definition
	return nil
}

func (c *memoryCache) Close() error { return nil }

func writeCorpusFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(corpusFixture), 0o644); err != nil {
		t.Fatalf("write corpus fixture: %v", err)
	}
	return path
}

func TestCorpusLoadAndLookup(t *testing.T) {
	corpus, err := NewCorpus(context.Background(), writeCorpusFile(t), newMemoryCache(), testLogger())
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}

	if got := len(corpus.All()); got != 3 {
		t.Fatalf("corpus size = %d, want 3", got)
	}
	if got := corpus.ByLevel(1); len(got) != 2 {
		t.Fatalf("level 1 = %d words, want 2", len(got))
	}

	words := corpus.ByIDs([]string{"w3", "missing", "w1"})
	if len(words) != 2 || words[0].ID != "w3" || words[1].ID != "w1" {
		t.Fatalf("ByIDs = %v, want [w3 w1] in input order", words)
	}

	if _, ok := corpus.Find("missing"); ok {
		t.Fatal("found a word that does not exist")
	}
}

func TestCorpusWarmsDefinitionsFromCache(t *testing.T) {
	cache := newMemoryCache()
	cache.defs["run"] = "move fast on foot"

	corpus, err := NewCorpus(context.Background(), writeCorpusFile(t), cache, testLogger())
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}

	w, ok := corpus.Find("w2")
	if !ok {
		t.Fatal("w2 missing")
	}
	if w.Definition != "move fast on foot" {
		t.Fatalf("definition = %q, want the cached one", w.Definition)
	}
}

func TestCorpusSearch(t *testing.T) {
	corpus, err := NewCorpus(context.Background(), writeCorpusFile(t), nil, testLogger())
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}

	words, err := corpus.Search(`level == 1 && frequency_rank < 8`)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(words) != 1 || words[0].ID != "w2" {
		t.Fatalf("search = %v, want [w2]", words)
	}

	all, err := corpus.Search("")
	if err != nil {
		t.Fatalf("empty search: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty filter matched %d, want all 3", len(all))
	}

	if _, err := corpus.Search(`level +`); err == nil {
		t.Fatal("malformed filter accepted")
	}
}

func TestBackfillDefinitionFillsAndCaches(t *testing.T) {
	cache := newMemoryCache()
	corpus, err := NewCorpus(context.Background(), writeCorpusFile(t), cache, testLogger())
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}

	if err := corpus.BackfillDefinition(context.Background(), "run", "move fast on foot"); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	w, _ := corpus.Find("w2")
	if w.Definition != "move fast on foot" {
		t.Fatalf("definition = %q", w.Definition)
	}
	if cache.defs["run"] != "move fast on foot" {
		t.Fatal("definition not written to the cache")
	}

	// A word that already has a definition is left alone and not cached.
	if err := corpus.BackfillDefinition(context.Background(), "apple", "something else"); err != nil {
		t.Fatalf("backfill existing: %v", err)
	}
	w, _ = corpus.Find("w1")
	if w.Definition != "a fruit" {
		t.Fatalf("existing definition overwritten: %q", w.Definition)
	}
	if _, ok := cache.defs["apple"]; ok {
		t.Fatal("no-op backfill reached the cache")
	}
}

func TestDefinitionCacheSqliteRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.db")
	cache, err := NewDefinitionCache(path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Put(ctx, "run", "move fast"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.Put(ctx, "run", "move fast on foot"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	defs, err := cache.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if defs["run"] != "move fast on foot" {
		t.Fatalf("defs = %v, want upserted value", defs)
	}
}
