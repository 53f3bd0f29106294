package cache

import (
	"context"
	"sync"

	"verse-rotator/internal/bible"
)

// VerseLoader fetches a translation's verses from the database.
type VerseLoader interface {
	VersesByTranslation(ctx context.Context, id string) ([]bible.VerseRecord, error)
}

// Verses memoizes translation verse lists by id. Empty results are not
// kept, so a translation that failed to load is fetched again next time.
type Verses struct {
	mu     sync.Mutex
	loader VerseLoader
	byID   map[string][]bible.VerseRecord
}

// NewVerses wraps loader.
func NewVerses(loader VerseLoader) *Verses {
	return &Verses{loader: loader, byID: map[string][]bible.VerseRecord{}}
}

// Get returns the cached list or loads it. It is safe to call from any
// goroutine; concurrent misses for one id may both hit the loader.
func (c *Verses) Get(ctx context.Context, id string) ([]bible.VerseRecord, error) {
	c.mu.Lock()
	verses, ok := c.byID[id]
	c.mu.Unlock()
	if ok {
		return verses, nil
	}

	verses, err := c.loader.VersesByTranslation(ctx, id)
	if err != nil {
		c.Evict(id)
		return nil, err
	}
	if len(verses) == 0 {
		c.Evict(id)
		return nil, nil
	}

	c.mu.Lock()
	c.byID[id] = verses
	c.mu.Unlock()
	return verses, nil
}

// Evict forgets id.
func (c *Verses) Evict(id string) {
	c.mu.Lock()
	delete(c.byID, id)
	c.mu.Unlock()
}

// Cached reports whether id is held in memory.
func (c *Verses) Cached(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byID[id]
	return ok
}
