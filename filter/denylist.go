package filter

import (
	"context"
	"strings"
	"sync/atomic"
)

// PhraseSource supplies the administrator-curated denylist phrases.
// storage.DenylistRepository satisfies this interface.
type PhraseSource interface {
	Phrases(ctx context.Context) ([]string, error)
}

// DenylistCache holds a read-mostly snapshot of the blocked phrases.
//
// Refresh replaces the whole snapshot with a single atomic pointer swap,
// never mutating it in place, so concurrent readers always observe either
// the old or the new complete set.
type DenylistCache struct {
	source  PhraseSource
	phrases atomic.Pointer[[]string]
}

// NewDenylistCache creates a cache over the given source.
// The cache starts empty; call Refresh to load phrases.
func NewDenylistCache(source PhraseSource) *DenylistCache {
	c := &DenylistCache{source: source}
	empty := []string{}
	c.phrases.Store(&empty)
	return c
}

// Refresh reloads the phrase set from the source and swaps it in atomically.
// Refreshing twice with no intervening phrase mutation is idempotent.
func (c *DenylistCache) Refresh(ctx context.Context) error {
	phrases, err := c.source.Phrases(ctx)
	if err != nil {
		return err
	}

	lowered := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			lowered = append(lowered, phrase)
		}
	}

	c.phrases.Store(&lowered)
	return nil
}

// Matches reports whether the query contains any cached phrase as a
// case-insensitive substring.
func (c *DenylistCache) Matches(query string) bool {
	lowered := strings.ToLower(query)
	for _, phrase := range *c.phrases.Load() {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// Snapshot returns the current effective phrase set (lowercased).
func (c *DenylistCache) Snapshot() []string {
	current := *c.phrases.Load()
	out := make([]string, len(current))
	copy(out, current)
	return out
}
