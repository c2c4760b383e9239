package filter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []string
}

func (s *recordingSink) RecordBlocked(ctx context.Context, submitter, query, rule string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, rule)
	return nil
}

func newTestChain(t *testing.T, phrases []string, opts ...Option) *Chain {
	t.Helper()
	cache := NewDenylistCache(staticPhrases(phrases))
	require.NoError(t, cache.Refresh(context.Background()))
	chain, err := NewChain(cache, opts...)
	require.NoError(t, err)
	return chain
}

func TestNewChainRequiresDenylist(t *testing.T) {
	_, err := NewChain(nil)
	assert.Equal(t, ErrDenylistRequired, err)
}

func TestChainEvaluate(t *testing.T) {
	sink := &recordingSink{}
	chain := newTestChain(t, []string{"forbidden"}, WithAuditSink(sink))
	ctx := context.Background()

	t.Run("allowed query", func(t *testing.T) {
		decision := chain.Evaluate(ctx, "user@example.com", "how should I give charity")
		assert.True(t, decision.Allowed)
		assert.Empty(t, decision.Rule)
	})

	t.Run("denylisted query names the rule", func(t *testing.T) {
		decision := chain.Evaluate(ctx, "user@example.com", "the FORBIDDEN question")
		assert.False(t, decision.Allowed)
		assert.Equal(t, RuleDenylist, decision.Rule)
	})

	t.Run("too-short fires regardless of denylist content", func(t *testing.T) {
		decision := chain.Evaluate(ctx, "user@example.com", "hi")
		assert.False(t, decision.Allowed)
		assert.Equal(t, RuleTooShort, decision.Rule)
	})

	t.Run("blocked attempts are audited", func(t *testing.T) {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		assert.Equal(t, []string{RuleDenylist, RuleTooShort}, sink.entries)
	})
}

func TestChainFirstMatchWins(t *testing.T) {
	// A short query containing a denylisted phrase trips the denylist rule,
	// which sits ahead of too-short in the fixed order.
	chain := newTestChain(t, []string{"hi"})

	decision := chain.Evaluate(context.Background(), "user@example.com", "hi")
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleDenylist, decision.Rule)
}

func TestChainFailOpenOnRuleError(t *testing.T) {
	failing := Rule{
		Name: "broken-rule",
		Blocks: func(query string) (bool, error) {
			return true, errors.New("rule exploded")
		},
	}
	blocking := TooShortRule()

	cache := NewDenylistCache(staticPhrases(nil))
	require.NoError(t, cache.Refresh(context.Background()))
	chain, err := NewChain(cache, WithRules(failing, blocking))
	require.NoError(t, err)

	// The failing rule is skipped; the rest of the chain still runs.
	decision := chain.Evaluate(context.Background(), "user@example.com", "hi")
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleTooShort, decision.Rule)

	decision = chain.Evaluate(context.Background(), "user@example.com", "a normal question")
	assert.True(t, decision.Allowed)
}

func TestDenylistRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh picks up new phrases", func(t *testing.T) {
		source := &mutablePhrases{}
		cache := NewDenylistCache(source)
		require.NoError(t, cache.Refresh(ctx))
		assert.False(t, cache.Matches("a new bad phrase"))

		source.set("bad phrase")
		require.NoError(t, cache.Refresh(ctx))
		assert.True(t, cache.Matches("a new BAD PHRASE"))
	})

	t.Run("refresh is idempotent", func(t *testing.T) {
		source := &mutablePhrases{}
		source.set("one", "two")
		cache := NewDenylistCache(source)

		require.NoError(t, cache.Refresh(ctx))
		first := cache.Snapshot()
		require.NoError(t, cache.Refresh(ctx))
		second := cache.Snapshot()
		assert.Equal(t, first, second)
	})

	t.Run("failed refresh keeps the old set", func(t *testing.T) {
		source := &mutablePhrases{}
		source.set("kept phrase")
		cache := NewDenylistCache(source)
		require.NoError(t, cache.Refresh(ctx))

		source.fail(errors.New("store down"))
		assert.Error(t, cache.Refresh(ctx))
		assert.True(t, cache.Matches("still has the kept phrase"))
	})
}

type mutablePhrases struct {
	mu      sync.Mutex
	phrases []string
	err     error
}

func (m *mutablePhrases) set(phrases ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phrases = phrases
	m.err = nil
}

func (m *mutablePhrases) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mutablePhrases) Phrases(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.phrases...), nil
}
