package search_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textflock/refind/ai/mock"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/feedback"
	"github.com/textflock/refind/search"
	"github.com/textflock/refind/storage"
	"github.com/textflock/refind/storage/badger"
)

// queryVector is the fixed embedding every test query maps to.
var queryVector = []float32{1, 0, 0, 0}

// vectorWithSimilarity builds a unit vector whose cosine similarity against
// queryVector is exactly c.
func vectorWithSimilarity(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c)), 0, 0}
}

type testEnv struct {
	searcher *search.Searcher
	docs     storage.DocumentRepository
	ledger   *feedback.Ledger
	embedder *mock.MockEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	docRepo, fbRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	ledger, err := feedback.NewLedger(fbRepo)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return queryVector, nil
	}

	searcher, err := search.NewSearcher(docRepo, ledger, embedder)
	require.NoError(t, err)
	t.Cleanup(searcher.Release)

	return &testEnv{searcher: searcher, docs: docRepo, ledger: ledger, embedder: embedder}
}

func (e *testEnv) addDocument(t *testing.T, docId, text string, category core.Category, vector []float32) {
	t.Helper()
	_, err := e.docs.AddDocuments(context.Background(), &core.Document{
		DocId:    docId,
		Text:     text,
		Category: category,
		Vector:   vector,
	})
	require.NoError(t, err)
}

func TestSearchValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.searcher.Search(ctx, "   ", search.DefaultOptions())
	assert.ErrorIs(t, err, search.ErrEmptyQuery)

	_, err = env.searcher.Search(ctx, "query", search.Options{TopK: 0, MinScore: 0.1})
	assert.ErrorIs(t, err, search.ErrInvalidTopK)

	_, err = env.searcher.Search(ctx, "query", search.Options{TopK: 5, MinScore: 1.5})
	assert.ErrorIs(t, err, search.ErrInvalidMinScore)

	_, err = env.searcher.Search(ctx, "query", search.Options{TopK: 5, MinScore: -0.1})
	assert.ErrorIs(t, err, search.ErrInvalidMinScore)

	bad := core.Category("poetry")
	_, err = env.searcher.Search(ctx, "query", search.Options{TopK: 5, MinScore: 0.1, Category: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
}

func TestSearchEmptyCorpus(t *testing.T) {
	env := newTestEnv(t)

	response, err := env.searcher.Search(context.Background(), "anything", search.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, response.Hits)
	assert.NoError(t, response.Degraded)
}

func TestSearchDegradedOnEmbedderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addDocument(t, "d1", "some text", core.CategoryOther, vectorWithSimilarity(0.9))

	embedderErr := errors.New("embedding host unreachable")
	env.embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, embedderErr
	}

	response, err := env.searcher.Search(context.Background(), "query", search.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, response.Hits)
	assert.ErrorIs(t, response.Degraded, embedderErr)
}

func TestSearchRanksByCategoryPriorityThenScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// The ruling scores highest on similarity, but scripture outranks it.
	env.addDocument(t, "d1", "a verse", core.CategoryScripture, vectorWithSimilarity(0.5))
	env.addDocument(t, "d2", "a ruling", core.CategoryRuling, vectorWithSimilarity(0.9))
	env.addDocument(t, "d3", "a note", core.CategoryOther, vectorWithSimilarity(0.2))

	response, err := env.searcher.Search(ctx, "query", search.Options{TopK: 10, MinScore: 0.1})
	require.NoError(t, err)
	require.Len(t, response.Hits, 3)
	assert.Equal(t, "d1", response.Hits[0].Document.DocId)
	assert.Equal(t, "d2", response.Hits[1].Document.DocId)
	assert.Equal(t, "d3", response.Hits[2].Document.DocId)
	assert.Equal(t, []int{1, 2, 3}, []int{response.Hits[0].Rank, response.Hits[1].Rank, response.Hits[2].Rank})

	// A threshold above every score yields an empty, non-degraded response.
	response, err = env.searcher.Search(ctx, "query", search.Options{TopK: 10, MinScore: 0.95})
	require.NoError(t, err)
	assert.Empty(t, response.Hits)
	assert.NoError(t, response.Degraded)
}

func TestSearchScansFullCorpus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 2500 mediocre candidates with the single best match buried deep in
	// the corpus. A capped scan would miss it.
	const corpusSize = 2500
	const bestPosition = 2200

	batch := make([]*core.Document, 0, 100)
	for i := 0; i < corpusSize; i++ {
		vector := vectorWithSimilarity(0.3)
		if i == bestPosition {
			vector = vectorWithSimilarity(0.99)
		}
		batch = append(batch, &core.Document{
			DocId:    fmt.Sprintf("doc-%d", i),
			Text:     fmt.Sprintf("document number %d", i),
			Category: core.CategoryOther,
			Vector:   vector,
		})
		if len(batch) == 100 {
			_, err := env.docs.AddDocuments(ctx, batch...)
			require.NoError(t, err)
			batch = batch[:0]
		}
	}

	response, err := env.searcher.Search(ctx, "query", search.Options{TopK: 1, MinScore: 0.05})
	require.NoError(t, err)
	require.Len(t, response.Hits, 1)
	assert.Equal(t, fmt.Sprintf("doc-%d", bestPosition), response.Hits[0].Document.DocId)
	assert.InDelta(t, 0.99, response.Hits[0].Score, 1e-3)
}

func TestSearchSkipsDimensionMismatch(t *testing.T) {
	env := newTestEnv(t)

	env.addDocument(t, "good", "well formed", core.CategoryOther, vectorWithSimilarity(0.8))
	env.addDocument(t, "bad", "wrong dimensions", core.CategoryOther, []float32{0.5, 0.5, 0.5})

	response, err := env.searcher.Search(context.Background(), "query", search.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, response.Hits, 1)
	assert.Equal(t, "good", response.Hits[0].Document.DocId)
	assert.Equal(t, 1, response.Skipped)
}

func TestSearchAppliesFeedbackPenalty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	text := "a downvoted answer"
	env.addDocument(t, "d1", text, core.CategoryOther, vectorWithSimilarity(0.9))

	for i := 0; i < 5; i++ {
		_, err := env.ledger.Record(ctx, "query", text, core.VoteDown, "u")
		require.NoError(t, err)
	}

	response, err := env.searcher.Search(ctx, "query", search.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, response.Hits, 1)
	assert.InDelta(t, 0.8, response.Hits[0].Score, 1e-3)
}

func TestSearchPenaltyCanDropHitBelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	text := "a widely rejected answer"
	env.addDocument(t, "d1", text, core.CategoryOther, vectorWithSimilarity(0.25))

	for i := 0; i < 20; i++ {
		_, err := env.ledger.Record(ctx, "query", text, core.VoteDown, "u")
		require.NoError(t, err)
	}

	// Base 0.25 minus the saturated 0.3 penalty clamps to zero.
	response, err := env.searcher.Search(ctx, "query", search.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, response.Hits)
}

func TestSearchTopKTruncation(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 10; i++ {
		env.addDocument(t, fmt.Sprintf("d%d", i), fmt.Sprintf("text %d", i),
			core.CategoryOther, vectorWithSimilarity(0.5+float64(i)*0.04))
	}

	response, err := env.searcher.Search(context.Background(), "query", search.Options{TopK: 3, MinScore: 0.05})
	require.NoError(t, err)
	require.Len(t, response.Hits, 3)

	// Best scores first, ranks assigned after truncation.
	assert.Equal(t, "d9", response.Hits[0].Document.DocId)
	assert.Equal(t, "d8", response.Hits[1].Document.DocId)
	assert.Equal(t, "d7", response.Hits[2].Document.DocId)
	for i, hit := range response.Hits {
		assert.Equal(t, i+1, hit.Rank)
	}
}

func TestSearchCategoryFilter(t *testing.T) {
	env := newTestEnv(t)

	env.addDocument(t, "s1", "a verse", core.CategoryScripture, vectorWithSimilarity(0.6))
	env.addDocument(t, "o1", "a note", core.CategoryOther, vectorWithSimilarity(0.9))

	category := core.CategoryScripture
	response, err := env.searcher.Search(context.Background(), "query",
		search.Options{TopK: 10, MinScore: 0.05, Category: &category})
	require.NoError(t, err)
	require.Len(t, response.Hits, 1)
	assert.Equal(t, "s1", response.Hits[0].Document.DocId)
}

func TestSearchWithMonitor(t *testing.T) {
	env := newTestEnv(t)
	env.addDocument(t, "d1", "some text", core.CategoryOther, vectorWithSimilarity(0.7))

	monitor := &recordingMonitor{}
	response, err := env.searcher.SearchWithMonitor(context.Background(), "query", search.DefaultOptions(), monitor)
	require.NoError(t, err)
	require.Len(t, response.Hits, 1)

	assert.Equal(t, "query", monitor.query)
	assert.Equal(t, len(queryVector), monitor.dimensions)
	assert.Equal(t, 1, monitor.candidates)
	assert.Equal(t, 1, monitor.scored)
	assert.Equal(t, 1, monitor.finished)
}

type recordingMonitor struct {
	query      string
	dimensions int
	candidates int
	scored     int
	skipped    int
	finished   int
}

func (m *recordingMonitor) Start(query string)              { m.query = query }
func (m *recordingMonitor) AfterQueryEmbedding(dims int)    { m.dimensions = dims }
func (m *recordingMonitor) AfterCandidateFetch(count int)   { m.candidates = count }
func (m *recordingMonitor) AfterScoring(scored, skipped int) {
	m.scored = scored
	m.skipped = skipped
}
func (m *recordingMonitor) Finish(results []*core.SearchResult) { m.finished = len(results) }
