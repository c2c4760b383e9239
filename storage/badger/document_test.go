package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/storage"
)

func newTestDocument(category core.Category, text string) *core.Document {
	return &core.Document{
		DocId:    "doc-" + string(category),
		Text:     text,
		Source:   "test source",
		Category: category,
		Vector:   []float32{0.1, 0.2, 0.3},
	}
}

func TestAddAndGetDocument(t *testing.T) {
	docRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	doc := newTestDocument(core.CategoryScripture, "And establish prayer.")
	doc.Metadata = map[string]string{"verse": "2:110"}

	added, err := docRepo.AddDocuments(ctx, doc)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := docRepo.GetDocument(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, doc.Category, got.Category)
	assert.Equal(t, doc.Vector, got.Vector)
	assert.Equal(t, doc.Metadata, got.Metadata)
}

func TestGetDocumentNotFound(t *testing.T) {
	docRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	_, err = docRepo.GetDocument(context.Background(), core.ID(9999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddDocumentValidation(t *testing.T) {
	docRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	_, err = docRepo.AddDocuments(context.Background(), &core.Document{
		Category: core.CategoryOther,
	})
	assert.ErrorIs(t, err, core.ErrEmptyText)
}

func TestCandidateDocuments(t *testing.T) {
	docRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	withVector := newTestDocument(core.CategoryScripture, "passage with embedding")
	withoutVector := newTestDocument(core.CategoryRuling, "passage without embedding")
	withoutVector.Vector = nil
	ruling := newTestDocument(core.CategoryRuling, "a scholarly ruling")

	_, err = docRepo.AddDocuments(ctx, withVector, withoutVector, ruling)
	require.NoError(t, err)

	t.Run("all categories", func(t *testing.T) {
		docs, err := docRepo.CandidateDocuments(ctx, nil)
		require.NoError(t, err)
		// The document without an embedding never qualifies.
		require.Len(t, docs, 2)
	})

	t.Run("category filter", func(t *testing.T) {
		category := core.CategoryRuling
		docs, err := docRepo.CandidateDocuments(ctx, &category)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "a scholarly ruling", docs[0].Text)
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		category := core.CategoryFinancialDuty
		docs, err := docRepo.CandidateDocuments(ctx, &category)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestCandidateDocumentsScanIsUncapped(t *testing.T) {
	docRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	const total = 2500

	batch := make([]*core.Document, 0, 100)
	for i := 0; i < total; i++ {
		doc := newTestDocument(core.CategoryOther, fmt.Sprintf("passage number %d", i))
		doc.DocId = fmt.Sprintf("doc-%d", i)
		batch = append(batch, doc)
		if len(batch) == 100 {
			_, err := docRepo.AddDocuments(ctx, batch...)
			require.NoError(t, err)
			batch = batch[:0]
		}
	}

	docs, err := docRepo.CandidateDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, docs, total)
}

func TestCorpusStats(t *testing.T) {
	docRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	_, err = docRepo.AddDocuments(ctx,
		newTestDocument(core.CategoryScripture, "abcd"),
		newTestDocument(core.CategoryScripture, "abcdefgh"),
		newTestDocument(core.CategoryOther, "xy"),
	)
	require.NoError(t, err)

	stats, err := docRepo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, 2, stats.Categories[core.CategoryScripture].Count)
	assert.Equal(t, 6, stats.Categories[core.CategoryScripture].AvgTextLength)
	assert.Equal(t, 1, stats.Categories[core.CategoryOther].Count)
}
