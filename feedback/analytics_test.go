package feedback_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textflock/refind/core"
	"github.com/textflock/refind/feedback"
	"github.com/textflock/refind/storage/badger"
)

func TestAnalyzeFeedback(t *testing.T) {
	_, fbRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ledger, err := feedback.NewLedger(fbRepo)
	require.NoError(t, err)
	ctx := context.Background()

	// Three texts: one clean, one lightly downvoted, one heavily downvoted.
	_, err = ledger.Record(ctx, "q", "clean answer", core.VoteUp, "u")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = ledger.Record(ctx, "q", "mildly disputed", core.VoteDown, "u")
		require.NoError(t, err)
	}
	for i := 0; i < 20; i++ {
		_, err = ledger.Record(ctx, "q", "widely rejected", core.VoteDown, "u")
		require.NoError(t, err)
	}

	analytics, err := feedback.AnalyzeFeedback(ctx, fbRepo, 10)
	require.NoError(t, err)

	assert.Equal(t, 23, analytics.TotalRecords)
	assert.Equal(t, 1, analytics.Upvotes)
	assert.Equal(t, 22, analytics.Downvotes)
	assert.Equal(t, 3, analytics.UniqueTexts)

	require.Len(t, analytics.TopPenalized, 2)
	assert.Equal(t, core.HashText("widely rejected"), analytics.TopPenalized[0].TextHash)
	assert.InDelta(t, 0.3, analytics.TopPenalized[0].Penalty, 1e-6)
	assert.Equal(t, core.HashText("mildly disputed"), analytics.TopPenalized[1].TextHash)
	assert.InDelta(t, 0.04, analytics.TopPenalized[1].Penalty, 1e-6)
}

func TestAnalyzeFeedbackTopNLimit(t *testing.T) {
	_, fbRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ledger, err := feedback.NewLedger(fbRepo)
	require.NoError(t, err)
	ctx := context.Background()

	for _, text := range []string{"a", "bb", "ccc"} {
		_, err = ledger.Record(ctx, "q", text, core.VoteDown, "u")
		require.NoError(t, err)
	}

	analytics, err := feedback.AnalyzeFeedback(ctx, fbRepo, 2)
	require.NoError(t, err)
	assert.Len(t, analytics.TopPenalized, 2)
	assert.Equal(t, 3, analytics.UniqueTexts)
}

func TestAnalyzeFeedbackEmptyStore(t *testing.T) {
	_, fbRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	analytics, err := feedback.AnalyzeFeedback(context.Background(), fbRepo, 5)
	require.NoError(t, err)
	assert.Zero(t, analytics.TotalRecords)
	assert.Empty(t, analytics.TopPenalized)
}
