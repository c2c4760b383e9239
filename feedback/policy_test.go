package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/textflock/refind/core"
)

func TestPenaltyForVotes(t *testing.T) {
	tests := []struct {
		name     string
		summary  core.VoteSummary
		expected float32
	}{
		{"no feedback", core.VoteSummary{}, 0},
		{"only upvotes", core.VoteSummary{Upvotes: 10}, 0},
		{"one downvote", core.VoteSummary{Downvotes: 1}, 0.02},
		{"five downvotes", core.VoteSummary{Downvotes: 5}, 0.1},
		{"saturates at fifteen", core.VoteSummary{Downvotes: 15}, 0.3},
		{"twenty downvotes capped", core.VoteSummary{Downvotes: 20}, 0.3},
		{"hundred downvotes capped", core.VoteSummary{Downvotes: 100}, 0.3},
		{"upvotes never offset", core.VoteSummary{Upvotes: 50, Downvotes: 5}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PenaltyForVotes(tt.summary), 1e-6)
		})
	}
}

func TestAdjustScore(t *testing.T) {
	assert.InDelta(t, 0.8, AdjustScore(0.9, 0.1), 1e-6)
	assert.InDelta(t, 0.9, AdjustScore(0.9, 0), 1e-6)

	// A penalty larger than the base clamps to zero, never negative.
	assert.Equal(t, float32(0), AdjustScore(0.1, 0.3))
	assert.Equal(t, float32(0), AdjustScore(0, 0.02))
}
