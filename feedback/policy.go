package feedback

import "github.com/textflock/refind/core"

// Penalty policy constants.
const (
	// PenaltyPerDownvote is subtracted from a document's similarity score
	// for each accumulated downvote.
	PenaltyPerDownvote float32 = 0.02

	// MaxPenalty caps the total penalty a document can accumulate.
	MaxPenalty float32 = 0.3
)

// PenaltyForVotes derives the score penalty from a vote summary.
//
// The penalty grows linearly with downvotes and saturates at MaxPenalty.
// Upvotes are tracked but deliberately do not offset the penalty; this
// function is the single place to change if that policy ever does.
func PenaltyForVotes(summary core.VoteSummary) float32 {
	if summary.Downvotes <= 0 {
		return 0
	}
	penalty := PenaltyPerDownvote * float32(summary.Downvotes)
	if penalty > MaxPenalty {
		return MaxPenalty
	}
	return penalty
}

// AdjustScore applies a penalty to a base similarity score.
// The result never drops below zero and never exceeds the base.
func AdjustScore(base, penalty float32) float32 {
	adjusted := base - penalty
	if adjusted < 0 {
		return 0
	}
	return adjusted
}
