package feedback

import (
	"context"
	"sort"

	"github.com/textflock/refind/core"
	"github.com/textflock/refind/storage"
)

// Analytics summarizes the accumulated feedback corpus.
type Analytics struct {
	TotalRecords int
	Upvotes      int
	Downvotes    int
	UniqueTexts  int
	TopPenalized []PenalizedText
}

// PenalizedText is one document text ranked by its accumulated penalty.
type PenalizedText struct {
	TextHash  string
	Upvotes   int
	Downvotes int
	Penalty   float32
}

// AnalyzeFeedback aggregates every feedback record in the store into
// per-hash vote counts and the resulting penalties, ranked worst first.
// topN limits the TopPenalized list; topN <= 0 returns all penalized texts.
func AnalyzeFeedback(ctx context.Context, repo storage.FeedbackRepository, topN int) (*Analytics, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	records, err := repo.AllFeedback(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make(map[string]core.VoteSummary)
	analytics := &Analytics{TotalRecords: len(records)}
	for _, record := range records {
		summary := summaries[record.TextHash]
		switch record.Vote {
		case core.VoteUp:
			summary.Upvotes++
			analytics.Upvotes++
		case core.VoteDown:
			summary.Downvotes++
			analytics.Downvotes++
		}
		summaries[record.TextHash] = summary
	}
	analytics.UniqueTexts = len(summaries)

	penalized := make([]PenalizedText, 0, len(summaries))
	for hash, summary := range summaries {
		penalty := PenaltyForVotes(summary)
		if penalty == 0 {
			continue
		}
		penalized = append(penalized, PenalizedText{
			TextHash:  hash,
			Upvotes:   summary.Upvotes,
			Downvotes: summary.Downvotes,
			Penalty:   penalty,
		})
	}
	sort.Slice(penalized, func(i, j int) bool {
		if penalized[i].Penalty != penalized[j].Penalty {
			return penalized[i].Penalty > penalized[j].Penalty
		}
		return penalized[i].TextHash < penalized[j].TextHash
	})
	if topN > 0 && len(penalized) > topN {
		penalized = penalized[:topN]
	}
	analytics.TopPenalized = penalized

	return analytics, nil
}
