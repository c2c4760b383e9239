package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocument(t *testing.T) {
	valid := &Document{
		DocId:    "quran-2-110",
		Text:     "And establish prayer and give charity.",
		Source:   "Quran 2:110",
		Category: CategoryScripture,
	}

	t.Run("valid document", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(valid))
	})

	t.Run("nil document", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)
	})

	t.Run("empty text", func(t *testing.T) {
		doc := *valid
		doc.Text = ""
		err := ValidateDocument(&doc)
		assert.ErrorIs(t, err, ErrInvalidDocument)
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("unknown category", func(t *testing.T) {
		doc := *valid
		doc.Category = "almanac"
		err := ValidateDocument(&doc)
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("missing vector is allowed", func(t *testing.T) {
		doc := *valid
		doc.Vector = nil
		assert.NoError(t, ValidateDocument(&doc))
	})
}

func TestValidateFeedbackRecord(t *testing.T) {
	valid := &FeedbackRecord{
		Id:        "b2d8f9d4-0000-4000-8000-000000000000",
		TextHash:  HashText("some passage"),
		Query:     "how to give charity",
		Vote:      VoteDown,
		Submitter: "user@example.com",
		Timestamp: time.Now().UTC(),
	}

	t.Run("valid record", func(t *testing.T) {
		assert.NoError(t, ValidateFeedbackRecord(valid))
	})

	t.Run("nil record", func(t *testing.T) {
		assert.ErrorIs(t, ValidateFeedbackRecord(nil), ErrInvalidFeedbackRecord)
	})

	t.Run("missing hash", func(t *testing.T) {
		rec := *valid
		rec.TextHash = ""
		err := ValidateFeedbackRecord(&rec)
		assert.ErrorIs(t, err, ErrEmptyTextHash)
	})

	t.Run("invalid vote", func(t *testing.T) {
		rec := *valid
		rec.Vote = 0
		err := ValidateFeedbackRecord(&rec)
		assert.ErrorIs(t, err, ErrInvalidVote)
	})
}
