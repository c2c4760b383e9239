package core

import (
	"time"
)

// ID is a unique identifier for stored documents.
// It is generated from a database sequence at insert time.
type ID uint64

// Category classifies a document by the kind of source it was taken from.
// The set is closed; ranking uses a fixed priority order among categories.
type Category string

const (
	// CategoryScripture is primary scriptural text. Highest priority.
	CategoryScripture Category = "scripture"
	// CategoryTradition is recorded tradition and commentary.
	CategoryTradition Category = "tradition"
	// CategoryRuling is a scholarly ruling or legal opinion.
	CategoryRuling Category = "ruling"
	// CategoryFinancialDuty covers obligatory-giving and financial guidance.
	CategoryFinancialDuty Category = "financial-duty"
	// CategoryOther is general reference material. Lowest priority.
	CategoryOther Category = "other"
)

// Categories lists all valid categories in priority order.
var Categories = []Category{
	CategoryScripture,
	CategoryTradition,
	CategoryRuling,
	CategoryFinancialDuty,
	CategoryOther,
}

// Priority returns the ranking priority of the category.
// Lower values rank first; an unknown category sorts after all known ones.
func (c Category) Priority() int {
	switch c {
	case CategoryScripture:
		return 0
	case CategoryTradition:
		return 1
	case CategoryRuling:
		return 2
	case CategoryFinancialDuty:
		return 3
	case CategoryOther:
		return 4
	default:
		return 5
	}
}

// Valid reports whether the category is a member of the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryScripture, CategoryTradition, CategoryRuling,
		CategoryFinancialDuty, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory converts a string to a Category.
// Returns ErrInvalidCategory for values outside the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Document is a single passage of reference text with its precomputed
// embedding. Documents are written by corpus ingestion and are immutable
// once stored; the engine only reads them.
type Document struct {
	Id         ID
	DocId      string // external identifier assigned by the corpus
	Text       string
	Source     string
	Category   Category
	Title      string
	Vector     []float32 // embedding, fixed dimensionality across the corpus
	Metadata   map[string]string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Vote is the direction of a feedback record.
type Vote int

const (
	// VoteUp marks a result as helpful.
	VoteUp Vote = iota + 1
	// VoteDown marks a result as unhelpful.
	VoteDown
)

// String returns the wire name of the vote.
func (v Vote) String() string {
	switch v {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return "unknown"
	}
}

// ParseVote converts a wire name ("up" or "down") to a Vote.
func ParseVote(s string) (Vote, error) {
	switch s {
	case "up":
		return VoteUp, nil
	case "down":
		return VoteDown, nil
	default:
		return 0, ErrInvalidVote
	}
}

// FeedbackRecord is one community vote on a displayed result.
// Records are append-only: never mutated or deleted. TextHash is the only
// join key back to the document the vote refers to.
type FeedbackRecord struct {
	Id        string // uuid
	TextHash  string
	Query     string
	Vote      Vote
	Submitter string
	Timestamp time.Time
}

// VoteSummary aggregates the feedback log for one content hash.
// It is derived state, recomputable from the records at any time.
type VoteSummary struct {
	Upvotes   int
	Downvotes int
}

// SearchResult is a ranked document with its adjusted score.
type SearchResult struct {
	Document *Document
	Score    float32
	Rank     int
}

// CategoryStats holds per-category corpus figures.
type CategoryStats struct {
	Count         int
	AvgTextLength int
}

// CorpusStats summarizes the stored corpus.
type CorpusStats struct {
	TotalDocuments int
	Categories     map[Category]CategoryStats
}
