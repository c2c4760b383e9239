package storage

import (
	"context"

	"github.com/textflock/refind/core"
)

// DocumentRepository provides read access to the corpus plus the write path
// used to populate it. Implementations must be thread-safe and support
// concurrent access.
type DocumentRepository interface {
	// AddDocuments stores one or more documents.
	// For documents with ID=0, generates new IDs from sequence.
	// Sets InsertedAt and UpdatedAt timestamps.
	// Returns the documents with generated IDs populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// CandidateDocuments returns every stored document that qualifies for
	// retrieval: non-empty text and an embedding present. A nil category
	// returns candidates from all categories. The scan is complete; there
	// is deliberately no cap on the candidate count.
	CandidateDocuments(ctx context.Context, category *core.Category) ([]*core.Document, error)

	// Stats summarizes the stored corpus by category.
	Stats(ctx context.Context) (*core.CorpusStats, error)

	// Close releases resources held by the repository.
	Close() error
}

// FeedbackRepository is the durable primary store for the append-only
// feedback log. Records are never updated or deleted, so implementations
// need no cross-record locking; each append only has to be individually
// atomic.
type FeedbackRepository interface {
	// AppendFeedback appends one or more feedback records.
	// Records must already carry their Id, TextHash and Timestamp.
	AppendFeedback(ctx context.Context, records ...*core.FeedbackRecord) error

	// VoteSummary aggregates up/down counts for one content hash.
	// A hash with no feedback yields a zero summary, not an error.
	VoteSummary(ctx context.Context, textHash string) (core.VoteSummary, error)

	// FeedbackByHash returns the most recent records for a content hash,
	// newest first, up to limit (limit <= 0 means no limit).
	FeedbackByHash(ctx context.Context, textHash string, limit int) ([]*core.FeedbackRecord, error)

	// AllFeedback returns every stored record. Used by offline
	// reconciliation and analytics, never on the query path.
	AllFeedback(ctx context.Context) ([]*core.FeedbackRecord, error)

	// Close releases resources held by the repository.
	Close() error
}

// DenylistRepository stores the administrator-curated blocked phrases.
type DenylistRepository interface {
	// AddPhrase stores a phrase. Adding an existing phrase is a no-op.
	AddPhrase(ctx context.Context, phrase string) error

	// RemovePhrase deletes a phrase, matched case-insensitively.
	// Returns true if a phrase was removed.
	RemovePhrase(ctx context.Context, phrase string) (bool, error)

	// Phrases returns all stored phrases.
	Phrases(ctx context.Context) ([]string, error)

	// Close releases resources held by the repository.
	Close() error
}
