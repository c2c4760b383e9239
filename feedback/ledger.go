package feedback

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/storage"
)

// Ledger records community feedback and derives score penalties from it.
//
// Every record is dual-written: to the durable primary repository and to an
// append-only backup log. The two sinks are not transactionally linked; the
// backup is best effort and is reconciled only by the explicit offline
// Reconciler, never implicitly at query time.
type Ledger struct {
	primary storage.FeedbackRepository
	backup  *BackupLog
	logger  *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithBackup sets the append-only backup log.
// Default is no backup.
func WithBackup(backup *BackupLog) Option {
	return func(l *Ledger) error {
		l.backup = backup
		return nil
	}
}

// NewLedger creates a new feedback ledger over the primary repository.
func NewLedger(primary storage.FeedbackRepository, opts ...Option) (*Ledger, error) {
	if primary == nil {
		return nil, ErrRepositoryRequired
	}

	l := &Ledger{
		primary: primary,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Record appends one vote on a displayed document.
//
// Votes are not deduplicated by submitter: identical repeated votes simply
// accumulate. The record is appended to the primary store and, best effort,
// to the backup log; a backup failure is logged but does not fail the call.
func (l *Ledger) Record(ctx context.Context, query, documentText string, vote core.Vote, submitter string) (*core.FeedbackRecord, error) {
	if err := core.ValidateVote(vote); err != nil {
		return nil, err
	}

	textHash := core.HashText(documentText)
	if textHash == "" {
		return nil, core.ErrEmptyTextHash
	}

	if submitter == "" {
		submitter = "anonymous"
	}

	record := &core.FeedbackRecord{
		Id:        uuid.NewString(),
		TextHash:  textHash,
		Query:     query,
		Vote:      vote,
		Submitter: submitter,
		Timestamp: time.Now().UTC(),
	}

	if err := l.primary.AppendFeedback(ctx, record); err != nil {
		return nil, err
	}

	if l.backup != nil {
		if err := l.backup.Append(record); err != nil {
			l.logger.Error("failed to append feedback to backup log", "recordId", record.Id, "err", err)
		}
	}

	return record, nil
}

// Penalty returns the accumulated penalty for a content hash.
// Storage errors degrade to a zero penalty so a feedback outage can never
// take down retrieval; the error is logged.
func (l *Ledger) Penalty(ctx context.Context, textHash string) float32 {
	if textHash == "" {
		return 0
	}

	summary, err := l.primary.VoteSummary(ctx, textHash)
	if err != nil {
		l.logger.Error("failed to aggregate feedback, using zero penalty", "textHash", textHash, "err", err)
		return 0
	}

	return PenaltyForVotes(summary)
}

// AdjustedScore subtracts the document's accumulated penalty from a base
// similarity score. The result stays within [0, base].
func (l *Ledger) AdjustedScore(ctx context.Context, base float32, documentText string) float32 {
	if documentText == "" {
		return base
	}
	return AdjustScore(base, l.Penalty(ctx, core.HashText(documentText)))
}

// VoteSummary returns the aggregate votes for a content hash.
func (l *Ledger) VoteSummary(ctx context.Context, textHash string) (core.VoteSummary, error) {
	return l.primary.VoteSummary(ctx, textHash)
}

// History returns the most recent feedback records for a document text.
func (l *Ledger) History(ctx context.Context, documentText string, limit int) ([]*core.FeedbackRecord, error) {
	return l.primary.FeedbackByHash(ctx, core.HashText(documentText), limit)
}
