package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/storage"
)

// FeedbackRepository implements storage.FeedbackRepository for BadgerDB.
//
// Records are stored under hash-prefixed keys and never rewritten, so
// concurrent appends only rely on BadgerDB's per-transaction atomicity.
type FeedbackRepository struct {
	backend *Backend
}

var _ storage.FeedbackRepository = (*FeedbackRepository)(nil)

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(backend *Backend) *FeedbackRepository {
	return &FeedbackRepository{backend: backend}
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *FeedbackRepository) Close() error {
	return nil
}

// AppendFeedback appends one or more feedback records.
func (r *FeedbackRepository) AppendFeedback(ctx context.Context, records ...*core.FeedbackRecord) error {
	for _, record := range records {
		if err := core.ValidateFeedbackRecord(record); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeFeedbackKey(record.TextHash, record.Id)
			if err := tx.Set(key, storage.MarshalFeedbackRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// VoteSummary aggregates up/down counts for one content hash.
func (r *FeedbackRepository) VoteSummary(ctx context.Context, textHash string) (core.VoteSummary, error) {
	var summary core.VoteSummary
	if textHash == "" {
		return summary, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialFeedbackKey(textHash)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalFeedbackRecord(val)
				if err != nil {
					return err
				}
				switch record.Vote {
				case core.VoteUp:
					summary.Upvotes++
				case core.VoteDown:
					summary.Downvotes++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return summary, err
}

// FeedbackByHash returns records for one content hash, newest first.
func (r *FeedbackRepository) FeedbackByHash(ctx context.Context, textHash string, limit int) ([]*core.FeedbackRecord, error) {
	records, err := r.scan(makePartialFeedbackKey(textHash))
	if err != nil {
		return nil, err
	}

	slices.SortFunc(records, func(a, b *core.FeedbackRecord) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// AllFeedback returns every stored record.
func (r *FeedbackRepository) AllFeedback(ctx context.Context) ([]*core.FeedbackRecord, error) {
	return r.scan([]byte(feedbackPrefix + ":"))
}

func (r *FeedbackRepository) scan(prefix []byte) ([]*core.FeedbackRecord, error) {
	var records []*core.FeedbackRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalFeedbackRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return records, nil
}
