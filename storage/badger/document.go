package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// AddDocuments stores one or more documents.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if doc.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				doc.Id = core.ID(nextID)
			}

			doc.InsertedAt = time.Now().UTC()
			doc.UpdatedAt = doc.InsertedAt

			key := makeDocumentKey(doc.Id)
			value := storage.MarshalDocument(doc)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CandidateDocuments returns every document that qualifies for retrieval.
// The scan covers the full corpus with no count cap: truncating here would
// silently exclude valid matches before scoring ever sees them.
func (r *DocumentRepository) CandidateDocuments(ctx context.Context, category *core.Category) ([]*core.Document, error) {
	var docs []*core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seqKey := []byte(documentIDSeq)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if bytes.Equal(item.Key(), seqKey) {
				continue
			}

			var doc *core.Document
			err := item.Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}

			// Only rows with usable text and an embedding qualify.
			if doc.Text == "" || len(doc.Vector) == 0 {
				continue
			}
			if category != nil && doc.Category != *category {
				continue
			}

			docs = append(docs, doc)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Stats summarizes the stored corpus by category.
func (r *DocumentRepository) Stats(ctx context.Context) (*core.CorpusStats, error) {
	counts := make(map[core.Category]int)
	lengths := make(map[core.Category]int)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seqKey := []byte(documentIDSeq)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if bytes.Equal(item.Key(), seqKey) {
				continue
			}

			var doc *core.Document
			err := item.Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil || doc.Text == "" {
				continue
			}
			counts[doc.Category]++
			lengths[doc.Category] += len(doc.Text)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	stats := &core.CorpusStats{
		Categories: make(map[core.Category]core.CategoryStats, len(counts)),
	}
	for category, count := range counts {
		stats.TotalDocuments += count
		stats.Categories[category] = core.CategoryStats{
			Count:         count,
			AvgTextLength: lengths[category] / count,
		}
	}
	return stats, nil
}
