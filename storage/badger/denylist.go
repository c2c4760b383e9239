package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/storage"
)

// DenylistRepository implements storage.DenylistRepository for BadgerDB.
type DenylistRepository struct {
	backend *Backend
}

var _ storage.DenylistRepository = (*DenylistRepository)(nil)

// NewDenylistRepository creates a new DenylistRepository.
func NewDenylistRepository(backend *Backend) *DenylistRepository {
	return &DenylistRepository{backend: backend}
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *DenylistRepository) Close() error {
	return nil
}

// AddPhrase stores a phrase. Adding an existing phrase overwrites it, which
// is indistinguishable from a no-op for membership checks.
func (r *DenylistRepository) AddPhrase(ctx context.Context, phrase string) error {
	trimmed := core.NormalizeText(phrase)
	if trimmed == "" {
		return storage.ErrEmptyPhrase
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDenyKey(trimmed), []byte(trimmed)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// RemovePhrase deletes a phrase, matched case-insensitively.
func (r *DenylistRepository) RemovePhrase(ctx context.Context, phrase string) (bool, error) {
	key := makeDenyKey(core.NormalizeText(phrase))
	removed := false

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		removed = true
		return tx.Commit()
	}, true)

	return removed, err
}

// Phrases returns all stored phrases.
func (r *DenylistRepository) Phrases(ctx context.Context) ([]string, error) {
	var phrases []string

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(denyPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				phrases = append(phrases, string(val))
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
	return phrases, nil
}
