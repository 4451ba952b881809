package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

// upsertRetries bounds commit-conflict retries on concurrent upserts of the
// same (source id, ref) pair. The loser re-reads and degrades to an update.
const upsertRetries = 3

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) (*ItemRepository, error) {
	return &ItemRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ItemRepository has no resources to release.
func (r *ItemRepository) Close() error {
	return nil
}

// UpsertItem reconciles an item against the store by its content-derived
// identity. The item row, its per-source index entry and its token index
// entries are written in one transaction, so readers never observe a
// half-indexed item.
func (r *ItemRepository) UpsertItem(ctx context.Context, item *core.KnowledgeItem) (storage.UpsertOutcome, error) {
	if item.Id == 0 {
		item.Id = core.ItemID(item.SourceId, item.Ref)
	}
	if item.Status == 0 {
		item.Status = core.ItemStatusActive
	}

	var outcome storage.UpsertOutcome
	var err error
	for attempt := 0; attempt <= upsertRetries; attempt++ {
		outcome, err = r.upsertOnce(item)
		if err != badger.ErrConflict {
			break
		}
	}
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

func (r *ItemRepository) upsertOnce(item *core.KnowledgeItem) (storage.UpsertOutcome, error) {
	var outcome storage.UpsertOutcome
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeItemKey(item.Id)
		old, err := readItem(tx, key)
		if err != nil {
			return err
		}

		now := nowUTC()
		switch {
		case old == nil:
			outcome = storage.UpsertCreated
			item.InsertedAt = now
			item.UpdatedAt = now
		case old.ContentEquals(item):
			// Identical content: nothing to write, nothing to commit.
			outcome = storage.UpsertUnchanged
			item.Status = old.Status
			item.InsertedAt = old.InsertedAt
			item.UpdatedAt = old.UpdatedAt
			return nil
		default:
			outcome = storage.UpsertUpdated
			item.Status = old.Status
			item.InsertedAt = old.InsertedAt
			item.UpdatedAt = now
			// Remove token entries the new index no longer carries.
			scores := core.TokenScores(item.Index)
			for token := range core.TokenScores(old.Index) {
				if _, ok := scores[token]; !ok {
					if err := tx.Delete(makeItemTokenKey(token, item.Id)); err != nil {
						return err
					}
				}
			}
		}

		if err := tx.Set(key, storage.MarshalItem(item)); err != nil {
			return err
		}
		if err := tx.Set(makeItemSourceKey(item.SourceId, item.Id), storage.MarshalID(item.Id)); err != nil {
			return err
		}
		for token, score := range core.TokenScores(item.Index) {
			entry := storage.MarshalTokenScore(core.TokenScore{ItemId: item.Id, Score: score})
			if err := tx.Set(makeItemTokenKey(token, item.Id), entry); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return outcome, err
}

// GetItem retrieves an item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ID) (*core.KnowledgeItem, error) {
	var result *core.KnowledgeItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readItem(tx, makeItemKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetItems retrieves multiple items by their IDs, skipping missing ones.
func (r *ItemRepository) GetItems(ctx context.Context, ids ...core.ID) ([]*core.KnowledgeItem, error) {
	var results []*core.KnowledgeItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := readItem(tx, makeItemKey(id))
			if err != nil {
				return err
			}
			if item != nil {
				results = append(results, item)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetItemByRef retrieves an item by its dedup key. Identity is derived from
// the pair, so this is a single point lookup.
func (r *ItemRepository) GetItemByRef(ctx context.Context, sourceID core.ID, ref string) (*core.KnowledgeItem, error) {
	return r.GetItem(ctx, core.ItemID(sourceID, ref))
}

// ListItemsBySource retrieves all items owned by a source.
func (r *ItemRepository) ListItemsBySource(ctx context.Context, sourceID core.ID) ([]*core.KnowledgeItem, error) {
	var results []*core.KnowledgeItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := scanTrailingIDs(tx, makePartialItemSourceKey(sourceID))
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, err := readItem(tx, makeItemKey(id))
			if err != nil {
				return err
			}
			if item != nil {
				results = append(results, item)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteItem removes an item, its token index entries, its per-source index
// entry and its tag associations.
func (r *ItemRepository) DeleteItem(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteItemInTx(tx, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteItemsBySource removes every item owned by a source.
func (r *ItemRepository) DeleteItemsBySource(ctx context.Context, sourceID core.ID) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := scanTrailingIDs(tx, makePartialItemSourceKey(sourceID))
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := deleteItemInTx(tx, id); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// SetItemStatus flips an item's lifecycle status.
func (r *ItemRepository) SetItemStatus(ctx context.Context, id core.ID, status core.ItemStatus) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeItemKey(id)
		item, err := readItem(tx, key)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}
		if item.Status == status {
			return nil
		}

		item.Status = status
		item.UpdatedAt = nowUTC()

		if err := tx.Set(key, storage.MarshalItem(item)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LookupToken returns the global index entries for a token.
func (r *ItemRepository) LookupToken(ctx context.Context, token string) ([]core.TokenScore, error) {
	var results []core.TokenScore
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialItemTokenKey(token)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var score core.TokenScore
			err := iter.Item().Value(func(val []byte) error {
				var err error
				score, err = storage.UnmarshalTokenScore(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, score)
		}
		return nil
	}, false)
	return results, err
}

// deleteItemInTx removes an item row, its index entries and its tag
// associations (both sides) inside tx.
func deleteItemInTx(tx *badger.Txn, id core.ID) error {
	key := makeItemKey(id)
	item, err := readItem(tx, key)
	if err != nil {
		return err
	}
	if item == nil {
		return storage.ErrNotFound
	}

	for token := range core.TokenScores(item.Index) {
		if err := tx.Delete(makeItemTokenKey(token, id)); err != nil {
			return err
		}
	}

	tagIDs, err := scanTrailingIDs(tx, makePartialItemTagKey(id))
	if err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if err := tx.Delete(makeItemTagKey(id, tagID)); err != nil {
			return err
		}
		if err := tx.Delete(makeTagItemKey(tagID, id)); err != nil {
			return err
		}
	}

	if err := tx.Delete(makeItemSourceKey(item.SourceId, id)); err != nil {
		return err
	}
	return tx.Delete(key)
}

// scanTrailingIDs collects the trailing ID of every key under the prefix.
// Used for composite index scans where the value duplicates the key suffix.
func scanTrailingIDs(tx *badger.Txn, prefix []byte) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		ids = append(ids, trailingID(iter.Item().Key()))
	}
	return ids, nil
}

// readItem reads an item from the transaction.
// Returns nil, nil when the key is absent.
func readItem(tx *badger.Txn, key []byte) (*core.KnowledgeItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.KnowledgeItem
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalItem(val)
		return err
	})
	return record, err
}
