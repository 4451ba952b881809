package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

// TagRepository implements storage.TagRepository for BadgerDB.
type TagRepository struct {
	backend *Backend
}

var _ storage.TagRepository = (*TagRepository)(nil)

// NewTagRepository creates a new TagRepository.
func NewTagRepository(backend *Backend) (*TagRepository, error) {
	return &TagRepository{
		backend: backend,
	}, nil
}

// Close releases resources. TagRepository has no resources to release.
func (r *TagRepository) Close() error {
	return nil
}

// GetOrCreateTag finds or creates a tag by its unique name. Tag identity is
// derived from the name, so concurrent creators converge on the same row.
func (r *TagRepository) GetOrCreateTag(ctx context.Context, name string) (*core.Tag, error) {
	if name == "" {
		return nil, core.ErrEmptyTagName
	}

	var result *core.Tag
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id := core.TagID(name)
		key := makeTagKey(id)
		existing, err := readTag(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		now := nowUTC()
		result = &core.Tag{
			Id:         id,
			Name:       name,
			InsertedAt: now,
			UpdatedAt:  now,
		}
		if err := tx.Set(key, storage.MarshalTag(result)); err != nil {
			return err
		}
		if err := tx.Set(makeTagNameKey(name), storage.MarshalID(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err == badger.ErrConflict {
		// A concurrent creator won; the row now exists.
		return r.FindTagByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetTag retrieves a tag by ID.
func (r *TagRepository) GetTag(ctx context.Context, id core.ID) (*core.Tag, error) {
	var result *core.Tag
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readTag(tx, makeTagKey(id))
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

// FindTagByName retrieves a tag by its unique name.
func (r *TagRepository) FindTagByName(ctx context.Context, name string) (*core.Tag, error) {
	return r.GetTag(ctx, core.TagID(name))
}

// ListTags retrieves all tags.
func (r *TagRepository) ListTags(ctx context.Context) ([]*core.Tag, error) {
	var results []*core.Tag
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(tagRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var tag *core.Tag
			err := iter.Item().Value(func(val []byte) error {
				var err error
				tag, err = storage.UnmarshalTag(val)
				return err
			})
			if err != nil {
				return err
			}
			if tag != nil {
				results = append(results, tag)
			}
		}
		return nil
	}, false)
	return results, err
}

// UpdateTag updates a tag's display fields. The name is identity and cannot
// change; renames are a delete plus a create.
func (r *TagRepository) UpdateTag(ctx context.Context, tag *core.Tag) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTagKey(tag.Id)
		old, err := readTag(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		tag.Name = old.Name
		tag.InsertedAt = old.InsertedAt
		tag.UpdatedAt = nowUTC()

		if err := tx.Set(key, storage.MarshalTag(tag)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteTag removes a tag and every association referencing it, from both
// sides of the association index.
func (r *TagRepository) DeleteTag(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTagKey(id)
		tag, err := readTag(tx, key)
		if err != nil {
			return err
		}
		if tag == nil {
			return storage.ErrNotFound
		}

		itemIDs, err := scanTrailingIDs(tx, makePartialTagItemKey(id))
		if err != nil {
			return err
		}
		for _, itemID := range itemIDs {
			if err := tx.Delete(makeItemTagKey(itemID, id)); err != nil {
				return err
			}
			if err := tx.Delete(makeTagItemKey(id, itemID)); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeTagNameKey(tag.Name)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpsertAssociation merges an association. A new (item, tag) pair is inserted
// with the clamped confidence; an existing pair keeps the maximum of the
// stored and candidate scores, so confidence never regresses.
func (r *TagRepository) UpsertAssociation(ctx context.Context, itemID, tagID core.ID, confidence float64) (*core.TagAssociation, error) {
	confidence = core.ClampConfidence(confidence)

	var result *core.TagAssociation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeItemTagKey(itemID, tagID)
		existing, err := readAssociation(tx, key)
		if err != nil {
			return err
		}
		if existing != nil && existing.Confidence >= confidence {
			result = existing
			return nil
		}

		result = &core.TagAssociation{
			ItemId:     itemID,
			TagId:      tagID,
			Confidence: confidence,
			AssignedAt: nowUTC(),
		}
		if existing != nil {
			result.AssignedAt = existing.AssignedAt
		}

		value := storage.MarshalAssociation(result)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeTagItemKey(tagID, itemID), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetAssociations returns an item's tag associations.
func (r *TagRepository) GetAssociations(ctx context.Context, itemID core.ID) ([]*core.TagAssociation, error) {
	var results []*core.TagAssociation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialItemTagKey(itemID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var assoc *core.TagAssociation
			err := iter.Item().Value(func(val []byte) error {
				var err error
				assoc, err = storage.UnmarshalAssociation(val)
				return err
			})
			if err != nil {
				return err
			}
			if assoc != nil {
				results = append(results, assoc)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetItemsByTag returns IDs of items carrying a tag.
func (r *TagRepository) GetItemsByTag(ctx context.Context, tagID core.ID) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		ids, err = scanTrailingIDs(tx, makePartialTagItemKey(tagID))
		return err
	}, false)
	return ids, err
}

// DeleteAssociationsByItem removes every association of an item, from both
// sides of the association index.
func (r *TagRepository) DeleteAssociationsByItem(ctx context.Context, itemID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		tagIDs, err := scanTrailingIDs(tx, makePartialItemTagKey(itemID))
		if err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if err := tx.Delete(makeItemTagKey(itemID, tagID)); err != nil {
				return err
			}
			if err := tx.Delete(makeTagItemKey(tagID, itemID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readTag reads a tag from the transaction.
// Returns nil, nil when the key is absent.
func readTag(tx *badger.Txn, key []byte) (*core.Tag, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var tag *core.Tag
	err = item.Value(func(val []byte) error {
		var err error
		tag, err = storage.UnmarshalTag(val)
		return err
	})
	return tag, err
}

// readAssociation reads a tag association from the transaction.
// Returns nil, nil when the key is absent.
func readAssociation(tx *badger.Txn, key []byte) (*core.TagAssociation, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var assoc *core.TagAssociation
	err = item.Value(func(val []byte) error {
		var err error
		assoc, err = storage.UnmarshalAssociation(val)
		return err
	})
	return assoc, err
}
