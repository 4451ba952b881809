package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

// SourceRepository implements storage.SourceRepository for BadgerDB.
type SourceRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(backend *Backend) (*SourceRepository, error) {
	seq, err := backend.GetSequence(sourceIDSeq)
	if err != nil {
		return nil, err
	}
	return &SourceRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the ID sequence.
func (r *SourceRepository) Close() error {
	return r.seq.Release()
}

// AddSource persists a new source, assigning a sequence ID and timestamps.
func (r *SourceRepository) AddSource(ctx context.Context, source *core.KnowledgeSource) (*core.KnowledgeSource, error) {
	if source.Id == 0 {
		n, err := r.seq.Next()
		if err != nil {
			return nil, err
		}
		source.Id = core.ID(n + 1) // Sequences start at 0; IDs must not be 0
	}

	source.InsertedAt = nowUTC()
	source.UpdatedAt = source.InsertedAt

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceKey(source.Id)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := tx.Set(key, storage.MarshalSource(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// UpdateSource updates an existing source and bumps UpdatedAt.
func (r *SourceRepository) UpdateSource(ctx context.Context, source *core.KnowledgeSource) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceKey(source.Id)
		old, err := readSource(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		source.InsertedAt = old.InsertedAt
		source.UpdatedAt = nowUTC()

		if err := tx.Set(key, storage.MarshalSource(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteSource removes a source record. Owned records are cascaded by the
// caller via their repositories.
func (r *SourceRepository) DeleteSource(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceKey(id)
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSource retrieves a source by ID.
func (r *SourceRepository) GetSource(ctx context.Context, id core.ID) (*core.KnowledgeSource, error) {
	var result *core.KnowledgeSource
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSource(tx, makeSourceKey(id))
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

// ListSources retrieves all sources.
func (r *SourceRepository) ListSources(ctx context.Context) ([]*core.KnowledgeSource, error) {
	var results []*core.KnowledgeSource
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sourceRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var source *core.KnowledgeSource
			err := iter.Item().Value(func(val []byte) error {
				var err error
				source, err = storage.UnmarshalSource(val)
				return err
			})
			if err != nil {
				return err
			}
			if source != nil {
				results = append(results, source)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListDue returns active sources whose interval has elapsed since their last
// successful sync, most overdue first.
func (r *SourceRepository) ListDue(ctx context.Context, now time.Time) ([]*core.KnowledgeSource, error) {
	sources, err := r.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	due := sources[:0]
	for _, s := range sources {
		if s.Due(now) {
			due = append(due, s)
		}
	}

	slices.SortFunc(due, func(a, b *core.KnowledgeSource) int {
		ao, bo := a.Overdue(now), b.Overdue(now)
		if ao > bo {
			return -1
		}
		if ao < bo {
			return 1
		}
		return 0
	})
	return due, nil
}

// MarkSynced records a successful sync time.
func (r *SourceRepository) MarkSynced(ctx context.Context, id core.ID, at time.Time) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceKey(id)
		source, err := readSource(tx, key)
		if err != nil {
			return err
		}
		if source == nil {
			return storage.ErrNotFound
		}

		source.LastSync = at.UTC().Truncate(time.Microsecond)
		source.UpdatedAt = nowUTC()

		if err := tx.Set(key, storage.MarshalSource(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readSource reads a source from the transaction.
// Returns nil, nil when the key is absent.
func readSource(tx *badger.Txn, key []byte) (*core.KnowledgeSource, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var source *core.KnowledgeSource
	err = item.Value(func(val []byte) error {
		var err error
		source, err = storage.UnmarshalSource(val)
		return err
	})
	return source, err
}
