package badger

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
//
// The per-source job slot is a persistent key holding the active job's ID.
// Claiming reads the slot and writes it in the same transaction; BadgerDB's
// conflict detection turns a lost claim race into ErrConflict at commit,
// which surfaces as ErrJobActive.
type JobRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) (*JobRepository, error) {
	seq, err := backend.GetSequence(syncJobIDSeq)
	if err != nil {
		return nil, err
	}
	return &JobRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the ID sequence.
func (r *JobRepository) Close() error {
	return r.seq.Release()
}

// ClaimJob atomically claims the source's job slot and creates a pending job
// row. StartedAt is stamped at claim time and refreshed by StartJob, so
// FailStuck can age out jobs that never made it past pending.
func (r *JobRepository) ClaimJob(ctx context.Context, sourceID core.ID) (*core.SyncJob, error) {
	n, err := r.seq.Next()
	if err != nil {
		return nil, err
	}
	job := &core.SyncJob{
		Id:        core.ID(n + 1), // Sequences start at 0; IDs must not be 0
		SourceId:  sourceID,
		Status:    core.JobStatusPending,
		StartedAt: nowUTC(),
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		slotKey := makeJobSlotKey(sourceID)
		if _, err := tx.Get(slotKey); err == nil {
			return storage.ErrJobActive
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := tx.Set(makeSyncJobKey(sourceID, job.Id), storage.MarshalJob(job)); err != nil {
			return err
		}
		if err := tx.Set(slotKey, storage.MarshalID(job.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err == badger.ErrConflict {
		// A concurrent claim won the commit race.
		return nil, storage.ErrJobActive
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// StartJob transitions a pending job to running.
func (r *JobRepository) StartJob(ctx context.Context, job *core.SyncJob) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSyncJobKey(job.SourceId, job.Id)
		current, err := readJob(tx, key)
		if err != nil {
			return err
		}
		if current == nil {
			return storage.ErrNotFound
		}
		if current.Status != core.JobStatusPending {
			return storage.ErrInvalidTransition
		}

		job.Status = core.JobStatusRunning
		job.StartedAt = nowUTC()

		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FinishJob transitions a job to a terminal status, persists its counters and
// releases the job slot.
func (r *JobRepository) FinishJob(ctx context.Context, job *core.SyncJob, status core.JobStatus, errMsg string) error {
	if !status.Terminal() {
		return storage.ErrInvalidTransition
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSyncJobKey(job.SourceId, job.Id)
		current, err := readJob(tx, key)
		if err != nil {
			return err
		}
		if current == nil {
			return storage.ErrNotFound
		}
		if current.Status.Terminal() {
			return storage.ErrInvalidTransition
		}

		job.Status = status
		job.EndedAt = nowUTC()
		job.Error = errMsg

		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		if err := releaseSlot(tx, job.SourceId, job.Id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetJob retrieves one job.
func (r *JobRepository) GetJob(ctx context.Context, sourceID, jobID core.ID) (*core.SyncJob, error) {
	var result *core.SyncJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readJob(tx, makeSyncJobKey(sourceID, jobID))
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

// ListJobs returns a source's job history, newest first.
func (r *JobRepository) ListJobs(ctx context.Context, sourceID core.ID, limit int) ([]*core.SyncJob, error) {
	var results []*core.SyncJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialSyncJobKey(sourceID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var job *core.SyncJob
			err := iter.Item().Value(func(val []byte) error {
				var err error
				job, err = storage.UnmarshalJob(val)
				return err
			})
			if err != nil {
				return err
			}
			if job != nil {
				results = append(results, job)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Job IDs are sequence-assigned, so larger means newer.
	slices.SortFunc(results, func(a, b *core.SyncJob) int {
		if a.Id > b.Id {
			return -1
		}
		if a.Id < b.Id {
			return 1
		}
		return 0
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ActiveJob returns the source's non-terminal job via the slot.
func (r *JobRepository) ActiveJob(ctx context.Context, sourceID core.ID) (*core.SyncJob, error) {
	var result *core.SyncJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		jobID, err := readSlot(tx, sourceID)
		if err != nil {
			return err
		}
		if jobID == 0 {
			return storage.ErrNotFound
		}
		result, err = readJob(tx, makeSyncJobKey(sourceID, jobID))
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

// FailStuck force-fails non-terminal jobs older than maxAge and releases
// their slots. Jobs orphaned by a crashed worker are recovered here.
func (r *JobRepository) FailStuck(ctx context.Context, now time.Time, maxAge time.Duration) ([]*core.SyncJob, error) {
	var failed []*core.SyncJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		slots, err := scanSlots(tx)
		if err != nil {
			return err
		}
		for sourceID, jobID := range slots {
			key := makeSyncJobKey(sourceID, jobID)
			job, err := readJob(tx, key)
			if err != nil {
				return err
			}
			if job == nil || job.Status.Terminal() {
				// Orphaned slot; just release it.
				if err := tx.Delete(makeJobSlotKey(sourceID)); err != nil {
					return err
				}
				continue
			}
			if now.Sub(job.StartedAt) <= maxAge {
				continue
			}

			job.Status = core.JobStatusFailed
			job.EndedAt = now.UTC().Truncate(time.Microsecond)
			job.Error = "job exceeded maximum runtime"

			if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
				return err
			}
			if err := tx.Delete(makeJobSlotKey(sourceID)); err != nil {
				return err
			}
			failed = append(failed, job)
		}
		if len(failed) == 0 {
			return nil
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return failed, nil
}

// DeleteJobsBySource removes a source's job history and slot.
func (r *JobRepository) DeleteJobsBySource(ctx context.Context, sourceID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := scanTrailingIDs(tx, makePartialSyncJobKey(sourceID))
		if err != nil {
			return err
		}
		for _, jobID := range ids {
			if err := tx.Delete(makeSyncJobKey(sourceID, jobID)); err != nil {
				return err
			}
		}
		if err := tx.Delete(makeJobSlotKey(sourceID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// releaseSlot deletes the slot only while it still points at jobID.
func releaseSlot(tx *badger.Txn, sourceID, jobID core.ID) error {
	current, err := readSlot(tx, sourceID)
	if err != nil {
		return err
	}
	if current != jobID {
		return nil
	}
	return tx.Delete(makeJobSlotKey(sourceID))
}

// readSlot reads the job ID held by a source's slot, 0 when vacant.
func readSlot(tx *badger.Txn, sourceID core.ID) (core.ID, error) {
	item, err := tx.Get(makeJobSlotKey(sourceID))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}

	var jobID core.ID
	err = item.Value(func(val []byte) error {
		var err error
		jobID, err = storage.UnmarshalID(val)
		return err
	})
	return jobID, err
}

// scanSlots maps every occupied slot's source ID to its job ID.
func scanSlots(tx *badger.Txn) (map[core.ID]core.ID, error) {
	prefix := []byte(jobSlotPrefix + ":")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	slots := make(map[core.ID]core.ID)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		suffix := strings.TrimPrefix(string(item.Key()), string(prefix))
		raw, err := strconv.ParseUint(suffix, 10, 64)
		if err != nil {
			return nil, err
		}
		var jobID core.ID
		err = item.Value(func(val []byte) error {
			var err error
			jobID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		slots[core.ID(raw)] = jobID
	}
	return slots, nil
}

// readJob reads a sync job from the transaction.
// Returns nil, nil when the key is absent.
func readJob(tx *badger.Txn, key []byte) (*core.SyncJob, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var job *core.SyncJob
	err = item.Value(func(val []byte) error {
		var err error
		job, err = storage.UnmarshalJob(val)
		return err
	})
	return job, err
}
