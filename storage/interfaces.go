package storage

import (
	"context"
	"time"

	"github.com/lodeworks/lodestone/core"
)

// UpsertOutcome reports how an item upsert resolved.
type UpsertOutcome int

const (
	// UpsertCreated means no item existed for (source id, ref).
	UpsertCreated UpsertOutcome = iota + 1
	// UpsertUpdated means the item existed and its content changed.
	UpsertUpdated
	// UpsertUnchanged means the item existed with identical content.
	UpsertUnchanged
)

// SourceRepository provides operations for managing knowledge sources.
// Implementations must be thread-safe.
type SourceRepository interface {
	// AddSource persists a new source, assigning a sequence ID and
	// timestamps. The source must already be validated.
	AddSource(ctx context.Context, source *core.KnowledgeSource) (*core.KnowledgeSource, error)

	// UpdateSource updates an existing source and bumps UpdatedAt.
	// Returns ErrNotFound if the source doesn't exist.
	UpdateSource(ctx context.Context, source *core.KnowledgeSource) error

	// DeleteSource removes a source. Returns ErrNotFound if absent.
	// Owned records (items, jobs, checkpoint) are cascaded by the caller
	// via their repositories.
	DeleteSource(ctx context.Context, id core.ID) error

	// GetSource retrieves a source by ID. Returns ErrNotFound if absent.
	GetSource(ctx context.Context, id core.ID) (*core.KnowledgeSource, error)

	// ListSources retrieves all sources.
	ListSources(ctx context.Context) ([]*core.KnowledgeSource, error)

	// ListDue returns active sources whose interval has elapsed since their
	// last successful sync, most overdue first.
	ListDue(ctx context.Context, now time.Time) ([]*core.KnowledgeSource, error)

	// MarkSynced records a successful sync time. Called only when a job
	// completes.
	MarkSynced(ctx context.Context, id core.ID, at time.Time) error

	// Close releases repository resources.
	Close() error
}

// ItemRepository provides operations for canonical knowledge items and the
// derived token index.
type ItemRepository interface {
	// UpsertItem reconciles an item against the store by its content-derived
	// identity. Creates when absent, updates when content differs, skips when
	// identical. The item row and its token index entries are written in one
	// transaction. A losing concurrent create is retried internally and
	// resolves as an update; callers never observe the race.
	UpsertItem(ctx context.Context, item *core.KnowledgeItem) (UpsertOutcome, error)

	// GetItem retrieves an item by ID. Returns ErrNotFound if absent.
	GetItem(ctx context.Context, id core.ID) (*core.KnowledgeItem, error)

	// GetItems retrieves multiple items by ID, skipping missing ones.
	GetItems(ctx context.Context, ids ...core.ID) ([]*core.KnowledgeItem, error)

	// GetItemByRef retrieves an item by its dedup key.
	GetItemByRef(ctx context.Context, sourceID core.ID, ref string) (*core.KnowledgeItem, error)

	// ListItemsBySource retrieves all items owned by a source.
	ListItemsBySource(ctx context.Context, sourceID core.ID) ([]*core.KnowledgeItem, error)

	// DeleteItem removes an item, its index postings, its per-source
	// index entry and its tag associations. Returns ErrNotFound if absent.
	DeleteItem(ctx context.Context, id core.ID) error

	// DeleteItemsBySource removes every item owned by a source and returns
	// how many were deleted.
	DeleteItemsBySource(ctx context.Context, sourceID core.ID) (int, error)

	// SetItemStatus flips an item's lifecycle status. Archived items are
	// excluded from search results.
	SetItemStatus(ctx context.Context, id core.ID, status core.ItemStatus) error

	// LookupToken returns the global index entries for a token: every item
	// containing it, each with its accumulated weighted zone score.
	LookupToken(ctx context.Context, token string) ([]core.TokenScore, error)

	// Close releases repository resources.
	Close() error
}

// JobRepository provides operations for sync job rows and the per-source
// job slot.
type JobRepository interface {
	// ClaimJob atomically claims the source's job slot and creates a pending
	// job row in the same transaction. Returns ErrJobActive when another
	// non-terminal job holds the slot, including when a concurrent claim wins
	// the commit race.
	ClaimJob(ctx context.Context, sourceID core.ID) (*core.SyncJob, error)

	// StartJob transitions a pending job to running and stamps StartedAt.
	StartJob(ctx context.Context, job *core.SyncJob) error

	// FinishJob transitions a running (or pending) job to the given terminal
	// status, stamps EndedAt, persists counters and error message, and
	// releases the job slot. Returns ErrInvalidTransition if the job is
	// already terminal or the status is not terminal.
	FinishJob(ctx context.Context, job *core.SyncJob, status core.JobStatus, errMsg string) error

	// GetJob retrieves one job. Returns ErrNotFound if absent.
	GetJob(ctx context.Context, sourceID, jobID core.ID) (*core.SyncJob, error)

	// ListJobs returns a source's job history, newest first, up to limit
	// (0 means no limit).
	ListJobs(ctx context.Context, sourceID core.ID, limit int) ([]*core.SyncJob, error)

	// ActiveJob returns the source's non-terminal job, or ErrNotFound.
	ActiveJob(ctx context.Context, sourceID core.ID) (*core.SyncJob, error)

	// FailStuck force-fails running jobs started more than maxAge before
	// now, releasing their slots. Returns the jobs it failed.
	FailStuck(ctx context.Context, now time.Time, maxAge time.Duration) ([]*core.SyncJob, error)

	// DeleteJobsBySource removes a source's job history and slot.
	DeleteJobsBySource(ctx context.Context, sourceID core.ID) error

	// Close releases repository resources.
	Close() error
}

// TagRepository provides operations for tags and item/tag associations.
type TagRepository interface {
	// GetOrCreateTag finds or creates a tag by its unique name.
	// Thread-safe: handles concurrent creation attempts.
	GetOrCreateTag(ctx context.Context, name string) (*core.Tag, error)

	// GetTag retrieves a tag by ID. Returns ErrNotFound if absent.
	GetTag(ctx context.Context, id core.ID) (*core.Tag, error)

	// FindTagByName retrieves a tag by name. Returns ErrNotFound if absent.
	FindTagByName(ctx context.Context, name string) (*core.Tag, error)

	// ListTags retrieves all tags.
	ListTags(ctx context.Context) ([]*core.Tag, error)

	// UpdateTag updates a tag's display fields. Returns ErrNotFound if absent.
	UpdateTag(ctx context.Context, tag *core.Tag) error

	// DeleteTag removes a tag and every association referencing it.
	DeleteTag(ctx context.Context, id core.ID) error

	// UpsertAssociation merges an association: a new (item, tag) pair is
	// inserted with the clamped confidence; an existing pair keeps
	// max(existing, candidate). Confidence never regresses.
	UpsertAssociation(ctx context.Context, itemID, tagID core.ID, confidence float64) (*core.TagAssociation, error)

	// GetAssociations returns an item's tag associations.
	GetAssociations(ctx context.Context, itemID core.ID) ([]*core.TagAssociation, error)

	// GetItemsByTag returns IDs of items carrying a tag.
	GetItemsByTag(ctx context.Context, tagID core.ID) ([]core.ID, error)

	// DeleteAssociationsByItem removes every association of an item.
	DeleteAssociationsByItem(ctx context.Context, itemID core.ID) error

	// Close releases repository resources.
	Close() error
}

// CheckpointRepository persists per-source ingestion cursors.
// A cursor is advanced only when its source's sync job completes.
type CheckpointRepository interface {
	// SaveCheckpoint persists a source's checkpoint.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves a source's checkpoint.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, sourceID core.ID) (*core.Checkpoint, error)

	// DeleteCheckpoint removes a source's checkpoint.
	DeleteCheckpoint(ctx context.Context, sourceID core.ID) error
}
