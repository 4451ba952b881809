package connector

import (
	"context"

	"github.com/lodeworks/lodestone/core"
)

// RawRecord is one record as yielded by a connector, before normalization
// into a knowledge item.
type RawRecord struct {
	// Ref is the source-local reference (commit hash, ticket id, message id).
	// Together with the source id it is the dedup key for upserts.
	Ref      string
	Title    string
	Content  string
	Author   string
	Kind     core.ItemKind
	URL      string
	Metadata map[string]string

	// Tags are optional candidate tags supplied by the connector.
	Tags []core.TagCandidate
}

// Connector pulls records from one family of external systems.
// Implementations must be thread-safe; the scheduler may run pulls for
// several sources of the same kind concurrently.
type Connector interface {
	// Kind reports the source kind this connector serves.
	Kind() core.SourceKind

	// ValidateConfig checks a configuration beyond its structural Validate,
	// e.g. reachability of a configured path. Called at registration.
	ValidateConfig(cfg core.SourceConfig) error

	// Pull opens a finite stream of records newer than the checkpoint.
	// An empty checkpoint means "from the beginning". The stream is
	// restartable from any checkpoint it has reported.
	Pull(ctx context.Context, cfg core.SourceConfig, checkpoint string) (RecordStream, error)
}

// RecordStream yields the records of one pull, in connector order.
type RecordStream interface {
	// Next returns the next record, or io.EOF when the pull is exhausted.
	// Failures are classified per the package error taxonomy.
	Next(ctx context.Context) (*RawRecord, error)

	// Checkpoint returns the cursor covering every record yielded so far.
	Checkpoint() string

	// Close releases stream resources.
	Close() error
}
