// Copyright 2025 Lodeworks
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lodestone

import (
	"context"
	"log/slog"

	"github.com/lodeworks/lodestone/ai"
	"github.com/lodeworks/lodestone/ai/openai"
	"github.com/lodeworks/lodestone/connector"
	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/index"
	"github.com/lodeworks/lodestone/ingestion"
	"github.com/lodeworks/lodestone/search"
	"github.com/lodeworks/lodestone/storage"
	"github.com/lodeworks/lodestone/storage/badger"
	"github.com/lodeworks/lodestone/tagging"
)

// Database bundles the stores, the connector registry and the services of
// one lodestone deployment.
type Database struct {
	backend    *badger.Backend
	repos      *badger.Repositories
	registry   *connector.Registry
	indexer    *index.Indexer
	associator *tagging.Associator
	provider   ai.Provider // Nil when tag inference is disabled
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig   *ai.Config
	inMemory   bool
	connectors []connector.Connector
}

// WithAIConfig enables LLM tag inference with the given configuration.
// Without it, only connector-supplied tags are applied.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithInMemory opens the backing store in memory. Used by tests.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithConnectors registers connectors at construction.
func WithConnectors(connectors ...connector.Connector) DatabaseOption {
	return func(o *databaseOptions) {
		o.connectors = append(o.connectors, connectors...)
	}
}

// NewDatabase opens a database at filePath and wires its services.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	associator, err := tagging.NewAssociator(repos.Tags)
	if err != nil {
		repos.Close()
		return nil, err
	}

	var provider ai.Provider
	if options.aiConfig != nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	return &Database{
		backend:    backend,
		repos:      repos,
		registry:   connector.NewRegistry(options.connectors...),
		indexer:    index.NewIndexer(nil),
		associator: associator,
		provider:   provider,
		logger:     slog.Default(),
	}, nil
}

// Close releases the provider and every repository.
func (db *Database) Close() error {
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
		}
	}
	return db.repos.Close()
}

// RegisterConnector adds or replaces a connector.
func (db *Database) RegisterConnector(c connector.Connector) {
	db.registry.Register(c)
}

// RegisterSource validates and persists a new knowledge source. The
// configuration is checked structurally and against the registered connector
// before anything is written.
func (db *Database) RegisterSource(ctx context.Context, source *core.KnowledgeSource) (*core.KnowledgeSource, error) {
	if err := core.ValidateSource(source); err != nil {
		return nil, err
	}
	if err := db.registry.ValidateConfig(source.Config); err != nil {
		return nil, err
	}
	return db.repos.Sources.AddSource(ctx, source)
}

// GetSource retrieves a source by ID.
func (db *Database) GetSource(ctx context.Context, id core.ID) (*core.KnowledgeSource, error) {
	return db.repos.Sources.GetSource(ctx, id)
}

// ListSources retrieves all sources.
func (db *Database) ListSources(ctx context.Context) ([]*core.KnowledgeSource, error) {
	return db.repos.Sources.ListSources(ctx)
}

// DeactivateSource stops a source from being scheduled. Its items remain
// stored and searchable.
func (db *Database) DeactivateSource(ctx context.Context, id core.ID) error {
	source, err := db.repos.Sources.GetSource(ctx, id)
	if err != nil {
		return err
	}
	if !source.Active {
		return nil
	}
	source.Active = false
	return db.repos.Sources.UpdateSource(ctx, source)
}

/// DeleteSource removes a source and everything it owns: items with their
// index entries and tag associations, job history, and the checkpoint.
// Tags themselves survive; only the associations go.
func (db *Database) DeleteSource(ctx context.Context, id core.ID) error {
	if _, err := db.repos.Items.DeleteItemsBySource(ctx, id); err != nil {
		return err
	}
	if err := db.repos.Jobs.DeleteJobsBySource(ctx, id); err != nil {
		return err
	}
	if err := db.repos.Checkpoints.DeleteCheckpoint(ctx, id); err != nil {
		return err
	}
	return db.repos.Sources.DeleteSource(ctx, id)
}

// TriggerSync runs a sync for the source immediately, regardless of its
// schedule. Returns storage.ErrJobActive when a job is already running.
func (db *Database) TriggerSync(ctx context.Context, sourceID core.ID) (*core.SyncJob, error) {
	runner, err := db.NewRunner()
	if err != nil {
		return nil, err
	}
	return runner.Sync(ctx, sourceID)
}

// JobHistory returns a source's sync jobs, newest first.
func (db *Database) JobHistory(ctx context.Context, sourceID core.ID, limit int) ([]*core.SyncJob, error) {
	return db.repos.Jobs.ListJobs(ctx, sourceID, limit)
}

// Search runs a query over the item index.
func (db *Database) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	searcher, err := db.NewSearcher()
	if err != nil {
		return nil, err
	}
	return searcher.Search(ctx, query, maxHits)
}

// AssignTag records a human tag assignment on an item at full confidence.
func (db *Database) AssignTag(ctx context.Context, itemID core.ID, name string) (*core.TagAssociation, error) {
	if _, err := db.repos.Items.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return db.associator.Assign(ctx, itemID, name)
}

// ArchiveItem excludes an item from future search results.
func (db *Database) ArchiveItem(ctx context.Context, itemID core.ID) error {
	return db.repos.Items.SetItemStatus(ctx, itemID, core.ItemStatusArchived)
}

// SourceRepository exposes the underlying source store.
func (db *Database) SourceRepository() storage.SourceRepository {
	return db.repos.Sources
}

// ItemRepository exposes the underlying item store.
func (db *Database) ItemRepository() storage.ItemRepository {
	return db.repos.Items
}

// TagRepository exposes the underlying tag store.
func (db *Database) TagRepository() storage.TagRepository {
	return db.repos.Tags
}

// NewRunner creates a job runner over the database's stores.
func (db *Database) NewRunner(opts ...ingestion.RunnerOption) (*ingestion.Runner, error) {
	if db.provider != nil {
		opts = append([]ingestion.RunnerOption{ingestion.WithTagSuggester(db.provider.TagSuggester())}, opts...)
	}
	return ingestion.NewRunner(
		db.repos.Sources, db.repos.Items, db.repos.Jobs, db.repos.Checkpoints,
		db.registry, db.indexer, db.associator, opts...)
}

// NewScheduler creates a scheduler dispatching jobs to the given runner
// configuration.
func (db *Database) NewScheduler(opts ...ingestion.SchedulerOption) (*ingestion.Scheduler, error) {
	runner, err := db.NewRunner()
	if err != nil {
		return nil, err
	}
	return ingestion.NewScheduler(db.repos.Sources, db.repos.Jobs, runner, opts...)
}

// NewSearcher creates a searcher over the item index.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.repos.Items, db.indexer, opts...)
}
