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

package ingestion

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lodeworks/lodestone/ai"
	"github.com/lodeworks/lodestone/connector"
	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/index"
	"github.com/lodeworks/lodestone/storage"
	"github.com/lodeworks/lodestone/tagging"
)

// Runner executes one sync job end to end.
type Runner struct {
	sources     storage.SourceRepository
	items       storage.ItemRepository
	jobs        storage.JobRepository
	checkpoints storage.CheckpointRepository
	registry    *connector.Registry
	indexer     *index.Indexer
	associator  *tagging.Associator
	suggester   ai.TagSuggester // Optional; nil disables inference
	backoff     BackoffPolicy
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithBackoff overrides the retry policy for retryable pull failures.
func WithBackoff(policy BackoffPolicy) RunnerOption {
	return func(r *Runner) error {
		if policy.MaxRetries < 0 {
			policy.MaxRetries = 0
		}
		r.backoff = policy
		return nil
	}
}

// WithTagSuggester enables tag inference on created and updated items.
func WithTagSuggester(suggester ai.TagSuggester) RunnerOption {
	return func(r *Runner) error {
		r.suggester = suggester
		return nil
	}
}

// WithRunnerLogger sets a custom logger.
// Default is slog.Default().
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a new job runner.
func NewRunner(
	sources storage.SourceRepository,
	items storage.ItemRepository,
	jobs storage.JobRepository,
	checkpoints storage.CheckpointRepository,
	registry *connector.Registry,
	indexer *index.Indexer,
	associator *tagging.Associator,
	opts ...RunnerOption,
) (*Runner, error) {
	if sources == nil {
		return nil, ErrSourceRepositoryRequired
	}
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if associator == nil {
		return nil, ErrAssociatorRequired
	}
	if indexer == nil {
		indexer = index.NewIndexer(nil)
	}

	r := &Runner{
		sources:     sources,
		items:       items,
		jobs:        jobs,
		checkpoints: checkpoints,
		registry:    registry,
		indexer:     indexer,
		associator:  associator,
		backoff:     DefaultBackoff(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Sync claims a job for the source and runs it to completion.
// Returns storage.ErrJobActive when another job holds the source's slot.
func (r *Runner) Sync(ctx context.Context, sourceID core.ID) (*core.SyncJob, error) {
	source, err := r.sources.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !source.Active {
		return nil, ErrSourceInactive
	}

	job, err := r.jobs.ClaimJob(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return job, r.Run(ctx, source, job)
}

// Run executes a claimed job. The job row reflects progress counters and the
// final status; the checkpoint and the source's last-sync time advance only
// on success.
func (r *Runner) Run(ctx context.Context, source *core.KnowledgeSource, job *core.SyncJob) error {
	if err := r.jobs.StartJob(ctx, job); err != nil {
		return err
	}

	cursor, err := r.run(ctx, source, job)
	if err != nil {
		r.logger.Error("sync job failed",
			"source", source.Name,
			"jobID", job.Id,
			"processed", job.Processed,
			"err", err)
		if finishErr := r.jobs.FinishJob(ctx, job, core.JobStatusFailed, err.Error()); finishErr != nil {
			r.logger.Error("failed to finalize job", "jobID", job.Id, "err", finishErr)
		}
		return err
	}

	// Success: commit the cursor, then the job row, then the source's
	// last-sync time.
	finishCtx := context.WithoutCancel(ctx)
	if cursor != "" {
		err = r.checkpoints.SaveCheckpoint(finishCtx, &core.Checkpoint{
			SourceId: source.Id,
			Cursor:   cursor,
		})
		if err != nil {
			r.jobs.FinishJob(finishCtx, job, core.JobStatusFailed, err.Error())
			return err
		}
	}
	if err := r.jobs.FinishJob(finishCtx, job, core.JobStatusCompleted, ""); err != nil {
		return err
	}
	if err := r.sources.MarkSynced(finishCtx, source.Id, time.Now().UTC()); err != nil {
		return err
	}

	r.logger.Info("sync job completed",
		"source", source.Name,
		"jobID", job.Id,
		"processed", job.Processed,
		"created", job.Created,
		"updated", job.Updated)
	return nil
}

// run pulls and processes records, retrying retryable failures with backoff.
// Returns the cursor to commit on success.
func (r *Runner) run(ctx context.Context, source *core.KnowledgeSource, job *core.SyncJob) (string, error) {
	conn, err := r.registry.Lookup(source.Kind)
	if err != nil {
		return "", err
	}

	cursor := ""
	if checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, source.Id); err != nil {
		return "", err
	} else if checkpoint != nil {
		cursor = checkpoint.Cursor
	}

	for attempt := 0; ; attempt++ {
		cursor, err = r.pull(ctx, conn, source, job, cursor)
		if err == nil {
			return cursor, nil
		}
		if !connector.Retryable(err) || attempt >= r.backoff.MaxRetries {
			return "", err
		}

		delay := r.backoff.Delay(attempt)
		r.logger.Warn("retrying pull",
			"source", source.Name,
			"attempt", attempt+1,
			"delay", delay,
			"err", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// pull consumes one stream from the cursor, processing every record.
// Returns the stream's final cursor; on error the returned cursor covers the
// records already processed, so a retry resumes instead of re-pulling.
func (r *Runner) pull(ctx context.Context, conn connector.Connector, source *core.KnowledgeSource, job *core.SyncJob, cursor string) (string, error) {
	stream, err := conn.Pull(ctx, source.Config, cursor)
	if err != nil {
		return cursor, err
	}
	defer stream.Close()

	for {
		record, err := stream.Next(ctx)
		if err == io.EOF {
			return stream.Checkpoint(), nil
		}
		if err != nil {
			return stream.Checkpoint(), err
		}

		if err := r.process(ctx, source, job, record); err != nil {
			return stream.Checkpoint(), err
		}
		cursor = stream.Checkpoint()
	}
}

// process normalizes one record, upserts it and applies its tags.
func (r *Runner) process(ctx context.Context, source *core.KnowledgeSource, job *core.SyncJob, record *connector.RawRecord) error {
	item := normalizeRecord(source.Id, record)
	if err := core.ValidateItem(item); err != nil {
		return err
	}
	item.Index = r.indexer.Compute(item)

	outcome, err := r.items.UpsertItem(ctx, item)
	if err != nil {
		return err
	}
	job.Processed++
	switch outcome {
	case storage.UpsertCreated:
		job.Created++
	case storage.UpsertUpdated:
		job.Updated++
	}

	candidates := record.Tags
	if r.suggester != nil && outcome != storage.UpsertUnchanged {
		suggested, err := r.suggester.SuggestTags(ctx, item.Title+"\n"+item.Content)
		if err != nil {
			// Inference is best effort; connector tags still apply.
			r.logger.Warn("tag inference failed", "itemID", item.Id, "err", err)
		} else {
			candidates = append(candidates, suggested...)
		}
	}
	if len(candidates) > 0 {
		if _, err := r.associator.Apply(ctx, item.Id, candidates); err != nil {
			return err
		}
	}
	return nil
}

// normalizeRecord shapes a raw connector record into a knowledge item.
func normalizeRecord(sourceID core.ID, record *connector.RawRecord) *core.KnowledgeItem {
	item := &core.KnowledgeItem{
		SourceId: sourceID,
		Ref:      record.Ref,
		Title:    record.Title,
		Summary:  core.DeriveSummary(record.Content),
		Content:  record.Content,
		Author:   record.Author,
		Kind:     record.Kind,
		URL:      record.URL,
		Metadata: record.Metadata,
		Status:   core.ItemStatusActive,
	}
	if item.Kind == 0 {
		item.Kind = core.ItemKindDocument
	}
	if item.Title == "" {
		item.Title = item.Summary
	}
	return item
}
