package badger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

func TestJobClaimLifecycle(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	job, err := repos.Jobs.ClaimJob(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, core.JobStatusPending, job.Status)
	require.NotZero(t, job.Id)

	require.NoError(t, repos.Jobs.StartJob(ctx, job))
	require.Equal(t, core.JobStatusRunning, job.Status)

	job.Processed = 10
	job.Created = 7
	job.Updated = 2
	require.NoError(t, repos.Jobs.FinishJob(ctx, job, core.JobStatusCompleted, ""))

	got, err := repos.Jobs.GetJob(ctx, 1, job.Id)
	require.NoError(t, err)
	require.Equal(t, core.JobStatusCompleted, got.Status)
	require.Equal(t, 10, got.Processed)
	require.Equal(t, 7, got.Created)
	require.False(t, got.EndedAt.IsZero())
}

func TestJobSlotExclusive(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	first, err := repos.Jobs.ClaimJob(ctx, 1)
	require.NoError(t, err)

	_, err = repos.Jobs.ClaimJob(ctx, 1)
	require.ErrorIs(t, err, storage.ErrJobActive)

	// A different source claims independently.
	_, err = repos.Jobs.ClaimJob(ctx, 2)
	require.NoError(t, err)

	// Finishing releases the slot for the next claim.
	require.NoError(t, repos.Jobs.FinishJob(ctx, first, core.JobStatusFailed, "pull failed"))
	_, err = repos.Jobs.ClaimJob(ctx, 1)
	require.NoError(t, err)
}

func TestJobConcurrentClaims(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	const claimers = 8
	var wg sync.WaitGroup
	wins := make(chan *core.SyncJob, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := repos.Jobs.ClaimJob(ctx, 1)
			if err == nil {
				wins <- job
			}
		}()
	}
	wg.Wait()
	close(wins)

	var won []*core.SyncJob
	for job := range wins {
		won = append(won, job)
	}
	require.Len(t, won, 1)

	active, err := repos.Jobs.ActiveJob(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, won[0].Id, active.Id)
}

func TestJobInvalidTransitions(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	job, err := repos.Jobs.ClaimJob(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, repos.Jobs.StartJob(ctx, job))

	// Running jobs cannot start again.
	err = repos.Jobs.StartJob(ctx, job)
	require.ErrorIs(t, err, storage.ErrInvalidTransition)

	// Terminal is final.
	require.NoError(t, repos.Jobs.FinishJob(ctx, job, core.JobStatusCompleted, ""))
	err = repos.Jobs.FinishJob(ctx, job, core.JobStatusFailed, "late")
	require.ErrorIs(t, err, storage.ErrInvalidTransition)

	// Finish requires a terminal target status.
	other, err := repos.Jobs.ClaimJob(ctx, 2)
	require.NoError(t, err)
	err = repos.Jobs.FinishJob(ctx, other, core.JobStatusRunning, "")
	require.ErrorIs(t, err, storage.ErrInvalidTransition)
}

func TestJobListNewestFirst(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	var last core.ID
	for i := 0; i < 3; i++ {
		job, err := repos.Jobs.ClaimJob(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, repos.Jobs.FinishJob(ctx, job, core.JobStatusCompleted, ""))
		last = job.Id
	}

	jobs, err := repos.Jobs.ListJobs(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	require.Equal(t, last, jobs[0].Id)

	limited, err := repos.Jobs.ListJobs(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestJobActiveNone(t *testing.T) {
	repos := setupRepos(t)

	_, err := repos.Jobs.ActiveJob(context.Background(), 1)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJobFailStuck(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	job, err := repos.Jobs.ClaimJob(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, repos.Jobs.StartJob(ctx, job))

	// Nothing is stuck yet.
	failed, err := repos.Jobs.FailStuck(ctx, time.Now().UTC(), time.Hour)
	require.NoError(t, err)
	require.Empty(t, failed)

	// From two hours in the future the job has overstayed.
	future := time.Now().UTC().Add(2 * time.Hour)
	failed, err = repos.Jobs.FailStuck(ctx, future, time.Hour)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, core.JobStatusFailed, failed[0].Status)
	require.NotEmpty(t, failed[0].Error)

	// The slot is free again.
	_, err = repos.Jobs.ClaimJob(ctx, 1)
	require.NoError(t, err)
}

func TestJobDeleteBySource(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	job, err := repos.Jobs.ClaimJob(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, repos.Jobs.DeleteJobsBySource(ctx, 1))

	_, err = repos.Jobs.GetJob(ctx, 1, job.Id)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Slot went with the history.
	_, err = repos.Jobs.ClaimJob(ctx, 1)
	require.NoError(t, err)
}
