package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

func setupRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func testSource(name string) *core.KnowledgeSource {
	return &core.KnowledgeSource{
		Name:     name,
		Kind:     core.SourceKindGitHub,
		Config:   &core.GitHubConfig{Owner: "acme", Repo: "widgets"},
		Owner:    "platform-team",
		Interval: time.Hour,
		Active:   true,
	}
}

func TestSourceAddAndGet(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	source, err := repos.Sources.AddSource(ctx, testSource("acme/widgets"))
	require.NoError(t, err)
	require.NotZero(t, source.Id)
	require.False(t, source.InsertedAt.IsZero())

	got, err := repos.Sources.GetSource(ctx, source.Id)
	require.NoError(t, err)
	require.Equal(t, source.Name, got.Name)
	require.Equal(t, core.SourceKindGitHub, got.Kind)
	require.Equal(t, source.Interval, got.Interval)
	require.True(t, got.Active)

	cfg, ok := got.Config.(*core.GitHubConfig)
	require.True(t, ok)
	require.Equal(t, "acme", cfg.Owner)
}

func TestSourceGetMissing(t *testing.T) {
	repos := setupRepos(t)

	_, err := repos.Sources.GetSource(context.Background(), 12345)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSourceUpdate(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	source, err := repos.Sources.AddSource(ctx, testSource("acme/widgets"))
	require.NoError(t, err)

	source.Interval = 30 * time.Minute
	source.Active = false
	require.NoError(t, repos.Sources.UpdateSource(ctx, source))

	got, err := repos.Sources.GetSource(ctx, source.Id)
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, got.Interval)
	require.False(t, got.Active)
}

func TestSourceUpdateMissing(t *testing.T) {
	repos := setupRepos(t)

	missing := testSource("ghost")
	missing.Id = 9999
	err := repos.Sources.UpdateSource(context.Background(), missing)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSourceDelete(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	source, err := repos.Sources.AddSource(ctx, testSource("acme/widgets"))
	require.NoError(t, err)

	require.NoError(t, repos.Sources.DeleteSource(ctx, source.Id))

	_, err = repos.Sources.GetSource(ctx, source.Id)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSourceListDueOrdering(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Three sources with identical intervals but staggered last syncs:
	// the one synced longest ago is the most overdue.
	stale := testSource("stale")
	stale.LastSync = now.Add(-10 * time.Hour)
	fresher := testSource("fresher")
	fresher.LastSync = now.Add(-2 * time.Hour)
	current := testSource("current")
	current.LastSync = now.Add(-10 * time.Minute)

	for _, s := range []*core.KnowledgeSource{fresher, stale, current} {
		_, err := repos.Sources.AddSource(ctx, s)
		require.NoError(t, err)
	}

	due, err := repos.Sources.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, "stale", due[0].Name)
	require.Equal(t, "fresher", due[1].Name)
}

func TestSourceListDueSkipsInactive(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inactive := testSource("inactive")
	inactive.Active = false
	inactive.LastSync = now.Add(-10 * time.Hour)
	_, err := repos.Sources.AddSource(ctx, inactive)
	require.NoError(t, err)

	due, err := repos.Sources.ListDue(ctx, now)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestSourceMarkSynced(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	source := testSource("acme/widgets")
	source.LastSync = now.Add(-10 * time.Hour)
	source, err := repos.Sources.AddSource(ctx, source)
	require.NoError(t, err)

	require.NoError(t, repos.Sources.MarkSynced(ctx, source.Id, now))

	due, err := repos.Sources.ListDue(ctx, now)
	require.NoError(t, err)
	require.Empty(t, due)

	got, err := repos.Sources.GetSource(ctx, source.Id)
	require.NoError(t, err)
	require.WithinDuration(t, now, got.LastSync, time.Second)
}
