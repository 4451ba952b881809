package lodestone

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/connector"
	"github.com/lodeworks/lodestone/connector/mock"
	"github.com/lodeworks/lodestone/core"
)

func setupDatabase(t *testing.T, conn connector.Connector) *Database {
	t.Helper()
	db, err := NewDatabase("", WithInMemory(), WithConnectors(conn))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func githubSource(name string) *core.KnowledgeSource {
	return &core.KnowledgeSource{
		Name:     name,
		Kind:     core.SourceKindGitHub,
		Config:   &core.GitHubConfig{Owner: "acme", Repo: "widgets"},
		Interval: time.Hour,
		Active:   true,
	}
}

func commitRecord(ref, title string) *connector.RawRecord {
	return &connector.RawRecord{
		Ref:     ref,
		Title:   title,
		Content: "Full description of " + title + ".",
		Author:  "jsmith",
		Kind:    core.ItemKindCommit,
	}
}

func TestDatabaseRegisterSourceValidates(t *testing.T) {
	db := setupDatabase(t, mock.New())
	ctx := context.Background()

	source, err := db.RegisterSource(ctx, githubSource("acme/widgets"))
	require.NoError(t, err)
	require.NotZero(t, source.Id)

	// Missing interval fails structural validation.
	bad := githubSource("no-interval")
	bad.Interval = 0
	_, err = db.RegisterSource(ctx, bad)
	require.ErrorIs(t, err, core.ErrInvalidInterval)

	// Config for an unregistered kind is rejected.
	chat := &core.KnowledgeSource{
		Name:     "chatty",
		Kind:     core.SourceKindChat,
		Config:   &core.ChatConfig{Workspace: "eng", Channel: "general"},
		Interval: time.Hour,
		Active:   true,
	}
	_, err = db.RegisterSource(ctx, chat)
	require.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestDatabaseSyncAndSearch(t *testing.T) {
	conn := mock.New(
		commitRecord("c1", "Speed up cache lookups"),
		commitRecord("c2", "Document deployment steps"),
	)
	db := setupDatabase(t, conn)
	ctx := context.Background()

	source, err := db.RegisterSource(ctx, githubSource("acme/widgets"))
	require.NoError(t, err)

	job, err := db.TriggerSync(ctx, source.Id)
	require.NoError(t, err)
	require.Equal(t, core.JobStatusCompleted, job.Status)
	require.Equal(t, 2, job.Created)

	results, err := db.Search(ctx, "cache", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Speed up cache lookups", results[0].Item.Title)

	history, err := db.JobHistory(ctx, source.Id, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestDatabaseArchiveHidesFromSearch(t *testing.T) {
	conn := mock.New(commitRecord("c1", "Tune garbage collection"))
	db := setupDatabase(t, conn)
	ctx := context.Background()

	source, err := db.RegisterSource(ctx, githubSource("acme/widgets"))
	require.NoError(t, err)
	_, err = db.TriggerSync(ctx, source.Id)
	require.NoError(t, err)

	itemID := core.ItemID(source.Id, "c1")
	require.NoError(t, db.ArchiveItem(ctx, itemID))

	results, err := db.Search(ctx, "garbage", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestDatabaseAssignTag(t *testing.T) {
	conn := mock.New(commitRecord("c1", "Harden login flow"))
	db := setupDatabase(t, conn)
	ctx := context.Background()

	source, err := db.RegisterSource(ctx, githubSource("acme/widgets"))
	require.NoError(t, err)
	_, err = db.TriggerSync(ctx, source.Id)
	require.NoError(t, err)

	itemID := core.ItemID(source.Id, "c1")
	assoc, err := db.AssignTag(ctx, itemID, "Security")
	require.NoError(t, err)
	require.InDelta(t, 1.0, assoc.Confidence, 1e-9)

	tag, err := db.TagRepository().FindTagByName(ctx, "security")
	require.NoError(t, err)
	require.Equal(t, assoc.TagId, tag.Id)

	// Tagging a missing item is rejected.
	_, err = db.AssignTag(ctx, core.ItemID(99, "ghost"), "security")
	require.Error(t, err)
}

func TestDatabaseDeleteSourceCascades(t *testing.T) {
	recs := []*connector.RawRecord{commitRecord("c1", "Refactor scheduler")}
	recs[0].Tags = []core.TagCandidate{{Name: "refactor", Confidence: 0.8}}
	conn := mock.New(recs...)
	db := setupDatabase(t, conn)
	ctx := context.Background()

	source, err := db.RegisterSource(ctx, githubSource("acme/widgets"))
	require.NoError(t, err)
	_, err = db.TriggerSync(ctx, source.Id)
	require.NoError(t, err)

	itemID := core.ItemID(source.Id, "c1")
	require.NoError(t, db.DeleteSource(ctx, source.Id))

	_, err = db.GetSource(ctx, source.Id)
	require.Error(t, err)

	items, err := db.ItemRepository().ListItemsBySource(ctx, source.Id)
	require.NoError(t, err)
	require.Empty(t, items)

	results, err := db.Search(ctx, "scheduler", 10)
	require.NoError(t, err)
	require.Empty(t, results)

	assocs, err := db.TagRepository().GetAssociations(ctx, itemID)
	require.NoError(t, err)
	require.Empty(t, assocs)

	// The tag itself survives the cascade.
	_, err = db.TagRepository().FindTagByName(ctx, "refactor")
	require.NoError(t, err)
}

func TestDatabaseDeactivateSource(t *testing.T) {
	conn := mock.New(commitRecord("c1", "Initial import"))
	db := setupDatabase(t, conn)
	ctx := context.Background()

	source, err := db.RegisterSource(ctx, githubSource("acme/widgets"))
	require.NoError(t, err)

	require.NoError(t, db.DeactivateSource(ctx, source.Id))

	_, err = db.TriggerSync(ctx, source.Id)
	require.Error(t, err)

	due, err := db.SourceRepository().ListDue(ctx, time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, err)
	require.Empty(t, due)
}
