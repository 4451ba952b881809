package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

func TestTagGetOrCreate(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	tag, err := repos.Tags.GetOrCreateTag(ctx, "performance")
	require.NoError(t, err)
	require.Equal(t, core.TagID("performance"), tag.Id)
	require.Equal(t, "performance", tag.Name)

	again, err := repos.Tags.GetOrCreateTag(ctx, "performance")
	require.NoError(t, err)
	require.Equal(t, tag.Id, again.Id)
	require.Equal(t, tag.InsertedAt, again.InsertedAt)

	found, err := repos.Tags.FindTagByName(ctx, "performance")
	require.NoError(t, err)
	require.Equal(t, tag.Id, found.Id)
}

func TestTagGetOrCreateEmptyName(t *testing.T) {
	repos := setupRepos(t)

	_, err := repos.Tags.GetOrCreateTag(context.Background(), "")
	require.ErrorIs(t, err, core.ErrEmptyTagName)
}

func TestTagUpdateKeepsName(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	tag, err := repos.Tags.GetOrCreateTag(ctx, "performance")
	require.NoError(t, err)

	tag.Color = "#ff0000"
	tag.Name = "renamed"
	require.NoError(t, repos.Tags.UpdateTag(ctx, tag))

	got, err := repos.Tags.GetTag(ctx, tag.Id)
	require.NoError(t, err)
	require.Equal(t, "performance", got.Name)
	require.Equal(t, "#ff0000", got.Color)
}

func TestAssociationMaxMerge(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	tag, err := repos.Tags.GetOrCreateTag(ctx, "performance")
	require.NoError(t, err)
	itemID := core.ItemID(1, "abc123")

	assoc, err := repos.Tags.UpsertAssociation(ctx, itemID, tag.Id, 0.6)
	require.NoError(t, err)
	require.InDelta(t, 0.6, assoc.Confidence, 1e-9)

	// Lower confidence does not regress the stored score.
	assoc, err = repos.Tags.UpsertAssociation(ctx, itemID, tag.Id, 0.3)
	require.NoError(t, err)
	require.InDelta(t, 0.6, assoc.Confidence, 1e-9)

	// Higher confidence wins.
	assoc, err = repos.Tags.UpsertAssociation(ctx, itemID, tag.Id, 0.9)
	require.NoError(t, err)
	require.InDelta(t, 0.9, assoc.Confidence, 1e-9)

	assocs, err := repos.Tags.GetAssociations(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	require.InDelta(t, 0.9, assocs[0].Confidence, 1e-9)
}

func TestAssociationClampsConfidence(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	tag, err := repos.Tags.GetOrCreateTag(ctx, "performance")
	require.NoError(t, err)

	assoc, err := repos.Tags.UpsertAssociation(ctx, core.ItemID(1, "a"), tag.Id, 1.7)
	require.NoError(t, err)
	require.InDelta(t, 1.0, assoc.Confidence, 1e-9)

	assoc, err = repos.Tags.UpsertAssociation(ctx, core.ItemID(1, "b"), tag.Id, -0.5)
	require.NoError(t, err)
	require.InDelta(t, 0.0, assoc.Confidence, 1e-9)
}

func TestTagDeleteCascades(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	tag, err := repos.Tags.GetOrCreateTag(ctx, "performance")
	require.NoError(t, err)

	itemA := core.ItemID(1, "a")
	itemB := core.ItemID(1, "b")
	_, err = repos.Tags.UpsertAssociation(ctx, itemA, tag.Id, 0.5)
	require.NoError(t, err)
	_, err = repos.Tags.UpsertAssociation(ctx, itemB, tag.Id, 0.5)
	require.NoError(t, err)

	require.NoError(t, repos.Tags.DeleteTag(ctx, tag.Id))

	_, err = repos.Tags.GetTag(ctx, tag.Id)
	require.ErrorIs(t, err, storage.ErrNotFound)

	for _, itemID := range []core.ID{itemA, itemB} {
		assocs, err := repos.Tags.GetAssociations(ctx, itemID)
		require.NoError(t, err)
		require.Empty(t, assocs)
	}
}

func TestAssociationDeleteByItem(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	perf, err := repos.Tags.GetOrCreateTag(ctx, "performance")
	require.NoError(t, err)
	bug, err := repos.Tags.GetOrCreateTag(ctx, "bug")
	require.NoError(t, err)

	itemID := core.ItemID(1, "a")
	_, err = repos.Tags.UpsertAssociation(ctx, itemID, perf.Id, 0.5)
	require.NoError(t, err)
	_, err = repos.Tags.UpsertAssociation(ctx, itemID, bug.Id, 0.5)
	require.NoError(t, err)

	require.NoError(t, repos.Tags.DeleteAssociationsByItem(ctx, itemID))

	assocs, err := repos.Tags.GetAssociations(ctx, itemID)
	require.NoError(t, err)
	require.Empty(t, assocs)

	ids, err := repos.Tags.GetItemsByTag(ctx, perf.Id)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestTagList(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	for _, name := range []string{"performance", "bug", "docs"} {
		_, err := repos.Tags.GetOrCreateTag(ctx, name)
		require.NoError(t, err)
	}

	tags, err := repos.Tags.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
}
