package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

func testItem(sourceID core.ID, ref string) *core.KnowledgeItem {
	return &core.KnowledgeItem{
		SourceId: sourceID,
		Ref:      ref,
		Title:    "Fix cache invalidation",
		Summary:  "Fix cache invalidation",
		Content:  "The cache was never invalidated on write.",
		Author:   "jsmith",
		Kind:     core.ItemKindCommit,
		URL:      "https://example.com/commit/" + ref,
		Index: []core.Posting{
			{Token: "cache", Zone: core.ZoneTitle, Positions: []int{1}},
			{Token: "cache", Zone: core.ZoneContent, Positions: []int{1}},
			{Token: "invalidation", Zone: core.ZoneTitle, Positions: []int{2}},
		},
	}
}

func TestItemUpsertCreate(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	outcome, err := repos.Items.UpsertItem(ctx, testItem(1, "abc123"))
	require.NoError(t, err)
	require.Equal(t, storage.UpsertCreated, outcome)

	got, err := repos.Items.GetItemByRef(ctx, 1, "abc123")
	require.NoError(t, err)
	require.Equal(t, "Fix cache invalidation", got.Title)
	require.Equal(t, core.ItemStatusActive, got.Status)
	require.Equal(t, core.ItemID(1, "abc123"), got.Id)
}

func TestItemUpsertUnchangedSkips(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	_, err := repos.Items.UpsertItem(ctx, testItem(1, "abc123"))
	require.NoError(t, err)

	first, err := repos.Items.GetItemByRef(ctx, 1, "abc123")
	require.NoError(t, err)

	outcome, err := repos.Items.UpsertItem(ctx, testItem(1, "abc123"))
	require.NoError(t, err)
	require.Equal(t, storage.UpsertUnchanged, outcome)

	second, err := repos.Items.GetItemByRef(ctx, 1, "abc123")
	require.NoError(t, err)
	require.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestItemUpsertUpdateReindexes(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	_, err := repos.Items.UpsertItem(ctx, testItem(1, "abc123"))
	require.NoError(t, err)

	changed := testItem(1, "abc123")
	changed.Title = "Rewrite eviction policy"
	changed.Index = []core.Posting{
		{Token: "eviction", Zone: core.ZoneTitle, Positions: []int{2}},
		{Token: "policy", Zone: core.ZoneTitle, Positions: []int{3}},
	}
	outcome, err := repos.Items.UpsertItem(ctx, changed)
	require.NoError(t, err)
	require.Equal(t, storage.UpsertUpdated, outcome)

	// Old tokens are gone from the index, new ones are present.
	stale, err := repos.Items.LookupToken(ctx, "cache")
	require.NoError(t, err)
	require.Empty(t, stale)

	fresh, err := repos.Items.LookupToken(ctx, "eviction")
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	require.Equal(t, changed.Id, fresh[0].ItemId)
}

func TestItemSameRefDifferentSources(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	a, err := repos.Items.UpsertItem(ctx, testItem(1, "abc123"))
	require.NoError(t, err)
	require.Equal(t, storage.UpsertCreated, a)

	b, err := repos.Items.UpsertItem(ctx, testItem(2, "abc123"))
	require.NoError(t, err)
	require.Equal(t, storage.UpsertCreated, b)

	first, err := repos.Items.ListItemsBySource(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	second, err := repos.Items.ListItemsBySource(ctx, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.NotEqual(t, first[0].Id, second[0].Id)
}

func TestItemTokenScoresAccumulateZones(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	item := testItem(1, "abc123")
	_, err := repos.Items.UpsertItem(ctx, item)
	require.NoError(t, err)

	// "cache" appears once in title (1.0) and once in content (0.2).
	scores, err := repos.Items.LookupToken(ctx, "cache")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.InDelta(t, 1.2, scores[0].Score, 1e-9)
}

func TestItemTokenLookupIsExact(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	// Tokens may contain arbitrary bytes; one token must never shadow
	// another that merely starts with it.
	item := testItem(1, "abc123")
	item.Index = []core.Posting{
		{Token: "12:30", Zone: core.ZoneTitle, Positions: []int{1}},
		{Token: "123", Zone: core.ZoneContent, Positions: []int{1}},
	}
	_, err := repos.Items.UpsertItem(ctx, item)
	require.NoError(t, err)

	scores, err := repos.Items.LookupToken(ctx, "12")
	require.NoError(t, err)
	require.Empty(t, scores)

	scores, err = repos.Items.LookupToken(ctx, "12:30")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, item.Id, scores[0].ItemId)

	scores, err = repos.Items.LookupToken(ctx, "123")
	require.NoError(t, err)
	require.Len(t, scores, 1)
}

func TestItemDeleteCleansIndex(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	item := testItem(1, "abc123")
	_, err := repos.Items.UpsertItem(ctx, item)
	require.NoError(t, err)

	require.NoError(t, repos.Items.DeleteItem(ctx, item.Id))

	_, err = repos.Items.GetItem(ctx, item.Id)
	require.ErrorIs(t, err, storage.ErrNotFound)

	scores, err := repos.Items.LookupToken(ctx, "cache")
	require.NoError(t, err)
	require.Empty(t, scores)

	listed, err := repos.Items.ListItemsBySource(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestItemDeleteCascadesAssociations(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	item := testItem(1, "abc123")
	_, err := repos.Items.UpsertItem(ctx, item)
	require.NoError(t, err)

	tag, err := repos.Tags.GetOrCreateTag(ctx, "performance")
	require.NoError(t, err)
	_, err = repos.Tags.UpsertAssociation(ctx, item.Id, tag.Id, 0.8)
	require.NoError(t, err)

	require.NoError(t, repos.Items.DeleteItem(ctx, item.Id))

	assocs, err := repos.Tags.GetAssociations(ctx, item.Id)
	require.NoError(t, err)
	require.Empty(t, assocs)

	// The reverse side is gone too; the tag itself survives.
	ids, err := repos.Tags.GetItemsByTag(ctx, tag.Id)
	require.NoError(t, err)
	require.Empty(t, ids)

	_, err = repos.Tags.GetTag(ctx, tag.Id)
	require.NoError(t, err)
}

func TestItemDeleteBySource(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	for _, ref := range []string{"a", "b", "c"} {
		_, err := repos.Items.UpsertItem(ctx, testItem(1, ref))
		require.NoError(t, err)
	}
	_, err := repos.Items.UpsertItem(ctx, testItem(2, "other"))
	require.NoError(t, err)

	deleted, err := repos.Items.DeleteItemsBySource(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 3, deleted)

	remaining, err := repos.Items.ListItemsBySource(ctx, 2)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestItemSetStatus(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	item := testItem(1, "abc123")
	_, err := repos.Items.UpsertItem(ctx, item)
	require.NoError(t, err)

	require.NoError(t, repos.Items.SetItemStatus(ctx, item.Id, core.ItemStatusArchived))

	got, err := repos.Items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	require.Equal(t, core.ItemStatusArchived, got.Status)

	// Status survives a content update.
	changed := testItem(1, "abc123")
	changed.Content = "Different content entirely."
	_, err = repos.Items.UpsertItem(ctx, changed)
	require.NoError(t, err)

	got, err = repos.Items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	require.Equal(t, core.ItemStatusArchived, got.Status)
}
