package tagging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage/badger"
)

func setupAssociator(t *testing.T) (*Associator, *badger.Repositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	associator, err := NewAssociator(repos.Tags)
	require.NoError(t, err)
	return associator, repos
}

func TestApplyCreatesTagsAndAssociations(t *testing.T) {
	associator, repos := setupAssociator(t)
	ctx := context.Background()
	itemID := core.ItemID(1, "abc")

	applied, err := associator.Apply(ctx, itemID, []core.TagCandidate{
		{Name: "performance", Confidence: 0.8},
		{Name: "caching", Confidence: 0.5},
	})
	require.NoError(t, err)
	require.Len(t, applied, 2)

	tags, err := repos.Tags.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	assocs, err := repos.Tags.GetAssociations(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, assocs, 2)
}

func TestApplyMaxMerge(t *testing.T) {
	associator, repos := setupAssociator(t)
	ctx := context.Background()
	itemID := core.ItemID(1, "abc")

	// Same tag offered twice with different confidences, in either order:
	// the stored confidence ends at the maximum.
	_, err := associator.Apply(ctx, itemID, []core.TagCandidate{
		{Name: "performance", Confidence: 0.9},
	})
	require.NoError(t, err)
	_, err = associator.Apply(ctx, itemID, []core.TagCandidate{
		{Name: "performance", Confidence: 0.4},
	})
	require.NoError(t, err)

	assocs, err := repos.Tags.GetAssociations(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	require.InDelta(t, 0.9, assocs[0].Confidence, 1e-9)
}

func TestApplyNormalizesNames(t *testing.T) {
	associator, repos := setupAssociator(t)
	ctx := context.Background()
	itemID := core.ItemID(1, "abc")

	_, err := associator.Apply(ctx, itemID, []core.TagCandidate{
		{Name: "Performance", Confidence: 0.5},
		{Name: "  performance ", Confidence: 0.7},
	})
	require.NoError(t, err)

	tags, err := repos.Tags.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, "performance", tags[0].Name)

	assocs, err := repos.Tags.GetAssociations(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	require.InDelta(t, 0.7, assocs[0].Confidence, 1e-9)
}

func TestApplySkipsEmptyNames(t *testing.T) {
	associator, repos := setupAssociator(t)
	ctx := context.Background()

	applied, err := associator.Apply(ctx, core.ItemID(1, "abc"), []core.TagCandidate{
		{Name: "", Confidence: 0.5},
		{Name: "   ", Confidence: 0.5},
	})
	require.NoError(t, err)
	require.Empty(t, applied)

	tags, err := repos.Tags.ListTags(ctx)
	require.NoError(t, err)
	require.Empty(t, tags)
}

func TestAssignFullConfidence(t *testing.T) {
	associator, repos := setupAssociator(t)
	ctx := context.Background()
	itemID := core.ItemID(1, "abc")

	// Inferred association first, then a human assignment tops it out.
	_, err := associator.Apply(ctx, itemID, []core.TagCandidate{
		{Name: "security", Confidence: 0.6},
	})
	require.NoError(t, err)

	assoc, err := associator.Assign(ctx, itemID, "security")
	require.NoError(t, err)
	require.InDelta(t, 1.0, assoc.Confidence, 1e-9)

	assocs, err := repos.Tags.GetAssociations(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	require.InDelta(t, 1.0, assocs[0].Confidence, 1e-9)
}
