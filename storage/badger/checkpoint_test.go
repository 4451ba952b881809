package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/core"
)

func TestCheckpointRoundTrip(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	missing, err := repos.Checkpoints.LoadCheckpoint(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, missing)

	err = repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{SourceId: 1, Cursor: "page=4"})
	require.NoError(t, err)

	got, err := repos.Checkpoints.LoadCheckpoint(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "page=4", got.Cursor)
	require.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, repos.Checkpoints.DeleteCheckpoint(ctx, 1))
	gone, err := repos.Checkpoints.LoadCheckpoint(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, gone)
}
