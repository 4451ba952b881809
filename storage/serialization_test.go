package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/core"
)

var (
	t0 = time.Date(2025, 3, 14, 9, 26, 53, 589000, time.UTC)
	t1 = t0.Add(90 * time.Minute)
)

func TestSourceRoundTrip(t *testing.T) {
	source := &core.KnowledgeSource{
		Id:   42,
		Name: "acme/widgets",
		Kind: core.SourceKindGitHub,
		Config: &core.GitHubConfig{
			Owner: "acme",
			Repo:  "widgets",
			Token: "ghp_secret",
		},
		Owner:      "platform-team",
		Interval:   45 * time.Minute,
		LastSync:   t0,
		Active:     true,
		InsertedAt: t0,
		UpdatedAt:  t1,
	}

	got, err := UnmarshalSource(MarshalSource(source))
	require.NoError(t, err)
	assert.Equal(t, source, got)
}

func TestSourceRoundTripFeedConfig(t *testing.T) {
	source := &core.KnowledgeSource{
		Id:       7,
		Name:     "drop",
		Kind:     core.SourceKindFeed,
		Config:   &core.FeedConfig{Path: "/var/spool/drop.jsonl"},
		Interval: time.Hour,
		Active:   true,
	}

	got, err := UnmarshalSource(MarshalSource(source))
	require.NoError(t, err)
	require.IsType(t, &core.FeedConfig{}, got.Config)
	// The kind is reconstituted from the config union tag.
	assert.Equal(t, core.SourceKindFeed, got.Kind)
	assert.Equal(t, "/var/spool/drop.jsonl", got.Config.(*core.FeedConfig).Path)
}

func TestItemRoundTrip(t *testing.T) {
	item := &core.KnowledgeItem{
		Id:       core.ItemID(42, "abc123"),
		SourceId: 42,
		Ref:      "abc123",
		Title:    "Speed up cache lookups",
		Summary:  "Speed up cache lookups.",
		Content:  "Speed up cache lookups. Replaces the linear scan with a map.",
		Author:   "jsmith",
		Kind:     core.ItemKindCommit,
		URL:      "https://example.test/commit/abc123",
		Status:   core.ItemStatusActive,
		Metadata: map[string]string{"branch": "main"},
		Index: []core.Posting{
			{Token: "cache", Zone: core.ZoneTitle, Positions: []int{2}},
			{Token: "cache", Zone: core.ZoneContent, Positions: []int{2, 8}},
		},
		InsertedAt: t0,
		UpdatedAt:  t1,
	}

	got, err := UnmarshalItem(MarshalItem(item))
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestItemRoundTripEmptyOptionals(t *testing.T) {
	item := &core.KnowledgeItem{
		Id:         1,
		SourceId:   1,
		Ref:        "r1",
		Title:      "bare",
		Kind:       core.ItemKindDocument,
		Status:     core.ItemStatusArchived,
		InsertedAt: t0,
		UpdatedAt:  t0,
	}

	got, err := UnmarshalItem(MarshalItem(item))
	require.NoError(t, err)
	assert.Nil(t, got.Metadata)
	assert.Nil(t, got.Index)
	assert.Equal(t, item, got)
}

func TestJobRoundTrip(t *testing.T) {
	job := &core.SyncJob{
		Id:        3,
		SourceId:  42,
		Status:    core.JobStatusFailed,
		StartedAt: t0,
		EndedAt:   t1,
		Processed: 17,
		Created:   5,
		Updated:   2,
		Error:     "pull: rate limited",
	}

	got, err := UnmarshalJob(MarshalJob(job))
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestAssociationRoundTrip(t *testing.T) {
	assoc := &core.TagAssociation{
		ItemId:     core.ItemID(42, "abc123"),
		TagId:      core.TagID("performance"),
		Confidence: 0.85,
		AssignedAt: t0,
	}

	got, err := UnmarshalAssociation(MarshalAssociation(assoc))
	require.NoError(t, err)
	assert.Equal(t, assoc, got)
}

func TestCheckpointRoundTrip(t *testing.T) {
	checkpoint := &core.Checkpoint{
		SourceId:  42,
		Cursor:    "opaque-cursor-token",
		UpdatedAt: t1,
	}

	got, err := UnmarshalCheckpoint(MarshalCheckpoint(checkpoint))
	require.NoError(t, err)
	assert.Equal(t, checkpoint, got)
}

func TestTokenScoreRoundTrip(t *testing.T) {
	score := core.TokenScore{ItemId: 99, Score: 1.4}

	got, err := UnmarshalTokenScore(MarshalTokenScore(score))
	require.NoError(t, err)
	assert.Equal(t, score, got)
}

func TestUnmarshalTruncatedData(t *testing.T) {
	source := &core.KnowledgeSource{
		Id:       42,
		Name:     "acme/widgets",
		Kind:     core.SourceKindGitHub,
		Config:   &core.GitHubConfig{Owner: "acme", Repo: "widgets"},
		Interval: time.Hour,
	}
	data := MarshalSource(source)

	_, err := UnmarshalSource(data[:len(data)/2])
	require.Error(t, err)
}
