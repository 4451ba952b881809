package core

import (
	"fmt"
	"os"
)

// SourceConfig is the connector-specific configuration of a knowledge source.
// It is a tagged union: exactly one concrete type per SourceKind, validated
// at registration time rather than at use time.
type SourceConfig interface {
	// Kind reports which connector family this configuration belongs to.
	Kind() SourceKind

	// Validate checks the configuration shape. A non-nil error wraps
	// ErrInvalidConfiguration.
	Validate() error
}

// GitHubConfig configures a source-control activity source.
type GitHubConfig struct {
	Owner string
	Repo  string
	Token string
}

func (c *GitHubConfig) Kind() SourceKind { return SourceKindGitHub }

func (c *GitHubConfig) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("%w: github owner required", ErrInvalidConfiguration)
	}
	if c.Repo == "" {
		return fmt.Errorf("%w: github repo required", ErrInvalidConfiguration)
	}
	return nil
}

// TrackerConfig configures an issue-tracker source.
type TrackerConfig struct {
	BaseURL string
	Project string
	Token   string
}

func (c *TrackerConfig) Kind() SourceKind { return SourceKindTracker }

func (c *TrackerConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: tracker base URL required", ErrInvalidConfiguration)
	}
	if c.Project == "" {
		return fmt.Errorf("%w: tracker project required", ErrInvalidConfiguration)
	}
	return nil
}

// ChatConfig configures a chat-log source.
type ChatConfig struct {
	Workspace string
	Channel   string
	Token     string
}

func (c *ChatConfig) Kind() SourceKind { return SourceKindChat }

func (c *ChatConfig) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("%w: chat workspace required", ErrInvalidConfiguration)
	}
	if c.Channel == "" {
		return fmt.Errorf("%w: chat channel required", ErrInvalidConfiguration)
	}
	return nil
}

// FeedConfig configures a local JSONL drop-file source.
type FeedConfig struct {
	Path string
}

func (c *FeedConfig) Kind() SourceKind { return SourceKindFeed }

func (c *FeedConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: feed path required", ErrInvalidConfiguration)
	}
	if _, err := os.Stat(c.Path); err != nil {
		return fmt.Errorf("%w: feed path: %v", ErrInvalidConfiguration, err)
	}
	return nil
}

// NewSourceConfig returns the zero configuration for a kind. Used when
// decoding persisted sources.
func NewSourceConfig(kind SourceKind) (SourceConfig, error) {
	switch kind {
	case SourceKindGitHub:
		return &GitHubConfig{}, nil
	case SourceKindTracker:
		return &TrackerConfig{}, nil
	case SourceKindChat:
		return &ChatConfig{}, nil
	case SourceKindFeed:
		return &FeedConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidSourceKind, kind)
	}
}
