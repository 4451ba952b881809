package ai

import (
	"context"

	"github.com/lodeworks/lodestone/core"
)

// TagSuggester proposes tags for knowledge item text.
// Implementations must be thread-safe for concurrent use.
type TagSuggester interface {
	// SuggestTags analyzes text and proposes tag candidates with confidence
	// scores. Confidences are in (0, 1); 1.0 is reserved for human
	// assignments and is never returned here.
	// Returns an empty slice if no tags apply.
	SuggestTags(ctx context.Context, text string) ([]core.TagCandidate, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// TagSuggester returns the tag inference service.
	// The returned TagSuggester is safe for concurrent use.
	TagSuggester() TagSuggester

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
