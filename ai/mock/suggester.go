package mock

import (
	"context"
	"strings"

	"github.com/lodeworks/lodestone/ai"
	"github.com/lodeworks/lodestone/core"
)

// MockTagSuggester is a test double for ai.TagSuggester.
// It allows custom behavior injection via function fields.
type MockTagSuggester struct {
	// SuggestTagsFunc is called by SuggestTags if set.
	// If nil, uses default simple word extraction.
	SuggestTagsFunc func(ctx context.Context, text string) ([]core.TagCandidate, error)

	callCount int
}

var _ ai.TagSuggester = (*MockTagSuggester)(nil)

// NewMockTagSuggester creates a mock tag suggester with default behavior.
func NewMockTagSuggester() *MockTagSuggester {
	return &MockTagSuggester{}
}

// SuggestTags proposes simple mock tags from text.
// Default behavior: the first few words become tags with decreasing confidence.
func (m *MockTagSuggester) SuggestTags(ctx context.Context, text string) ([]core.TagCandidate, error) {
	m.callCount++

	if m.SuggestTagsFunc != nil {
		return m.SuggestTagsFunc(ctx, text)
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return []core.TagCandidate{}, nil
	}

	candidates := make([]core.TagCandidate, 0, len(words))
	confidence := 0.9
	for i, word := range words {
		if i >= 3 { // Limit to 3 tags
			break
		}
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" {
			continue
		}
		candidates = append(candidates, core.TagCandidate{
			Name:       word,
			Confidence: confidence,
		})
		if confidence > 0.2 {
			confidence -= 0.2
		}
	}

	return candidates, nil
}

// CallCount returns the number of times SuggestTags was called.
func (m *MockTagSuggester) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockTagSuggester) Reset() {
	m.callCount = 0
	m.SuggestTagsFunc = nil
}
