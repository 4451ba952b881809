// Copyright 2025 Lodeworks
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/lodeworks/lodestone/ai"
	"github.com/lodeworks/lodestone/core"
)

// TagSuggester implements ai.TagSuggester using OpenAI-compatible chat APIs.
type TagSuggester struct {
	client        llms.Model
	minConfidence float64
	maxConfidence float64
	logger        *slog.Logger
}

// suggestion is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type suggestion struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// analysis is the wrapper structure for the LLM's JSON response.
type analysis struct {
	Tags []suggestion `json:"tags"`
}

// newTagSuggester is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTagSuggester(config *ai.Config) (*TagSuggester, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return &TagSuggester{
		client:        client,
		minConfidence: config.MinConfidence,
		maxConfidence: config.MaxConfidence,
		logger:        slog.Default().With("component", "openai-suggester"),
	}, nil
}

// NewTagSuggester creates a new tag suggester using the provided configuration.
//
// Returns ai.TagSuggester interface to enforce abstraction.
func NewTagSuggester(config *ai.Config) (ai.TagSuggester, error) {
	return newTagSuggester(config)
}

// SuggestTags proposes tags for the text using an LLM.
// Candidates below the minimum confidence are dropped; the rest are capped at
// the configured maximum so inference never claims full confidence.
func (s *TagSuggester) SuggestTags(ctx context.Context, text string) ([]core.TagCandidate, error) {
	text = scrubString(text)

	systemPrompt := buildSystemPrompt()
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result analysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			s.logger.Debug("no choices returned from model")
			return []core.TagCandidate{}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			s.logger.Warn("error parsing suggester response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		s.logger.Error("failed to parse suggester response after retries", "err", lastErr)
		return nil, lastErr
	}

	// Filter by confidence and convert to core.TagCandidate
	candidates := make([]core.TagCandidate, 0, len(result.Tags))
	for _, t := range result.Tags {
		confidence := core.ClampConfidence(t.Confidence)
		if confidence < s.minConfidence {
			continue
		}
		if confidence > s.maxConfidence {
			confidence = s.maxConfidence
		}
		name := strings.TrimSpace(strings.ToLower(t.Tag))
		if name == "" {
			continue
		}
		candidates = append(candidates, core.TagCandidate{
			Name:       name,
			Confidence: confidence,
		})
	}

	// Sort by confidence (descending)
	slices.SortFunc(candidates, func(a, b core.TagCandidate) int {
		if a.Confidence == b.Confidence {
			return 0
		}
		if a.Confidence < b.Confidence {
			return 1
		}
		return -1
	})

	s.logger.Debug("suggested tags",
		"total", len(result.Tags),
		"filtered", len(candidates))

	return candidates, nil
}
