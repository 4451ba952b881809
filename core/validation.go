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

package core

import "fmt"

// ValidateSource validates a KnowledgeSource according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Kind must be a known connector kind
//   - Interval must be positive
//   - Config must be present, match Kind, and validate against its schema
//
// NOT validated:
//   - Id (0 is valid before the source is persisted)
//   - LastSync (zero means the source has never synced)
func ValidateSource(source *KnowledgeSource) error {
	if source == nil {
		return fmt.Errorf("%w: source is nil", ErrInvalidSource)
	}

	if source.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSource, ErrEmptySourceName)
	}

	if err := ValidateSourceKind(source.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	if source.Interval <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSource, ErrInvalidInterval)
	}

	if source.Config == nil {
		return fmt.Errorf("%w: %w: missing", ErrInvalidSource, ErrInvalidConfiguration)
	}
	if source.Config.Kind() != source.Kind {
		return fmt.Errorf("%w: %w: source is %s, config is %s",
			ErrInvalidSource, ErrConfigKindMismatch, source.Kind, source.Config.Kind())
	}
	if err := source.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	return nil
}

// ValidateItem validates a KnowledgeItem according to domain rules.
//
// Validation rules:
//   - SourceId must be set
//   - Ref must not be empty
//   - Kind must be valid
//
// NOT validated (populated by the indexer and store):
//   - Index (empty until the indexer runs; an empty index simply never matches)
//   - Summary (derived from Content when absent)
func ValidateItem(item *KnowledgeItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if item.SourceId == 0 {
		return fmt.Errorf("%w: missing source id", ErrInvalidItem)
	}

	if item.Ref == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyRef)
	}

	if err := ValidateItemKind(item.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	return nil
}

// ValidateSourceKind validates that a SourceKind has a known value.
func ValidateSourceKind(kind SourceKind) error {
	switch kind {
	case SourceKindGitHub, SourceKindTracker, SourceKindChat, SourceKindFeed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidSourceKind, kind)
	}
}

// ValidateItemKind validates that an ItemKind has a known value.
func ValidateItemKind(kind ItemKind) error {
	switch kind {
	case ItemKindCommit, ItemKindIssue, ItemKindComment, ItemKindDocument:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidItemKind, kind)
	}
}

// ValidateTagCandidate validates a (tag name, confidence) candidate.
// Confidence outside [0,1] is not an error; it is clamped at association time.
func ValidateTagCandidate(candidate TagCandidate) error {
	if candidate.Name == "" {
		return ErrEmptyTagName
	}
	return nil
}
