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

// Package tagging attaches named labels to knowledge items.
//
// Candidates arrive from connectors and from inference; the associator
// resolves each candidate name to a tag row (creating it on first sight) and
// merges the association so a repeated candidate can only raise the stored
// confidence, never lower it.
package tagging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/storage"
)

// Associator applies tag candidates to knowledge items.
type Associator struct {
	tagRepository storage.TagRepository
	logger        *slog.Logger
}

// Option configures an Associator.
type Option func(*Associator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Associator) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAssociator creates a new associator.
func NewAssociator(tagRepository storage.TagRepository, opts ...Option) (*Associator, error) {
	if tagRepository == nil {
		return nil, ErrTagRepositoryRequired
	}

	a := &Associator{
		tagRepository: tagRepository,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Apply resolves each candidate to a tag and merges its association with the
// item. Candidates with empty names are skipped; a failing candidate does not
// abort the rest.
func (a *Associator) Apply(ctx context.Context, itemID core.ID, candidates []core.TagCandidate) ([]*core.TagAssociation, error) {
	var applied []*core.TagAssociation
	for _, candidate := range candidates {
		name := normalizeTagName(candidate.Name)
		if name == "" {
			continue
		}

		tag, err := a.tagRepository.GetOrCreateTag(ctx, name)
		if err != nil {
			a.logger.Warn("failed to resolve tag", "name", name, "err", err)
			continue
		}

		assoc, err := a.tagRepository.UpsertAssociation(ctx, itemID, tag.Id, candidate.Confidence)
		if err != nil {
			a.logger.Warn("failed to associate tag", "name", name, "itemID", itemID, "err", err)
			continue
		}
		applied = append(applied, assoc)
	}
	return applied, nil
}

// Assign records a human tag assignment at full confidence.
func (a *Associator) Assign(ctx context.Context, itemID core.ID, name string) (*core.TagAssociation, error) {
	name = normalizeTagName(name)
	if name == "" {
		return nil, core.ErrEmptyTagName
	}
	tag, err := a.tagRepository.GetOrCreateTag(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.tagRepository.UpsertAssociation(ctx, itemID, tag.Id, 1.0)
}

// normalizeTagName lowercases and trims a candidate name so "Performance"
// and "performance" land on the same tag row.
func normalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
