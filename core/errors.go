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

import "errors"

// Domain validation errors
var (
	// ErrInvalidSource indicates a KnowledgeSource failed validation.
	ErrInvalidSource = errors.New("invalid source")

	// ErrInvalidConfiguration indicates connector configuration that does not
	// validate against its kind's schema. Sources carrying it are rejected at
	// registration and never reach the scheduler.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidSourceKind indicates an unrecognized connector kind.
	ErrInvalidSourceKind = errors.New("invalid source kind")

	// ErrConfigKindMismatch indicates a configuration whose kind does not
	// match the source's declared kind.
	ErrConfigKindMismatch = errors.New("configuration kind mismatch")

	// ErrInvalidInterval indicates a sync interval that is not positive.
	ErrInvalidInterval = errors.New("sync interval must be positive")

	// ErrEmptySourceName indicates the source Name field is empty.
	ErrEmptySourceName = errors.New("source name cannot be empty")

	// ErrInvalidItem indicates a KnowledgeItem failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrEmptyRef indicates the source-local reference is empty.
	ErrEmptyRef = errors.New("source-local reference cannot be empty")

	// ErrInvalidItemKind indicates an invalid ItemKind value.
	ErrInvalidItemKind = errors.New("invalid item kind")

	// ErrEmptyTagName indicates a tag or tag candidate with no name.
	ErrEmptyTagName = errors.New("tag name cannot be empty")
)
