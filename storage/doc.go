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

// Package storage provides the storage abstraction layer for lodestone.
//
// This package defines repository interfaces that decouple the ingestion
// engine and search from the storage implementation, allowing different
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - SourceRepository: knowledge sources and the due-for-sync scan
//   - ItemRepository: canonical items, their derived token index, upserts
//   - JobRepository: sync job rows, the per-source job slot, transitions
//   - TagRepository: tags and item/tag associations
//   - CheckpointRepository: per-source ingestion cursors
//
// # Invariants enforced here
//
//   - (source id, source-local reference) is unique: item identity is derived
//     from the pair, so a second create of the same pair lands on the same
//     row and is resolved as an update or a skip.
//   - An item row and its derived token index are written in one transaction;
//     a reader never observes a half-indexed item.
//   - At most one non-terminal sync job exists per source, guarded by an
//     atomically claimed job-slot key in persistent state.
//   - Job status transitions are monotonic: pending -> running -> terminal.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
package storage
