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

// Package index derives the weighted full-text index of a knowledge item.
//
// Each indexed field of an item is a zone with a fixed weight (title is
// strongest, author weakest). The indexer tokenizes every zone and emits
// postings recording which token occurred where; the same tokenizer is used
// on queries so index-time and query-time normalization never drift.
package index
