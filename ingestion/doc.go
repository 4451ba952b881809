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

// Package ingestion orchestrates sync jobs over knowledge sources.
//
// The Scheduler periodically scans for due sources, claims one sync job per
// source (the storage layer's job slot guarantees exclusivity) and dispatches
// each job to a worker pool. The Runner executes one job: it pulls records
// from the source's connector starting at the last committed checkpoint,
// normalizes and upserts them, applies tag candidates, and finalizes the job.
//
// Checkpoint and last-sync advancement are tied to job success: a failed job
// preserves its partial item writes but leaves the cursor where the previous
// successful run committed it. Re-pulling those records is safe because
// upserts are idempotent by (source id, ref).
//
// Retryable pull errors (rate limits, transient faults) are retried with
// exponential backoff within the job, resuming from the stream's last
// reported cursor. Authentication errors fail the job immediately.
package ingestion
