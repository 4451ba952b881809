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

package badger

// Repositories bundles every repository backed by one Backend.
type Repositories struct {
	Sources     *SourceRepository
	Items       *ItemRepository
	Jobs        *JobRepository
	Tags        *TagRepository
	Checkpoints *CheckpointRepository

	backend *Backend
}

// NewRepositories opens all repositories over a shared backend.
// Caller must Close when done.
func NewRepositories(backend *Backend) (*Repositories, error) {
	sources, err := NewSourceRepository(backend)
	if err != nil {
		return nil, err
	}
	items, err := NewItemRepository(backend)
	if err != nil {
		sources.Close()
		return nil, err
	}
	jobs, err := NewJobRepository(backend)
	if err != nil {
		items.Close()
		sources.Close()
		return nil, err
	}
	tags, err := NewTagRepository(backend)
	if err != nil {
		jobs.Close()
		items.Close()
		sources.Close()
		return nil, err
	}

	return &Repositories{
		Sources:     sources,
		Items:       items,
		Jobs:        jobs,
		Tags:        tags,
		Checkpoints: NewCheckpointRepository(backend),
		backend:     backend,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	repos, err := NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repos, nil
}

// Close releases every repository and the backend.
func (r *Repositories) Close() error {
	r.Tags.Close()
	r.Jobs.Close()
	r.Items.Close()
	r.Sources.Close()
	return r.backend.Close()
}
