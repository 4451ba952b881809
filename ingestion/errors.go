package ingestion

import "errors"

var (
	// ErrSourceRepositoryRequired is returned when a source repository is not provided.
	ErrSourceRepositoryRequired = errors.New("source repository required")

	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrJobRepositoryRequired is returned when a job repository is not provided.
	ErrJobRepositoryRequired = errors.New("job repository required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")

	// ErrRegistryRequired is returned when a connector registry is not provided.
	ErrRegistryRequired = errors.New("connector registry required")

	// ErrAssociatorRequired is returned when a tag associator is not provided.
	ErrAssociatorRequired = errors.New("tag associator required")

	// ErrSourceInactive is returned when a sync is requested for a
	// deactivated source.
	ErrSourceInactive = errors.New("source is inactive")
)
