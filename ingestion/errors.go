package ingestion

import "errors"

var (
	// ErrSpeciesRepositoryRequired is returned when a species repository is not provided.
	ErrSpeciesRepositoryRequired = errors.New("species repository required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")

	// ErrIndexerRequired is returned when a publisher is created without an index.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrMissingName is returned for records without a species name.
	ErrMissingName = errors.New("record has no name")

	// ErrMissingURL is returned for records without a source URL.
	ErrMissingURL = errors.New("record has no url")
)
