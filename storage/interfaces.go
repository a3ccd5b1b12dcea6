package storage

import (
	"context"
	"time"

	"github.com/poiesic/fauna/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// SpeciesRepository stores enriched species records keyed by record ID.
type SpeciesRepository interface {
	Repository

	// PutSpecies stores records, replacing any existing record with the same ID
	// together with its index entries. InsertedAt is kept from the stored
	// record when present; UpdatedAt is always refreshed.
	PutSpecies(ctx context.Context, records ...*core.SpeciesRecord) ([]*core.SpeciesRecord, error)

	// GetSpecies retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetSpecies(ctx context.Context, id string) (*core.SpeciesRecord, error)

	// GetSpeciesByCategory returns the records carrying label, up to limit
	// (0 means no limit).
	GetSpeciesByCategory(ctx context.Context, label core.TypeLabel, limit int) ([]*core.SpeciesRecord, error)

	// GetSpeciesUpdatedSince returns records whose UpdatedAt is at or after
	// since, oldest first.
	GetSpeciesUpdatedSince(ctx context.Context, since time.Time) ([]*core.SpeciesRecord, error)

	// DeleteSpecies removes records and their index entries.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteSpecies(ctx context.Context, ids ...string) error

	// Scan calls fn for every stored record in key order. Iteration stops at
	// the first error returned by fn.
	Scan(ctx context.Context, fn func(*core.SpeciesRecord) error) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// CheckpointRepository persists progress markers for incremental jobs such as
// index publishing.
type CheckpointRepository interface {
	// SaveCheckpoint stores checkpoint under its Name.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the checkpoint stored under name.
	// Returns nil, nil if none exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)
}
