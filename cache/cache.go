// Package cache memoizes index result lists.
//
// Entries are keyed by a hash of the query text and its filter predicates and
// are dropped wholesale whenever the index is republished.
package cache

import (
	"context"
	"errors"

	"github.com/poiesic/fauna/core"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// ResultCache stores species result lists by key.
type ResultCache interface {
	// Get returns the records stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]*core.SpeciesRecord, error)

	// Set stores records under key.
	Set(ctx context.Context, key string, records []*core.SpeciesRecord) error

	// Invalidate drops every entry.
	Invalidate(ctx context.Context) error

	// Close releases the cache's resources.
	Close() error
}
