package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/fauna/core"
	"github.com/poiesic/fauna/storage"
)

// SpeciesRepository implements storage.SpeciesRepository for BadgerDB.
type SpeciesRepository struct {
	backend *Backend
}

var _ storage.SpeciesRepository = (*SpeciesRepository)(nil)

// NewSpeciesRepository creates a new SpeciesRepository.
func NewSpeciesRepository(backend *Backend) *SpeciesRepository {
	return &SpeciesRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *SpeciesRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *SpeciesRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutSpecies stores records, fully replacing earlier versions.
func (r *SpeciesRepository) PutSpecies(ctx context.Context, records ...*core.SpeciesRecord) ([]*core.SpeciesRecord, error) {
	for _, record := range records {
		if err := core.ValidateSpeciesRecord(record); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := record.Key()
			primaryKey := makeSpeciesKey(key)

			old, err := readSpecies(tx, primaryKey)
			if err != nil {
				return err
			}
			if old != nil {
				if err := deleteSpeciesIndex(tx, old); err != nil {
					return err
				}
				record.InsertedAt = old.InsertedAt
			}
			if record.InsertedAt.IsZero() {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			if err := tx.Set(primaryKey, storage.MarshalSpeciesRecord(record)); err != nil {
				return err
			}
			if err := updateSpeciesIndex(tx, record); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetSpecies retrieves a single record by ID.
func (r *SpeciesRepository) GetSpecies(ctx context.Context, id string) (*core.SpeciesRecord, error) {
	var result *core.SpeciesRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSpecies(tx, makeSpeciesKey(core.KeyFromContent(id)))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// GetSpeciesByCategory returns records carrying label in key order.
func (r *SpeciesRepository) GetSpeciesByCategory(ctx context.Context, label core.TypeLabel, limit int) ([]*core.SpeciesRecord, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", storage.ErrInvalidQuery)
	}
	var results []*core.SpeciesRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialSpeciesCategoryKey(label)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			record, err := readIndexed(tx, iter.Item())
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetSpeciesUpdatedSince returns records updated at or after since, oldest first.
func (r *SpeciesRepository) GetSpeciesUpdatedSince(ctx context.Context, since time.Time) ([]*core.SpeciesRecord, error) {
	var results []*core.SpeciesRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(speciesUpdatedPrefix + ":")
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(makePartialSpeciesUpdatedKey(since)); iter.ValidForPrefix(prefix); iter.Next() {
			record, err := readIndexed(tx, iter.Item())
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteSpecies removes records by ID together with their index entries.
func (r *SpeciesRepository) DeleteSpecies(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeSpeciesKey(core.KeyFromContent(id))

			record, err := readSpecies(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
			}
			if err := deleteSpeciesIndex(tx, record); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Scan calls fn for every stored record in key order.
func (r *SpeciesRepository) Scan(ctx context.Context, fn func(*core.SpeciesRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = speciesScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record *core.SpeciesRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalSpeciesRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Count returns the number of stored records.
func (r *SpeciesRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = speciesScanPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// readSpecies reads a species record from the transaction.
// Returns nil, nil when the key is absent.
func readSpecies(tx *badger.Txn, key []byte) (*core.SpeciesRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.SpeciesRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalSpeciesRecord(val)
		return unmarshalErr
	})
	return record, err
}

// readIndexed resolves an index entry to its record.
func readIndexed(tx *badger.Txn, item *badger.Item) (*core.SpeciesRecord, error) {
	var key core.Key
	if err := item.Value(func(val []byte) error {
		var err error
		key, err = storage.UnmarshalKey(val)
		return err
	}); err != nil {
		return nil, err
	}
	return readSpecies(tx, makeSpeciesKey(key))
}

// indexLabels returns the distinct categories of record.
func indexLabels(record *core.SpeciesRecord) []core.TypeLabel {
	labels := slices.Clone(record.Categories)
	slices.Sort(labels)
	return slices.Compact(labels)
}

// updateSpeciesIndex adds index entries for a record.
func updateSpeciesIndex(tx *badger.Txn, record *core.SpeciesRecord) error {
	key := record.Key()
	value := storage.MarshalKey(key)
	for _, label := range indexLabels(record) {
		if err := tx.Set(makeSpeciesCategoryKey(label, key), value); err != nil {
			return err
		}
	}
	return tx.Set(makeSpeciesUpdatedKey(record.UpdatedAt, key), value)
}

// deleteSpeciesIndex removes index entries for a record.
func deleteSpeciesIndex(tx *badger.Txn, record *core.SpeciesRecord) error {
	key := record.Key()
	for _, label := range indexLabels(record) {
		if err := tx.Delete(makeSpeciesCategoryKey(label, key)); err != nil {
			return err
		}
	}
	return tx.Delete(makeSpeciesUpdatedKey(record.UpdatedAt, key))
}
