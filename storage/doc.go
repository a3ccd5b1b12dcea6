// Copyright 2025 Poiesic Systems
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

// Package storage provides the catalog abstraction for enriched species records.
//
// The catalog is a staging store: ingestion writes enriched records here and
// the publisher pushes them to the external search index. Queries never read
// the catalog; they go through the index.
//
// # Architecture
//
//   - SpeciesRepository: full-replace writes, lookups by ID and category,
//     incremental scans by update time
//   - CheckpointRepository: progress markers for incremental jobs
//
// Records are encoded with mus-go (see serialization.go) and keyed by
// core.KeyFromContent of the record ID.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	repo := badger.NewSpeciesRepository(backend)
//
// Use in tests with in-memory storage:
//
//	species, checkpoints, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
