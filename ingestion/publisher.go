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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/fauna/core"
	"github.com/poiesic/fauna/storage"
)

// PublishCheckpoint is the checkpoint name used by Publisher.
const PublishCheckpoint = "publish:species"

// Indexer receives catalog records for the search index.
type Indexer interface {
	Index(ctx context.Context, records ...*core.SpeciesRecord) error
}

// Publisher copies catalog records into the search index.
type Publisher struct {
	species     storage.SpeciesRepository
	checkpoints storage.CheckpointRepository
	indexer     Indexer
	batchSize   int
	logger      *slog.Logger
}

// NewPublisher creates a Publisher. batchSize below 1 selects DefaultBatchSize.
func NewPublisher(
	species storage.SpeciesRepository,
	checkpoints storage.CheckpointRepository,
	indexer Indexer,
	batchSize int,
	logger *slog.Logger,
) (*Publisher, error) {
	if species == nil {
		return nil, ErrSpeciesRepositoryRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		species:     species,
		checkpoints: checkpoints,
		indexer:     indexer,
		batchSize:   batchSize,
		logger:      logger.With("component", "publisher"),
	}, nil
}

// Publish sends records updated since the last checkpoint to the index and
// advances the checkpoint after every batch. The watermark only moves to an
// updated-at value once every record carrying it has been sent. With full set the checkpoint is
// ignored and the whole catalog is sent. It returns the number of records sent.
func (p *Publisher) Publish(ctx context.Context, full bool) (int, error) {
	checkpoint, err := p.checkpoints.LoadCheckpoint(ctx, PublishCheckpoint)
	if err != nil {
		return 0, fmt.Errorf("loading checkpoint: %w", err)
	}
	if checkpoint == nil {
		checkpoint = &core.Checkpoint{Name: PublishCheckpoint}
	}

	var since time.Time
	if !full && !checkpoint.Watermark.IsZero() {
		// Updated-at values are stored with microsecond precision.
		since = checkpoint.Watermark.Add(time.Microsecond)
	}

	records, err := p.species.GetSpeciesUpdatedSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("reading updated species: %w", err)
	}

	sent := 0
	for start := 0; start < len(records); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		batch := records[start:min(start+p.batchSize, len(records))]
		if err := p.indexer.Index(ctx, batch...); err != nil {
			return sent, fmt.Errorf("indexing species batch: %w", err)
		}
		sent += len(batch)

		if mark, ok := completedWatermark(records, sent); ok && mark.After(checkpoint.Watermark) {
			checkpoint.Watermark = mark
		}
		checkpoint.Processed += uint64(len(batch))
		if err := p.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
			return sent, fmt.Errorf("saving checkpoint: %w", err)
		}
	}

	p.logger.Info("published species", "sent", sent, "full", full, "watermark", checkpoint.Watermark)
	return sent, nil
}

// completedWatermark returns the newest updated-at value among records[:sent]
// that no unsent record shares. records must be ordered oldest first.
func completedWatermark(records []*core.SpeciesRecord, sent int) (time.Time, bool) {
	i := sent - 1
	if sent < len(records) {
		next := records[sent].UpdatedAt
		for i >= 0 && records[i].UpdatedAt.Equal(next) {
			i--
		}
	}
	if i < 0 {
		return time.Time{}, false
	}
	return records[i].UpdatedAt, true
}
