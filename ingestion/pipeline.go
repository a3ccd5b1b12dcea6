package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/fauna/core"
	"github.com/poiesic/fauna/storage"
	"github.com/poiesic/fauna/taxonomy"
)

// DefaultBatchSize is the number of records written per catalog transaction.
const DefaultBatchSize = 100

// Pipeline orchestrates the enrichment and storage of species records.
// Enrichment runs concurrently on a worker pool.
type Pipeline struct {
	repository storage.SpeciesRepository
	enricher   *Enricher
	pool       *ants.Pool
	batchSize  int
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent enrichment.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many records are stored per transaction.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithClassifier sets the classifier used to categorize records.
// Default is taxonomy.Default().
func WithClassifier(classifier *taxonomy.Classifier) Option {
	return func(p *Pipeline) error {
		p.enricher = NewEnricher(classifier)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline storing into repository.
func NewPipeline(repository storage.SpeciesRepository, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrSpeciesRepositoryRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		enricher:   NewEnricher(nil),
		pool:       pool,
		batchSize:  DefaultBatchSize,
		logger:     slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// IngestResult summarizes one Ingest call.
type IngestResult struct {
	Received int // records handed to Ingest
	Skipped  int // records rejected by enrichment
	Stored   int // records written to the catalog
}

// Ingest enriches records and stores them, replacing any earlier version of
// the same species. Records that fail enrichment are logged and skipped.
// When the same URL appears more than once the last occurrence wins.
func (p *Pipeline) Ingest(ctx context.Context, records []RawRecord) (IngestResult, error) {
	result := IngestResult{Received: len(records)}
	enriched := make([]*core.SpeciesRecord, len(records))

	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			record, err := p.enricher.Enrich(records[i])
			if err != nil {
				p.logger.Warn("skipping record", "err", err)
				return
			}
			enriched[i] = record
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return result, fmt.Errorf("submitting enrichment task: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	batch := dedupe(enriched)
	result.Skipped = countNil(enriched)

	for start := 0; start < len(batch); start += p.batchSize {
		end := min(start+p.batchSize, len(batch))
		stored, err := p.repository.PutSpecies(ctx, batch[start:end]...)
		if err != nil {
			return result, fmt.Errorf("storing species batch: %w", err)
		}
		result.Stored += len(stored)
	}

	p.logger.Info("ingested species",
		"received", result.Received, "skipped", result.Skipped, "stored", result.Stored)
	return result, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// dedupe drops nil entries and keeps the last record for each ID, in order
// of that last appearance.
func dedupe(records []*core.SpeciesRecord) []*core.SpeciesRecord {
	last := make(map[string]int, len(records))
	for i, r := range records {
		if r != nil {
			last[r.ID] = i
		}
	}
	out := make([]*core.SpeciesRecord, 0, len(last))
	for i, r := range records {
		if r != nil && last[r.ID] == i {
			out = append(out, r)
		}
	}
	return out
}

func countNil(records []*core.SpeciesRecord) int {
	n := 0
	for _, r := range records {
		if r == nil {
			n++
		}
	}
	return n
}
