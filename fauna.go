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

// Package fauna wires the species catalog, the ingestion pipeline, the
// search index and the query-time searcher together.
package fauna

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/fauna/cache"
	"github.com/poiesic/fauna/index"
	"github.com/poiesic/fauna/ingestion"
	"github.com/poiesic/fauna/intent"
	"github.com/poiesic/fauna/search"
	"github.com/poiesic/fauna/storage"
	"github.com/poiesic/fauna/storage/badger"
	"github.com/poiesic/fauna/taxonomy"
	"github.com/prometheus/client_golang/prometheus"
)

type Catalog struct {
	backend        *badger.Backend
	speciesRepo    storage.SpeciesRepository
	checkpointRepo storage.CheckpointRepository
	client         *index.Client
	indexer        *index.Indexer
	finder         *index.Searcher
	cache          cache.ResultCache
	classifier     *taxonomy.Classifier
	parser         *intent.Parser
	metrics        *search.MetricsMonitor
	logger         *slog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogOptions)

type catalogOptions struct {
	inMemory    bool
	indexConfig *index.Config
	cache       cache.ResultCache
	classifier  *taxonomy.Classifier
	parser      *intent.Parser
	registerer  prometheus.Registerer
	logger      *slog.Logger
}

// WithInMemory keeps the catalog in memory. The path passed to NewCatalog is ignored.
func WithInMemory() CatalogOption {
	return func(o *catalogOptions) {
		o.inMemory = true
	}
}

// WithIndexConfig sets the search index connection. Default is index.DefaultConfig().
func WithIndexConfig(cfg *index.Config) CatalogOption {
	return func(o *catalogOptions) {
		o.indexConfig = cfg
	}
}

// WithCache caches index result lists. The catalog closes c on Close and
// invalidates it after every publish that sends records.
func WithCache(c cache.ResultCache) CatalogOption {
	return func(o *catalogOptions) {
		o.cache = c
	}
}

// WithClassifier sets the classifier used during ingestion. Default is taxonomy.Default().
func WithClassifier(classifier *taxonomy.Classifier) CatalogOption {
	return func(o *catalogOptions) {
		o.classifier = classifier
	}
}

// WithParser sets the query intent parser. Default is intent.Default().
func WithParser(parser *intent.Parser) CatalogOption {
	return func(o *catalogOptions) {
		o.parser = parser
	}
}

// WithMetrics registers search metrics with reg and attaches them to every
// search that does not bring its own monitor.
func WithMetrics(reg prometheus.Registerer) CatalogOption {
	return func(o *catalogOptions) {
		o.registerer = reg
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) CatalogOption {
	return func(o *catalogOptions) {
		o.logger = logger
	}
}

// NewCatalog opens the catalog stored at filePath and prepares the index
// client. The index cluster is not contacted until it is used.
func NewCatalog(filePath string, opts ...CatalogOption) (*Catalog, error) {
	options := &catalogOptions{
		indexConfig: index.DefaultConfig(),
		classifier:  taxonomy.Default(),
		parser:      intent.Default(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory, options.logger)
	if err != nil {
		return nil, err
	}

	// Create index client, indexer and searcher
	client, err := index.NewClient(options.indexConfig, options.logger)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("invalid index configuration: %w", err)
	}
	indexer, err := index.NewIndexer(client, nil)
	if err != nil {
		backend.Close()
		return nil, err
	}
	finder, err := index.NewSearcher(client, nil)
	if err != nil {
		backend.Close()
		return nil, err
	}

	var metrics *search.MetricsMonitor
	if options.registerer != nil {
		if metrics, err = search.NewMetricsMonitor(options.registerer); err != nil {
			backend.Close()
			return nil, fmt.Errorf("registering search metrics: %w", err)
		}
	}

	return &Catalog{
		backend:        backend,
		speciesRepo:    badger.NewSpeciesRepository(backend),
		checkpointRepo: badger.NewCheckpointRepository(backend),
		client:         client,
		indexer:        indexer,
		finder:         finder,
		cache:          options.cache,
		classifier:     options.classifier,
		parser:         options.parser,
		metrics:        metrics,
		logger:         options.logger,
	}, nil
}

func (c *Catalog) Close() error {
	// Close cache first
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.logger.Error("error closing result cache", "err", err)
		}
	}

	// Close repository
	if err := c.speciesRepo.Close(); err != nil {
		c.logger.Error("error closing species repository", "err", err)
		return err
	}

	// Close backend
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (c *Catalog) SpeciesRepository() storage.SpeciesRepository {
	return c.speciesRepo
}

func (c *Catalog) CheckpointRepository() storage.CheckpointRepository {
	return c.checkpointRepo
}

func (c *Catalog) IndexClient() *index.Client {
	return c.client
}

// Metrics returns the search metrics monitor, or nil without WithMetrics.
func (c *Catalog) Metrics() *search.MetricsMonitor {
	return c.metrics
}

// NewIngestionPipeline creates a pipeline storing into the catalog. opts are
// applied after the catalog's classifier and logger.
func (c *Catalog) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithClassifier(c.classifier),
		ingestion.WithLogger(c.logger),
	}
	return ingestion.NewPipeline(c.speciesRepo, append(base, opts...)...)
}

// NewPublisher creates a publisher from the catalog to the search index.
func (c *Catalog) NewPublisher(batchSize int) (*ingestion.Publisher, error) {
	return ingestion.NewPublisher(c.speciesRepo, c.checkpointRepo, c.indexer, batchSize, c.logger)
}

// Publish makes sure the index exists, sends changed records to it and
// invalidates the result cache when anything was sent.
func (c *Catalog) Publish(ctx context.Context, full bool, batchSize int) (int, error) {
	if err := c.client.EnsureIndex(ctx); err != nil {
		return 0, err
	}
	publisher, err := c.NewPublisher(batchSize)
	if err != nil {
		return 0, err
	}
	sent, err := publisher.Publish(ctx, full)
	if sent > 0 && c.cache != nil {
		if cacheErr := c.cache.Invalidate(ctx); cacheErr != nil {
			c.logger.Warn("error invalidating result cache", "err", cacheErr)
		}
	}
	return sent, err
}

// NewSearcher creates a searcher over the index. opts are applied after the
// catalog's parser, cache and logger.
func (c *Catalog) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithParser(c.parser),
		search.WithLogger(c.logger),
	}
	if c.cache != nil {
		base = append(base, search.WithCache(c.cache))
	}
	return search.NewSearcher(c.finder, append(base, opts...)...)
}

// Search runs a single query with a fresh searcher. The catalog's metrics
// monitor is used when opts carries none.
func (c *Catalog) Search(ctx context.Context, query string, opts *search.Options) (*search.Result, error) {
	searcher, err := c.NewSearcher()
	if err != nil {
		return nil, err
	}
	defer searcher.Release()

	if opts == nil {
		opts = &search.Options{}
	}
	if opts.Monitor == nil && c.metrics != nil {
		withMetrics := *opts
		withMetrics.Monitor = c.metrics
		opts = &withMetrics
	}
	return searcher.Search(ctx, query, opts)
}
