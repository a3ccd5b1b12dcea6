package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/fauna/cache"
	"github.com/poiesic/fauna/core"
	"github.com/poiesic/fauna/index"
	"github.com/poiesic/fauna/intent"
	"github.com/poiesic/fauna/relevance"
)

const (
	// DefaultTopN is the number of hits that receive related recommendations.
	DefaultTopN = 3

	// DefaultCandidatePool is the number of same-category records ranked for recommendations.
	DefaultCandidatePool = 30
)

// Index is the search index surface used by Searcher.
type Index interface {
	Search(ctx context.Context, q index.Query) ([]*core.SpeciesRecord, error)
	ByCategory(ctx context.Context, label core.TypeLabel, size int) ([]*core.SpeciesRecord, error)
}

var _ Index = (*index.Searcher)(nil)

// Searcher answers free-text species queries.
type Searcher struct {
	index         Index
	parser        *intent.Parser
	cache         cache.ResultCache
	pool          *ants.Pool
	rows          int
	topN          int
	relatedLimit  int
	candidatePool int
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithParser sets the query intent parser.
// Default is intent.Default().
func WithParser(parser *intent.Parser) Option {
	return func(s *Searcher) error {
		if parser != nil {
			s.parser = parser
		}
		return nil
	}
}

// WithCache caches index result lists in c. Default is no caching.
func WithCache(c cache.ResultCache) Option {
	return func(s *Searcher) error {
		s.cache = c
		return nil
	}
}

// WithPoolSize sets the worker pool size for related fetches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithRows sets how many hits are requested from the index.
// Default is index.DefaultSize.
func WithRows(rows int) Option {
	return func(s *Searcher) error {
		if rows < 1 {
			return fmt.Errorf("rows must be positive, got %d", rows)
		}
		s.rows = rows
		return nil
	}
}

// WithTopN sets how many hits are returned as top results.
// Default is DefaultTopN.
func WithTopN(n int) Option {
	return func(s *Searcher) error {
		if n < 0 {
			return fmt.Errorf("top n must not be negative, got %d", n)
		}
		s.topN = n
		return nil
	}
}

// WithRelatedLimit sets how many recommendations each top hit receives.
// Default is relevance.DefaultK.
func WithRelatedLimit(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return fmt.Errorf("related limit must be positive, got %d", k)
		}
		s.relatedLimit = k
		return nil
	}
}

// WithCandidatePool sets how many same-category records are ranked for recommendations.
// Default is DefaultCandidatePool.
func WithCandidatePool(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			return fmt.Errorf("candidate pool must be positive, got %d", size)
		}
		s.candidatePool = size
		return nil
	}
}

// NewSearcher creates a new searcher over idx.
func NewSearcher(idx Index, opts ...Option) (*Searcher, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		index:         idx,
		parser:        intent.Default(),
		pool:          pool,
		rows:          index.DefaultSize,
		topN:          DefaultTopN,
		relatedLimit:  relevance.DefaultK,
		candidatePool: DefaultCandidatePool,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")

	return s, nil
}

// Options holds optional parameters for a single search.
type Options struct {
	Refinement relevance.Refinement // bounds applied to the index results
	Monitor    SearchMonitor        // receives progress callbacks; may be nil
}

// Hit is a top result with its related recommendations.
type Hit struct {
	Record  *core.SpeciesRecord
	Related []*core.SpeciesRecord
}

// Result is the answer to a search.
type Result struct {
	RequestID  string
	Intent     core.QueryIntent
	Predicates []core.RangePredicate
	Top        []Hit
	Clusters   []core.Cluster // groups the results after the top hits
	Total      int            // results after refinement
}

// Search runs query through intent parsing, the index, refinement and
// recommendation. opts may be nil.
func (s *Searcher) Search(ctx context.Context, query string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	result := &Result{RequestID: uuid.New().String()}
	monitor.Start(result.RequestID, query)
	defer monitor.Finish(result)

	logger := s.logger.With("request_id", result.RequestID)

	// 1. Parse intent
	result.Intent = s.parser.Parse(query)
	result.Predicates = s.parser.Predicates(result.Intent)
	monitor.AfterIntentParsing(result.Intent, result.Predicates)

	// 2. Query the index
	records, cached, err := s.fetch(ctx, index.Query{
		Text:       query,
		Predicates: result.Predicates,
		Size:       s.rows,
	})
	if err != nil {
		logger.Error("error querying index", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterIndexQuery(records, cached)

	// 3. Refine
	refined := opts.Refinement.Apply(records)
	monitor.AfterRefinement(len(refined), len(records)-len(refined))
	result.Total = len(refined)

	// 4. Split into top hits and clusters
	top := refined[:min(s.topN, len(refined))]
	result.Clusters = relevance.Cluster(refined[len(top):])

	// 5. Related recommendations
	result.Top = s.relatedForAll(ctx, top, monitor, logger)

	logger.Debug("search finished",
		"query", query, "cached", cached, "results", len(records), "refined", result.Total,
		"clusters", len(result.Clusters))
	return result, nil
}

// Related returns up to the configured number of records most similar to
// base, drawn from a pool of records sharing its primary category.
func (s *Searcher) Related(ctx context.Context, base *core.SpeciesRecord) ([]*core.SpeciesRecord, error) {
	if base == nil {
		return nil, ErrRecordRequired
	}
	label := base.Category()
	if label == "" {
		label = core.Animal
	}
	candidates, err := s.index.ByCategory(ctx, label, s.candidatePool)
	if err != nil {
		return nil, fmt.Errorf("fetching %s candidates: %w", label, err)
	}
	return relevance.Rank(base, candidates, s.relatedLimit), nil
}

// Release releases resources including the worker pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// fetch returns the index results for q, consulting the cache first when one is set.
func (s *Searcher) fetch(ctx context.Context, q index.Query) ([]*core.SpeciesRecord, bool, error) {
	if s.cache == nil {
		records, err := s.index.Search(ctx, q)
		return records, false, err
	}

	key := cacheKey(q)
	records, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		return records, true, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("cache read failed", "err", err)
	}

	records, err = s.index.Search(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, key, records); err != nil {
		s.logger.Warn("cache write failed", "err", err)
	}
	return records, false, nil
}

// relatedForAll fetches recommendations for every hit on the worker pool.
func (s *Searcher) relatedForAll(ctx context.Context, top []*core.SpeciesRecord, monitor SearchMonitor, logger *slog.Logger) []Hit {
	hits := make([]Hit, len(top))
	var wg sync.WaitGroup
	for i, record := range top {
		hits[i].Record = record
		wg.Add(1)
		task := func() {
			defer wg.Done()
			related, err := s.Related(ctx, record)
			if err != nil {
				logger.Warn("error fetching related species", "id", record.ID, "err", err)
				monitor.RelatedFailed(record, err)
				return
			}
			hits[i].Related = related
			monitor.RelatedFetched(record, related)
		}
		if err := s.pool.Submit(task); err != nil {
			logger.Warn("related fetch not scheduled", "id", record.ID, "err", err)
			wg.Done()
			monitor.RelatedFailed(record, err)
		}
	}
	wg.Wait()
	return hits
}

// cacheKey identifies q in the result cache.
func cacheKey(q index.Query) string {
	parts := []string{"search", q.Text, strconv.Itoa(q.Size)}
	for _, p := range q.Predicates {
		parts = append(parts,
			string(p.Field),
			strconv.Itoa(int(p.Kind)),
			strconv.FormatFloat(p.Lo, 'g', -1, 64),
			strconv.FormatFloat(p.Hi, 'g', -1, 64),
		)
	}
	return cache.Key(parts...)
}
