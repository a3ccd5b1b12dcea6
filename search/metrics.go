package search

import (
	"sync"
	"time"

	"github.com/poiesic/fauna/core"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsMonitor is a SearchMonitor that records Prometheus metrics.
type MetricsMonitor struct {
	searches  prometheus.Counter
	queries   *prometheus.CounterVec
	hits      prometheus.Histogram
	refined   prometheus.Counter
	related   *prometheus.CounterVec
	duration  prometheus.Summary
	mu        sync.Mutex
	startedAt map[string]time.Time
	now       func() time.Time
}

var _ SearchMonitor = (*MetricsMonitor)(nil)

// NewMetricsMonitor creates a MetricsMonitor and registers its collectors with reg.
func NewMetricsMonitor(reg prometheus.Registerer) (*MetricsMonitor, error) {
	m := &MetricsMonitor{
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fauna",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Number of search requests started.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fauna",
			Subsystem: "search",
			Name:      "result_lists_total",
			Help:      "Result lists obtained, by origin (index or cache).",
		}, []string{"origin"}),
		hits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fauna",
			Subsystem: "search",
			Name:      "result_list_size",
			Help:      "Number of records in a result list before refinement.",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
		}),
		refined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fauna",
			Subsystem: "search",
			Name:      "refined_out_total",
			Help:      "Records removed by refinement bounds.",
		}),
		related: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fauna",
			Subsystem: "search",
			Name:      "related_fetches_total",
			Help:      "Related recommendation fetches, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "fauna",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search latency from start to finish.",
		}),
		startedAt: make(map[string]time.Time),
		now:       time.Now,
	}

	for _, c := range []prometheus.Collector{m.searches, m.queries, m.hits, m.refined, m.related, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsMonitor) Start(requestID, _ string) {
	m.searches.Inc()
	m.mu.Lock()
	m.startedAt[requestID] = m.now()
	m.mu.Unlock()
}

func (m *MetricsMonitor) AfterIntentParsing(_ core.QueryIntent, _ []core.RangePredicate) {}

func (m *MetricsMonitor) AfterIndexQuery(records []*core.SpeciesRecord, cached bool) {
	origin := "index"
	if cached {
		origin = "cache"
	}
	m.queries.WithLabelValues(origin).Inc()
	m.hits.Observe(float64(len(records)))
}

func (m *MetricsMonitor) AfterRefinement(_, dropped int) {
	m.refined.Add(float64(dropped))
}

func (m *MetricsMonitor) RelatedFetched(_ *core.SpeciesRecord, _ []*core.SpeciesRecord) {
	m.related.WithLabelValues("ok").Inc()
}

func (m *MetricsMonitor) RelatedFailed(_ *core.SpeciesRecord, _ error) {
	m.related.WithLabelValues("failed").Inc()
}

func (m *MetricsMonitor) Finish(result *Result) {
	if result == nil {
		return
	}
	m.mu.Lock()
	started, ok := m.startedAt[result.RequestID]
	delete(m.startedAt, result.RequestID)
	m.mu.Unlock()
	if ok {
		m.duration.Observe(m.now().Sub(started).Seconds())
	}
}
