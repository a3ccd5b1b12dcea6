package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/fauna/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMonitorRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewMetricsMonitor(reg)
	require.NoError(t, err)

	_, err = NewMetricsMonitor(reg)
	assert.Error(t, err)
}

func TestMetricsMonitorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsMonitor(reg)
	require.NoError(t, err)

	idx := &fakeIndex{
		results:     []*core.SpeciesRecord{rec("lion", core.Mammal, ""), rec("eagle", core.Bird, "")},
		categoryErr: map[core.TypeLabel]error{core.Bird: errors.New("unavailable")},
	}
	s := newTestSearcher(t, idx)

	_, err = s.Search(context.Background(), "lion", &Options{Monitor: m})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("index")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.queries.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.related.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.related.WithLabelValues("failed")))
	assert.Empty(t, m.startedAt)
}

func TestMetricsMonitorDuration(t *testing.T) {
	m, err := NewMetricsMonitor(prometheus.NewRegistry())
	require.NoError(t, err)

	now := time.Unix(100, 0)
	m.now = func() time.Time { return now }

	m.Start("req-1", "lion")
	now = now.Add(250 * time.Millisecond)
	m.Finish(&Result{RequestID: "req-1"})

	// Unknown requests and nil results are ignored.
	m.Finish(&Result{RequestID: "req-2"})
	m.Finish(nil)

	assert.Empty(t, m.startedAt)

	expected := `
# HELP fauna_search_duration_seconds Search latency from start to finish.
# TYPE fauna_search_duration_seconds summary
fauna_search_duration_seconds_sum 0.25
fauna_search_duration_seconds_count 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.duration, strings.NewReader(expected)))
}
