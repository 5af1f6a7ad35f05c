package umetrics_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ankur-anand/dupekit/pkg/umetrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"
)

type mockReporter struct {
	mu       sync.Mutex
	counters []reportedCounter
	gauges   []reportedGauge
	timers   []string
}

type reportedCounter struct {
	name  string
	tags  map[string]string
	value int64
}

type reportedGauge struct {
	name  string
	value float64
}

type mockMetric struct {
	reporter *mockReporter
	name     string
	tags     map[string]string
}

func (m *mockMetric) ReportCount(value int64) {
	m.reporter.mu.Lock()
	defer m.reporter.mu.Unlock()
	m.reporter.counters = append(m.reporter.counters, reportedCounter{m.name, m.tags, value})
}

func (m *mockMetric) ReportGauge(value float64) {
	m.reporter.mu.Lock()
	defer m.reporter.mu.Unlock()
	m.reporter.gauges = append(m.reporter.gauges, reportedGauge{m.name, value})
}

func (m *mockMetric) ReportTimer(time.Duration) {
	m.reporter.mu.Lock()
	defer m.reporter.mu.Unlock()
	m.reporter.timers = append(m.reporter.timers, m.name)
}

func (r *mockReporter) AllocateCounter(name string, tags map[string]string) tally.CachedCount {
	return &mockMetric{reporter: r, name: name, tags: tags}
}

func (r *mockReporter) AllocateGauge(name string, tags map[string]string) tally.CachedGauge {
	return &mockMetric{reporter: r, name: name, tags: tags}
}

func (r *mockReporter) AllocateTimer(name string, tags map[string]string) tally.CachedTimer {
	return &mockMetric{reporter: r, name: name, tags: tags}
}

func (r *mockReporter) AllocateHistogram(string, map[string]string, tally.Buckets) tally.CachedHistogram {
	panic("histograms are not used")
}

func (r *mockReporter) Capabilities() tally.Capabilities { return r }
func (r *mockReporter) Reporting() bool                  { return true }
func (r *mockReporter) Tagging() bool                    { return true }
func (r *mockReporter) Flush()                           {}

func (r *mockReporter) hasCounter(name string, match func(reportedCounter) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.counters {
		if c.name == name && match(c) {
			return true
		}
	}
	return false
}

func (r *mockReporter) hasGauge(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.gauges {
		if g.name == name && g.value > 0 {
			return true
		}
	}
	return false
}

// Subtests share the global registry and must run in order.
func TestUMetrics(t *testing.T) {
	reporter := &mockReporter{}

	t.Run("noop_before_initialize", func(t *testing.T) {
		scope := umetrics.GetScope("dupefile")
		scope.Counter("loads_total").Inc(1)
		assert.Empty(t, umetrics.CommonTags())
	})

	closer, err := umetrics.Initialize(umetrics.Options{
		Prefix:         "testing",
		Reporter:       reporter,
		ReportInterval: time.Millisecond,
		CommonTags:     map[string]string{"run_id": "abc"},
	})
	require.NoError(t, err)
	require.NotNil(t, closer)

	t.Run("get_scope_emits_expected_metric", func(t *testing.T) {
		umetrics.GetScope("dupefile").Counter("loads_total").Inc(1)

		assert.Eventually(t, func() bool {
			return reporter.hasCounter("testing_dupefile_loads_total", func(c reportedCounter) bool {
				return c.value == 1 && c.tags["run_id"] == "abc"
			})
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("get_tagged_scope_applies_tags", func(t *testing.T) {
		umetrics.GetTaggedScope("dupefile", map[string]string{"kind": "bad_magic"}).
			Counter("failures_total").Inc(1)

		assert.Eventually(t, func() bool {
			return reporter.hasCounter("testing_dupefile_failures_total", func(c reportedCounter) bool {
				return c.tags["kind"] == "bad_magic"
			})
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("startup_time_gauge_reported", func(t *testing.T) {
		assert.Eventually(t, func() bool {
			return reporter.hasGauge("testing_process_start_time_seconds")
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("initialize_while_open_fails", func(t *testing.T) {
		again, err := umetrics.Initialize(umetrics.Options{Prefix: "another", Reporter: reporter})
		require.ErrorIs(t, err, umetrics.ErrAlreadyInitialized)
		assert.Nil(t, again)
		assert.Equal(t, map[string]string{"run_id": "abc"}, umetrics.CommonTags())
	})

	t.Run("close_restores_noop", func(t *testing.T) {
		require.NoError(t, closer.Close())
		require.NoError(t, closer.Close())
		assert.Empty(t, umetrics.CommonTags())

		next, err := umetrics.Initialize(umetrics.Options{Prefix: "next", Reporter: reporter})
		require.NoError(t, err)
		require.NoError(t, next.Close())
	})
}
