package scan

import (
	"fmt"
	"io"
	"time"

	"github.com/ankur-anand/dupekit/pkg/umetrics"
	"github.com/prometheus/client_golang/prometheus"
	promreporter "github.com/uber-go/tally/v4/prometheus"
)

const metricsPrefix = "dupekit"

// textfileMetrics routes the global metrics registry into a Prometheus
// registry for the duration of a scan and writes it out in the node
// exporter textfile format.
type textfileMetrics struct {
	path     string
	registry *prometheus.Registry
	closer   io.Closer
}

func startTextfileMetrics(path string) (*textfileMetrics, error) {
	registry := prometheus.NewRegistry()
	reporter := promreporter.NewReporter(promreporter.Options{Registerer: registry})
	closer, err := umetrics.Initialize(umetrics.Options{
		Prefix:         metricsPrefix,
		Reporter:       reporter,
		ReportInterval: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("init scan metrics: %w", err)
	}
	return &textfileMetrics{path: path, registry: registry, closer: closer}, nil
}

// finish flushes pending values and writes the textfile.
func (m *textfileMetrics) finish() error {
	if err := m.closer.Close(); err != nil {
		return fmt.Errorf("flush scan metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// abort releases the registry without writing anything.
func (m *textfileMetrics) abort() {
	_ = m.closer.Close()
}
