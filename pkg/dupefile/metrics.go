package dupefile

import (
	"github.com/ankur-anand/dupekit/pkg/umetrics"
	"github.com/uber-go/tally/v4"
)

const metricsScope = "dupefile"

type loadMetrics struct {
	scope        tally.Scope
	loads        tally.Counter
	bytes        tally.Counter
	payloadBytes tally.Counter
	duration     tally.Timer
}

// newLoadMetrics resolves the scope per load so a registry initialized after
// startup is picked up.
func newLoadMetrics() loadMetrics {
	scope := umetrics.GetScope(metricsScope)
	return loadMetrics{
		scope:        scope,
		loads:        scope.Counter("loads_total"),
		bytes:        scope.Counter("file_bytes_total"),
		payloadBytes: scope.Counter("payload_bytes_total"),
		duration:     scope.Timer("load_duration"),
	}
}

func (m loadMetrics) failures(kind string) tally.Counter {
	return m.scope.Tagged(map[string]string{"kind": kind}).Counter("failures_total")
}
