package umetrics

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/uber-go/tally/v4"
)

// ErrAlreadyInitialized is returned by Initialize while a previous registry is still open.
var ErrAlreadyInitialized = errors.New("umetrics: registry already initialized")

var (
	mu             sync.RWMutex
	globalRegistry = &Registry{scope: tally.NoopScope, commonTags: map[string]string{}}
)

// Registry holds the global metrics configuration.
type Registry struct {
	scope      tally.Scope
	commonTags map[string]string
}

// Options for configuring the metrics registry.
type Options struct {
	Prefix         string
	Reporter       tally.CachedStatsReporter
	ReportInterval time.Duration
	CommonTags     map[string]string
	InitTime       time.Time
}

// Initialize installs a root scope reporting to opts.Reporter. Closing the
// returned closer flushes pending values and puts the noop scope back.
func Initialize(opts Options) (io.Closer, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalRegistry.scope != tally.NoopScope {
		return nil, ErrAlreadyInitialized
	}
	if opts.InitTime.IsZero() {
		opts.InitTime = time.Now().UTC()
	}
	if opts.CommonTags == nil {
		opts.CommonTags = make(map[string]string)
	}

	scope, scopeCloser := tally.NewRootScope(tally.ScopeOptions{
		Prefix:         opts.Prefix,
		Tags:           opts.CommonTags,
		CachedReporter: opts.Reporter,
		Separator:      "_",
	}, opts.ReportInterval)

	scope.Gauge("process_start_time_seconds").Update(float64(opts.InitTime.Unix()))
	globalRegistry = &Registry{
		scope:      scope,
		commonTags: opts.CommonTags,
	}
	return &registryCloser{scope: scope, closer: scopeCloser}, nil
}

type registryCloser struct {
	once   sync.Once
	scope  tally.Scope
	closer io.Closer
}

func (c *registryCloser) Close() error {
	var err error
	c.once.Do(func() {
		err = c.closer.Close()
		mu.Lock()
		if globalRegistry.scope == c.scope {
			globalRegistry = &Registry{scope: tally.NoopScope, commonTags: map[string]string{}}
		}
		mu.Unlock()
	})
	return err
}

// GetScope returns a scoped metrics collector for a specific package.
//
//nolint:ireturn
func GetScope(packageName string) tally.Scope {
	mu.RLock()
	defer mu.RUnlock()
	return globalRegistry.scope.SubScope(packageName)
}

// GetTaggedScope returns a scoped metrics collector with additional tags.
//
//nolint:ireturn
func GetTaggedScope(packageName string, tags map[string]string) tally.Scope {
	return GetScope(packageName).Tagged(tags)
}

// CommonTags returns a copy of the tags attached to every metric.
func CommonTags() map[string]string {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]string, len(globalRegistry.commonTags))
	for k, v := range globalRegistry.commonTags {
		out[k] = v
	}
	return out
}
