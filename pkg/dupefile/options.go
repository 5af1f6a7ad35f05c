package dupefile

import (
	"log/slog"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
)

const (
	// DefaultMaxFileSize bounds the size of a dupe file on disk.
	DefaultMaxFileSize = 64 << 20
	// DefaultMaxPayloadSize bounds the decompressed payload.
	DefaultMaxPayloadSize = 512 << 20
)

type loadConfig struct {
	maxFileSize    int64
	maxPayloadSize int64
	maxDepth       int
	logger         *slog.Logger
}

// LoadOption configures Load and LoadBytes.
type LoadOption func(*loadConfig)

// WithMaxFileSize rejects larger inputs with ErrFileTooLarge. n <= 0 removes
// the limit.
func WithMaxFileSize(n int64) LoadOption {
	return func(c *loadConfig) { c.maxFileSize = n }
}

// WithMaxPayloadSize caps the decompressed payload. n <= 0 removes the limit.
func WithMaxPayloadSize(n int64) LoadOption {
	return func(c *loadConfig) { c.maxPayloadSize = n }
}

func WithMaxDepth(depth int) LoadOption {
	return func(c *loadConfig) { c.maxDepth = depth }
}

func WithLogger(l *slog.Logger) LoadOption {
	return func(c *loadConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func newLoadConfig(opts []LoadOption) *loadConfig {
	c := &loadConfig{
		maxFileSize:    DefaultMaxFileSize,
		maxPayloadSize: DefaultMaxPayloadSize,
		maxDepth:       dupecodec.DefaultMaxDepth,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
