package logutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"strings"
)

// SamplingHandler passes records through with a per-level probability. Levels
// without a configured percentage are always logged.
type SamplingHandler struct {
	handler       slog.Handler
	levelPercents map[slog.Level]float64
	minLevel      slog.Level
	roll          func() float64
}

// NewSamplingHandler wraps handler. Records below minLevel are dropped.
func NewSamplingHandler(handler slog.Handler, levelPercents map[slog.Level]float64, minLevel slog.Level) *SamplingHandler {
	return &SamplingHandler{
		handler:       handler,
		levelPercents: maps.Clone(levelPercents),
		minLevel:      minLevel,
		roll:          rand.Float64,
	}
}

func (h *SamplingHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level < h.minLevel {
		return false
	}
	percent, ok := h.levelPercents[level]
	if !ok {
		return true
	}
	return h.roll()*100 < percent
}

func (h *SamplingHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *SamplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.handler = h.handler.WithAttrs(attrs)
	return &c
}

func (h *SamplingHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.handler = h.handler.WithGroup(name)
	return &c
}

// Config is the log section of the dupectl config file.
type Config struct {
	LogLevel         string             `toml:"log_level"`
	MinLevelPercents map[string]float64 `toml:"min_level_percents"`
}

// NewLogger builds a text logger writing to w.
func NewLogger(w io.Writer, cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	percents, err := ParseLevelPercents(cfg.MinLevelPercents)
	if err != nil {
		return nil, err
	}
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewSamplingHandler(text, percents, level)), nil
}

// Discard is a logger that writes nothing.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", levelStr)
	}
}

// ParseLevelPercents converts config level names to slog levels. Unlisted
// levels are logged at 100%.
func ParseLevelPercents(in map[string]float64) (map[slog.Level]float64, error) {
	out := make(map[slog.Level]float64, len(in))
	for k, v := range in {
		level, err := ParseLevel(k)
		if err != nil || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("unknown log level: %s", k)
		}
		if v < 0 || v > 100 {
			return nil, fmt.Errorf("log level %s: percent %v out of range [0, 100]", k, v)
		}
		out[level] = v
	}
	return out, nil
}
