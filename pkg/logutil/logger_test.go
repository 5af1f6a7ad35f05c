package logutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, percent map[slog.Level]float64, min slog.Level, roll float64) *slog.Logger {
	text := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := NewSamplingHandler(text, percent, min)
	h.roll = func() float64 { return roll }
	return slog.New(h)
}

func TestSamplingHandler(t *testing.T) {
	t.Run("drops below min level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newTestLogger(&buf, nil, slog.LevelInfo, 0)

		logger.Debug("hidden")
		logger.Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("samples by percentage", func(t *testing.T) {
		var buf bytes.Buffer
		percents := map[slog.Level]float64{slog.LevelInfo: 25}

		newTestLogger(&buf, percents, slog.LevelDebug, 0.2).Info("kept")
		newTestLogger(&buf, percents, slog.LevelDebug, 0.3).Info("sampled out")
		newTestLogger(&buf, percents, slog.LevelDebug, 0.99).Warn("unlisted level")

		assert.Contains(t, buf.String(), "kept")
		assert.NotContains(t, buf.String(), "sampled out")
		assert.Contains(t, buf.String(), "unlisted level")
	})

	t.Run("keeps sampling with attrs and groups", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newTestLogger(&buf, map[slog.Level]float64{slog.LevelInfo: 0}, slog.LevelDebug, 0)

		logger.With("file", "a.txt").WithGroup("scan").Info("never")
		logger.With("file", "a.txt").Error("always", "kind", "bad_magic")

		assert.NotContains(t, buf.String(), "never")
		assert.Contains(t, buf.String(), "file=a.txt")
		assert.Contains(t, buf.String(), "kind=bad_magic")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, Config{LogLevel: "warn"})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	_, err = NewLogger(&buf, Config{LogLevel: "chatty"})
	require.Error(t, err)

	_, err = NewLogger(&buf, Config{MinLevelPercents: map[string]float64{"info": 150}})
	require.Error(t, err)
}

func TestParseLevelPercents(t *testing.T) {
	got, err := ParseLevelPercents(map[string]float64{"info": 10, "DEBUG": 1})
	require.NoError(t, err)
	assert.Equal(t, map[slog.Level]float64{slog.LevelInfo: 10, slog.LevelDebug: 1}, got)

	_, err = ParseLevelPercents(map[string]float64{"trace": 1})
	require.Error(t, err)

	_, err = ParseLevelPercents(map[string]float64{"": 1})
	require.Error(t, err)
}
