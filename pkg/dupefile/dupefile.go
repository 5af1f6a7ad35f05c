// Package dupefile loads dupe files from disk: envelope, decompression and
// value decoding in one call.
package dupefile

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
	"github.com/ankur-anand/dupekit/pkg/envelope"
	"github.com/ankur-anand/dupekit/pkg/validator"
	"github.com/edsrzf/mmap-go"
)

// Dupe is a fully decoded dupe file.
type Dupe struct {
	Root     dupecodec.Value
	Info     envelope.Info
	Revision int
	// Path is empty for LoadBytes.
	Path string
	// Size is the size of the file as stored.
	Size int64
	// PayloadSize is the decompressed payload length.
	PayloadSize int64
	// TrailingBytes counts payload bytes after the root value.
	TrailingBytes int64
	Stats         dupecodec.Stats
}

// Validate checks the decoded graph. See validator.Validate.
func (d *Dupe) Validate() ([]string, error) {
	return validator.Validate(d.Root, d.Info)
}

// Load reads and decodes the file at path. The file is memory mapped for the
// duration of the call; the returned Dupe holds no reference to it.
func Load(path string, opts ...LoadOption) (*Dupe, error) {
	cfg := newLoadConfig(opts)
	start := time.Now()
	d, err := loadFile(path, cfg)
	if err != nil {
		err = fmt.Errorf("load %s: %w", path, err)
	}
	record(cfg, path, d, err, time.Since(start))
	return d, err
}

// LoadBytes decodes an in-memory dupe file. raw is only borrowed.
func LoadBytes(raw []byte, opts ...LoadOption) (*Dupe, error) {
	cfg := newLoadConfig(opts)
	start := time.Now()
	d, err := decode(raw, cfg)
	record(cfg, "", d, err, time.Since(start))
	return d, err
}

func loadFile(path string, cfg *loadConfig) (*Dupe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat error: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	size := fi.Size()
	if cfg.maxFileSize > 0 && size > cfg.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, cfg.maxFileSize)
	}
	// empty files cannot be mapped
	if size == 0 {
		return decode(nil, cfg)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap error: %w", err)
	}
	defer func() {
		if err := data.Unmap(); err != nil {
			cfg.logger.Warn("[dupekit.dupefile] unmap failed", "path", path, "error", err)
		}
	}()

	d, err := decode(data, cfg)
	if err != nil {
		return nil, err
	}
	d.Path = path
	return d, nil
}

func decode(raw []byte, cfg *loadConfig) (*Dupe, error) {
	if cfg.maxFileSize > 0 && int64(len(raw)) > cfg.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(raw), cfg.maxFileSize)
	}
	env, err := envelope.Parse(raw)
	if err != nil {
		return nil, err
	}
	grammar, err := dupecodec.GrammarFor(env.Revision)
	if err != nil {
		return nil, err
	}
	payload, err := env.Decompress(cfg.maxPayloadSize)
	if err != nil {
		return nil, err
	}

	dec := dupecodec.NewDecoder(payload, grammar, dupecodec.WithMaxDepth(cfg.maxDepth))
	root, err := dec.Read()
	if err != nil {
		return nil, fmt.Errorf("decode revision %d payload: %w", env.Revision, err)
	}

	return &Dupe{
		Root:          root,
		Info:          env.Info,
		Revision:      env.Revision,
		Size:          int64(len(raw)),
		PayloadSize:   int64(len(payload)),
		TrailingBytes: int64(len(payload) - dec.Offset()),
		Stats:         dec.Stats(),
	}, nil
}

func record(cfg *loadConfig, path string, d *Dupe, err error, elapsed time.Duration) {
	m := newLoadMetrics()
	m.loads.Inc(1)
	m.duration.Record(elapsed)
	if err != nil {
		kind := ErrorKind(err)
		m.failures(kind).Inc(1)
		cfg.logger.Debug("[dupekit.dupefile] load failed",
			slog.String("path", path),
			slog.String("kind", kind),
			slog.Any("error", err))
		return
	}
	m.bytes.Inc(d.Size)
	m.payloadBytes.Inc(d.PayloadSize)
	cfg.logger.Debug("[dupekit.dupefile] loaded",
		slog.String("path", path),
		slog.Int("revision", d.Revision),
		slog.Int64("size", d.Size),
		slog.Int64("payload_size", d.PayloadSize),
		slog.Int("tables", d.Stats.Tables),
		slog.Int("references", d.Stats.References),
		slog.Duration("elapsed", elapsed))
}
