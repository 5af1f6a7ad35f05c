package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ankur-anand/dupekit/internal/etc"
	"github.com/ankur-anand/dupekit/pkg/dupefile"
	"github.com/ankur-anand/dupekit/pkg/logutil"
	"github.com/pelletier/go-toml/v2"
)

// Config : top-level dupectl configuration.
type Config struct {
	LogConfig    logutil.Config `toml:"log_config"`
	DecodeConfig DecodeConfig   `toml:"decode_config"`
	ScanConfig   ScanConfig     `toml:"scan_config"`
	OutputConfig OutputConfig   `toml:"output_config"`
}

// DecodeConfig limits what a single file may cost to load. Sizes accept
// values like "64MB".
type DecodeConfig struct {
	MaxFileSize    string `toml:"max_file_size"`
	MaxPayloadSize string `toml:"max_payload_size"`
	MaxDepth       int    `toml:"max_depth"`
}

type ScanConfig struct {
	Workers         int      `toml:"workers"`
	Extensions      []string `toml:"extensions"`
	CachePath       string   `toml:"cache_path"`
	MetricsTextfile string   `toml:"metrics_textfile"`
}

type OutputConfig struct {
	Format string `toml:"format"`
}

// Default is the configuration used when no file is given.
func Default() Config {
	return Config{
		LogConfig:    logutil.Config{LogLevel: "warn"},
		OutputConfig: OutputConfig{Format: "table"},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.OutputConfig.Format {
	case "table", "json":
	default:
		return fmt.Errorf("invalid output format %q: must be 'table' or 'json'", c.OutputConfig.Format)
	}
	if c.ScanConfig.Workers < 0 {
		return fmt.Errorf("scan_config.workers must not be negative, got %d", c.ScanConfig.Workers)
	}
	if c.DecodeConfig.MaxDepth < 0 {
		return fmt.Errorf("decode_config.max_depth must not be negative, got %d", c.DecodeConfig.MaxDepth)
	}
	if _, err := c.LoadOptions(nil); err != nil {
		return err
	}
	if _, err := logutil.ParseLevel(c.LogConfig.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadOptions converts the decode section into loader options. Unset fields
// keep the loader defaults.
func (c Config) LoadOptions(logger *slog.Logger) ([]dupefile.LoadOption, error) {
	var opts []dupefile.LoadOption
	if c.DecodeConfig.MaxFileSize != "" {
		n, err := etc.ParseSize(c.DecodeConfig.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("decode_config.max_file_size: %w", err)
		}
		opts = append(opts, dupefile.WithMaxFileSize(n))
	}
	if c.DecodeConfig.MaxPayloadSize != "" {
		n, err := etc.ParseSize(c.DecodeConfig.MaxPayloadSize)
		if err != nil {
			return nil, fmt.Errorf("decode_config.max_payload_size: %w", err)
		}
		opts = append(opts, dupefile.WithMaxPayloadSize(n))
	}
	if c.DecodeConfig.MaxDepth > 0 {
		opts = append(opts, dupefile.WithMaxDepth(c.DecodeConfig.MaxDepth))
	}
	if logger != nil {
		opts = append(opts, dupefile.WithLogger(logger))
	}
	return opts, nil
}
