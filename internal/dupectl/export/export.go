package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankur-anand/dupekit/internal/dupectl/dump"
	"github.com/ankur-anand/dupekit/internal/dupectl/output"
	"github.com/ankur-anand/dupekit/pkg/dupefile"
	"github.com/gofrs/flock"
)

// LockFileName is created in the output directory while an export runs.
const LockFileName = ".dupectl.lock"

var ErrLocked = errors.New("export: output directory is locked by another export")

// Options configures Run.
type Options struct {
	Sources   []string
	OutputDir string
	DryRun    bool
	Dump      dump.Options
	Load      []dupefile.LoadOption
	Logger    *slog.Logger
}

// acquireLock takes an exclusive lock on the output directory so two exports
// cannot interleave their writes.
func acquireLock(outputDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	fileLock := flock.New(filepath.Join(outputDir, LockFileName))
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return fileLock, nil
}

// Run decodes every source and writes one JSON dump per file into
// opts.OutputDir. Sources that fail to load are reported in the result and
// do not stop the export. With DryRun nothing is written and no lock is
// taken.
func Run(opts Options) (*output.ExportResult, error) {
	if opts.OutputDir == "" {
		return nil, errors.New("export: output directory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if !opts.DryRun {
		lock, err := acquireLock(opts.OutputDir)
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Unlock() }()
	}

	result := &output.ExportResult{
		DryRun:    opts.DryRun,
		OutputDir: opts.OutputDir,
	}
	targets := make(map[string]string, len(opts.Sources))

	for _, src := range opts.Sources {
		target := filepath.Join(opts.OutputDir, TargetName(src))
		if prev, ok := targets[target]; ok {
			result.Failed = append(result.Failed, output.ExportFailure{
				Source:    src,
				ErrorKind: "duplicate_target",
				Error:     fmt.Sprintf("%s is also written by %s", target, prev),
			})
			continue
		}
		targets[target] = src

		exported, err := exportOne(src, target, opts)
		if err != nil {
			logger.Warn("[dupekit.export] skipping file", "source", src, "error", err)
			result.Failed = append(result.Failed, output.ExportFailure{
				Source:    src,
				ErrorKind: dupefile.ErrorKind(err),
				Error:     err.Error(),
			})
			continue
		}
		logger.Debug("[dupekit.export] exported", "source", src, "target", target, "bytes", exported.Bytes)
		result.Exported = append(result.Exported, *exported)
	}
	return result, nil
}

// TargetName is the dump file name for src.
func TargetName(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

func exportOne(src, target string, opts Options) (*output.ExportedFile, error) {
	d, err := dupefile.Load(src, opts.Load...)
	if err != nil {
		return nil, err
	}
	defects, err := d.Validate()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dump.JSON(&buf, d.Root, opts.Dump); err != nil {
		return nil, fmt.Errorf("render %s: %w", src, err)
	}
	if !opts.DryRun {
		if err := writeFileAtomic(target, buf.Bytes()); err != nil {
			return nil, fmt.Errorf("write %s: %w", target, err)
		}
	}
	return &output.ExportedFile{
		Source:  src,
		Target:  target,
		Bytes:   int64(buf.Len()),
		Defects: len(defects),
	}, nil
}

func writeFileAtomic(dst string, data []byte) error {
	tmpDst := dst + ".tmp"
	dstFile, err := os.Create(tmpDst)
	if err != nil {
		return err
	}

	_, writeErr := dstFile.Write(data)
	syncErr := dstFile.Sync()
	closeErr := dstFile.Close()

	if err := errors.Join(writeErr, syncErr, closeErr); err != nil {
		os.Remove(tmpDst)
		return err
	}
	return os.Rename(tmpDst, dst)
}
