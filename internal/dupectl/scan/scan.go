// Package scan checks every dupe file below a directory with a bounded pool
// of workers.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/ankur-anand/dupekit/internal/dupectl/output"
	"github.com/ankur-anand/dupekit/pkg/dupefile"
	"github.com/ankur-anand/dupekit/pkg/umetrics"
	"github.com/dustin/go-humanize"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
)

// DefaultExtensions are the file extensions dupe files are saved with.
var DefaultExtensions = []string{".txt", ".dupe"}

// Options configures Run.
type Options struct {
	Root string
	// Extensions to include, matched case-insensitively. Empty means
	// DefaultExtensions.
	Extensions []string
	// Workers bounds concurrent loads. Zero means GOMAXPROCS.
	Workers int
	// CachePath enables the bbolt result cache when set.
	CachePath string
	// MetricsTextfile enables Prometheus textfile output when set.
	MetricsTextfile string
	Load            []dupefile.LoadOption
	Logger          *slog.Logger
}

type file struct {
	path    string
	size    int64
	modTime time.Time
}

// Run scans opts.Root. Per-file failures are part of the report; the error
// return is for problems with the scan itself.
func Run(ctx context.Context, opts Options) (*output.ScanReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	report := &output.ScanReport{
		RunID:     ksuid.New().String(),
		Root:      opts.Root,
		StartedAt: time.Now().UTC(),
		Files:     []output.ScanEntry{},
	}
	logger = logger.With("run_id", report.RunID)

	files, err := collect(opts.Root, exts)
	if err != nil {
		return nil, err
	}

	var cache *resultCache
	if opts.CachePath != "" {
		cache, err = openCache(opts.CachePath)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
	}

	var metrics *textfileMetrics
	if opts.MetricsTextfile != "" {
		metrics, err = startTextfileMetrics(opts.MetricsTextfile)
		if err != nil {
			return nil, err
		}
	}

	entries := make([]output.ScanEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i] = check(f, cache, opts.Load, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if metrics != nil {
			metrics.abort()
		}
		return nil, fmt.Errorf("scan %s: %w", opts.Root, err)
	}

	if cache != nil {
		var freshFiles []file
		var fresh []output.ScanEntry
		for i, e := range entries {
			if !e.Cached {
				freshFiles = append(freshFiles, files[i])
				fresh = append(fresh, e)
			}
		}
		if err := cache.put(freshFiles, fresh); err != nil {
			logger.Warn("[dupekit.scan] cache update failed", "error", err)
		}
	}

	scope := umetrics.GetScope("scan")
	for _, e := range entries {
		report.Add(e)
		scope.Tagged(map[string]string{"status": e.Status}).Counter("files_total").Inc(1)
	}
	report.TotalSizeHuman = humanize.Bytes(uint64(report.TotalSize))
	report.Duration = time.Since(report.StartedAt)
	scope.Counter("cache_hits_total").Inc(int64(report.CacheHits))
	scope.Timer("duration").Record(report.Duration)

	logger.Info("[dupekit.scan] finished",
		"root", opts.Root,
		"files", report.Total,
		"valid", report.Valid,
		"invalid", report.Invalid,
		"failed", report.Failed,
		"cache_hits", report.CacheHits,
		"duration", report.Duration)

	if metrics != nil {
		if err := metrics.finish(); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func check(f file, cache *resultCache, load []dupefile.LoadOption, logger *slog.Logger) output.ScanEntry {
	if cache != nil {
		if e, ok := cache.get(f); ok {
			e.Cached = true
			return e
		}
	}

	entry := output.ScanEntry{Path: f.path, Size: f.size}
	d, err := dupefile.Load(f.path, load...)
	if err == nil {
		entry.Revision = d.Revision
		var defects []string
		defects, err = d.Validate()
		entry.Defects = len(defects)
	}

	switch {
	case err != nil:
		entry.Status = output.StatusError
		entry.ErrorKind = dupefile.ErrorKind(err)
		entry.Error = err.Error()
	case entry.Defects > 0:
		entry.Status = output.StatusInvalid
	default:
		entry.Status = output.StatusValid
	}
	logger.Info("[dupekit.scan] checked",
		"path", f.path,
		"status", entry.Status,
		"defects", entry.Defects,
		"kind", entry.ErrorKind)
	return entry
}

// collect returns matching regular files below root in lexical order.
func collect(root string, exts []string) ([]file, error) {
	want := make([]string, len(exts))
	for i, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[i] = e
	}

	var files []file
	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !de.Type().IsRegular() {
			return nil
		}
		if !slices.Contains(want, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		fi, err := de.Info()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		files = append(files, file{path: path, size: fi.Size(), modTime: fi.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
