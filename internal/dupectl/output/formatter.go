package output

import (
	"io"
	"time"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Scan entry statuses.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

// DupeDetail describes a single decoded dupe file.
type DupeDetail struct {
	Path             string            `json:"path"`
	Revision         int               `json:"revision"`
	Size             int64             `json:"size"`
	SizeHuman        string            `json:"size_human"`
	PayloadSize      int64             `json:"payload_size"`
	PayloadSizeHuman string            `json:"payload_size_human"`
	TrailingBytes    int64             `json:"trailing_bytes,omitempty"`
	Info             map[string]string `json:"info"`
	Legacy           bool              `json:"legacy"`
	RootKind         string            `json:"root_kind"`
	TopLevelKeys     []string          `json:"top_level_keys"`
	HeadEntity       string            `json:"head_entity,omitempty"`
	EntityCount      int               `json:"entity_count"`
	ConstraintCount  int               `json:"constraint_count"`
	Stats            dupecodec.Stats   `json:"stats"`
}

// ValidationReport is the outcome of validating one file.
type ValidationReport struct {
	Path     string   `json:"path"`
	Revision int      `json:"revision"`
	Valid    bool     `json:"valid"`
	Defects  []string `json:"defects"`
}

// ScanEntry is one file of a scan.
type ScanEntry struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Revision  int    `json:"revision,omitempty"`
	Size      int64  `json:"size"`
	Defects   int    `json:"defects"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Cached    bool   `json:"cached"`
}

// ScanReport aggregates a directory scan.
type ScanReport struct {
	RunID          string        `json:"run_id"`
	Root           string        `json:"root"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
	Files          []ScanEntry   `json:"files"`
	Total          int           `json:"total"`
	Valid          int           `json:"valid"`
	Invalid        int           `json:"invalid"`
	Failed         int           `json:"failed"`
	CacheHits      int           `json:"cache_hits"`
	TotalSize      int64         `json:"total_size"`
	TotalSizeHuman string        `json:"total_size_human"`
}

// Add appends e and updates the totals.
func (r *ScanReport) Add(e ScanEntry) {
	r.Files = append(r.Files, e)
	r.Total++
	r.TotalSize += e.Size
	switch e.Status {
	case StatusValid:
		r.Valid++
	case StatusInvalid:
		r.Invalid++
	default:
		r.Failed++
	}
	if e.Cached {
		r.CacheHits++
	}
}

// ExportedFile is one JSON dump written, or that would be written.
type ExportedFile struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Bytes   int64  `json:"bytes"`
	Defects int    `json:"defects"`
}

// ExportFailure is a source that could not be exported.
type ExportFailure struct {
	Source    string `json:"source"`
	ErrorKind string `json:"error_kind"`
	Error     string `json:"error"`
}

// ExportResult contains the result of an export operation.
type ExportResult struct {
	DryRun    bool            `json:"dry_run"`
	OutputDir string          `json:"output_dir"`
	Exported  []ExportedFile  `json:"exported"`
	Failed    []ExportFailure `json:"failed,omitempty"`
}

// Formatter is the interface for output formatting.
type Formatter interface {
	WriteDupeDetail(w io.Writer, detail DupeDetail) error
	WriteValidationReport(w io.Writer, report ValidationReport) error
	WriteScanReport(w io.Writer, report ScanReport) error
	WriteExportResult(w io.Writer, result ExportResult) error
}

// NewFormatter creates a new formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return &TableFormatter{}
	}
}
