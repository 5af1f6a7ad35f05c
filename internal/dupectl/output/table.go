package output

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// TableFormatter outputs data in human-readable table format.
type TableFormatter struct{}

var (
	validColor   = color.New(color.FgGreen)
	invalidColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

func statusText(status string) string {
	switch status {
	case StatusValid:
		return validColor.Sprint(strings.ToUpper(status))
	case StatusInvalid:
		return invalidColor.Sprint(strings.ToUpper(status))
	default:
		return errorColor.Sprint(strings.ToUpper(status))
	}
}

// quoteControl makes info values with control bytes readable.
func quoteControl(s string) string {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return strconv.Quote(s)
		}
	}
	return s
}

// WriteDupeDetail writes the header and summary of a dupe file.
func (f *TableFormatter) WriteDupeDetail(w io.Writer, detail DupeDetail) error {
	fmt.Fprintln(w, "Dupe Details")
	fmt.Fprintln(w, "============")
	fmt.Fprintf(w, "Path:           %s\n", detail.Path)
	fmt.Fprintf(w, "Revision:       %d\n", detail.Revision)
	fmt.Fprintf(w, "Size:           %s (%s bytes)\n", detail.SizeHuman, humanize.Comma(detail.Size))
	fmt.Fprintf(w, "Payload:        %s (%s bytes)\n", detail.PayloadSizeHuman, humanize.Comma(detail.PayloadSize))
	if detail.TrailingBytes > 0 {
		fmt.Fprintf(w, "Trailing Bytes: %s\n", humanize.Comma(detail.TrailingBytes))
	}
	fmt.Fprintf(w, "Root:           %s\n", detail.RootKind)
	fmt.Fprintf(w, "Top-Level Keys: %s\n", strings.Join(detail.TopLevelKeys, ", "))
	if detail.HeadEntity != "" {
		fmt.Fprintf(w, "Head Entity:    %s\n", detail.HeadEntity)
	}
	fmt.Fprintf(w, "Entities:       %s\n", humanize.Comma(int64(detail.EntityCount)))
	fmt.Fprintf(w, "Constraints:    %s\n", humanize.Comma(int64(detail.ConstraintCount)))
	if detail.Legacy {
		fmt.Fprintln(w, "Legacy:         yes")
	}

	s := detail.Stats
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Decoder")
	fmt.Fprintf(w, "  Tables:       %s\n", humanize.Comma(int64(s.Tables)))
	fmt.Fprintf(w, "  Lists:        %s\n", humanize.Comma(int64(s.Lists)))
	fmt.Fprintf(w, "  Strings:      %s\n", humanize.Comma(int64(s.Strings)))
	fmt.Fprintf(w, "  References:   %s\n", humanize.Comma(int64(s.References)))
	fmt.Fprintf(w, "  Max Depth:    %d\n", s.MaxDepth)

	if len(detail.Info) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Info")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	keys := make([]string, 0, len(detail.Info))
	for k := range detail.Info {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%s\n", quoteControl(k), quoteControl(detail.Info[k]))
	}
	return tw.Flush()
}

// WriteValidationReport writes one line per defect.
func (f *TableFormatter) WriteValidationReport(w io.Writer, report ValidationReport) error {
	if report.Valid {
		fmt.Fprintf(w, "%s %s (revision %d)\n", statusText(StatusValid), report.Path, report.Revision)
		return nil
	}
	fmt.Fprintf(w, "%s %s (revision %d): %d defects\n",
		statusText(StatusInvalid), report.Path, report.Revision, len(report.Defects))
	for _, d := range report.Defects {
		fmt.Fprintf(w, "  - %s\n", d)
	}
	return nil
}

// WriteScanReport writes the per-file table followed by totals.
func (f *TableFormatter) WriteScanReport(w io.Writer, report ScanReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tREV\tSIZE\tDEFECTS\tCACHED\tPATH\tERROR")
	for _, e := range report.Files {
		rev := "-"
		if e.Revision > 0 {
			rev = strconv.Itoa(e.Revision)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\t%s\n",
			statusText(e.Status),
			rev,
			humanize.Bytes(uint64(e.Size)),
			e.Defects,
			e.Cached,
			e.Path,
			e.ErrorKind,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run:        %s\n", report.RunID)
	fmt.Fprintf(w, "Root:       %s\n", report.Root)
	fmt.Fprintf(w, "Files:      %s (%s)\n", humanize.Comma(int64(report.Total)), report.TotalSizeHuman)
	fmt.Fprintf(w, "  Valid:    %s\n", humanize.Comma(int64(report.Valid)))
	fmt.Fprintf(w, "  Invalid:  %s\n", humanize.Comma(int64(report.Invalid)))
	fmt.Fprintf(w, "  Failed:   %s\n", humanize.Comma(int64(report.Failed)))
	fmt.Fprintf(w, "Cache Hits: %s\n", humanize.Comma(int64(report.CacheHits)))
	fmt.Fprintf(w, "Duration:   %s\n", report.Duration.Round(time.Millisecond))
	return nil
}

// WriteExportResult writes export operation result.
func (f *TableFormatter) WriteExportResult(w io.Writer, result ExportResult) error {
	if result.DryRun {
		fmt.Fprintln(w, "[DRY RUN] The following would be exported:")
		fmt.Fprintln(w)
	}

	action := "Exported"
	if result.DryRun {
		action = "Would export"
	}
	for _, e := range result.Exported {
		fmt.Fprintf(w, "%s %s -> %s (%s)\n", action, e.Source, e.Target, humanize.Bytes(uint64(e.Bytes)))
	}
	for _, e := range result.Failed {
		fmt.Fprintf(w, "%s %s: %s\n", statusText(StatusError), e.Source, e.Error)
	}
	fmt.Fprintln(w)

	if result.DryRun {
		fmt.Fprintln(w, "Run without --dry-run to write the dumps.")
	} else {
		fmt.Fprintf(w, "Export completed: %d written, %d failed.\n", len(result.Exported), len(result.Failed))
	}
	return nil
}
