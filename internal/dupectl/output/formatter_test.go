package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestNewFormatter(t *testing.T) {
	t.Run("returns TableFormatter for table format", func(t *testing.T) {
		_, ok := NewFormatter(FormatTable).(*TableFormatter)
		assert.True(t, ok)
	})

	t.Run("returns JSONFormatter for json format", func(t *testing.T) {
		_, ok := NewFormatter(FormatJSON).(*JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("returns TableFormatter for unknown format", func(t *testing.T) {
		_, ok := NewFormatter("unknown").(*TableFormatter)
		assert.True(t, ok)
	})
}

func sampleDetail() DupeDetail {
	return DupeDetail{
		Path:             "scenes/bridge.txt",
		Revision:         5,
		Size:             2048,
		SizeHuman:        "2.0 kB",
		PayloadSize:      1 << 20,
		PayloadSizeHuman: "1.0 MB",
		Info:             map[string]string{"check": "\r\n\t\n", "name": "bridge"},
		RootKind:         "table",
		TopLevelKeys:     []string{"HeadEnt", "Entities", "Constraints"},
		HeadEntity:       "1",
		EntityCount:      12,
		ConstraintCount:  3,
		Stats:            dupecodec.Stats{Tables: 40, Lists: 2, References: 7, MaxDepth: 5},
	}
}

func TestTableFormatter_WriteDupeDetail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).WriteDupeDetail(&buf, sampleDetail()))

	out := buf.String()
	assert.Contains(t, out, "Dupe Details")
	assert.Contains(t, out, "scenes/bridge.txt")
	assert.Contains(t, out, "1,048,576 bytes")
	assert.Contains(t, out, "HeadEnt, Entities, Constraints")
	assert.Contains(t, out, `"\r\n\t\n"`)
	assert.Contains(t, out, "bridge")
	assert.NotContains(t, out, "Trailing Bytes")
}

func TestTableFormatter_WriteValidationReport(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}

	require.NoError(t, f.WriteValidationReport(&buf, ValidationReport{Path: "a.txt", Revision: 4, Valid: true}))
	assert.Equal(t, "VALID a.txt (revision 4)\n", buf.String())

	buf.Reset()
	require.NoError(t, f.WriteValidationReport(&buf, ValidationReport{
		Path:     "b.txt",
		Revision: 5,
		Defects:  []string{"Missing Entities table", "Missing HeadEnt.Z table"},
	}))
	assert.Contains(t, buf.String(), "INVALID b.txt (revision 5): 2 defects")
	assert.Contains(t, buf.String(), "  - Missing HeadEnt.Z table\n")
}

func TestTableFormatter_WriteScanReport(t *testing.T) {
	var report ScanReport
	report.RunID = "2Hq1"
	report.Add(ScanEntry{Path: "a.txt", Status: StatusValid, Revision: 5, Size: 100})
	report.Add(ScanEntry{Path: "b.txt", Status: StatusInvalid, Revision: 4, Size: 50, Defects: 2, Cached: true})
	report.Add(ScanEntry{Path: "c.txt", Status: StatusError, ErrorKind: "bad_magic", Size: 3})

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Valid)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.CacheHits)
	assert.Equal(t, int64(153), report.TotalSize)

	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).WriteScanReport(&buf, report))
	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "bad_magic")
	assert.Contains(t, out, "Run:        2Hq1")
	assert.Contains(t, out, "  Invalid:  1")
}

func TestTableFormatter_WriteExportResult(t *testing.T) {
	result := ExportResult{
		DryRun:   true,
		Exported: []ExportedFile{{Source: "a.txt", Target: "out/a.json", Bytes: 4096}},
		Failed:   []ExportFailure{{Source: "b.txt", ErrorKind: "bad_magic", Error: "bad signature"}},
	}

	var buf bytes.Buffer
	f := &TableFormatter{}
	require.NoError(t, f.WriteExportResult(&buf, result))
	assert.Contains(t, buf.String(), "[DRY RUN]")
	assert.Contains(t, buf.String(), "Would export a.txt -> out/a.json (4.1 kB)")
	assert.Contains(t, buf.String(), "ERROR b.txt: bad signature")

	buf.Reset()
	result.DryRun = false
	require.NoError(t, f.WriteExportResult(&buf, result))
	assert.Contains(t, buf.String(), "Exported a.txt")
	assert.Contains(t, buf.String(), "1 written, 1 failed")
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{}

	t.Run("dupe detail", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.WriteDupeDetail(&buf, sampleDetail()))

		var got DupeDetail
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, sampleDetail(), got)
	})

	t.Run("valid report has empty defects array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.WriteValidationReport(&buf, ValidationReport{Path: "a.txt", Valid: true}))
		assert.Contains(t, buf.String(), `"defects": []`)
	})

	t.Run("empty scan", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.WriteScanReport(&buf, ScanReport{StartedAt: time.Unix(0, 0).UTC()}))
		assert.Contains(t, buf.String(), `"files": []`)
	})

	t.Run("export result", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.WriteExportResult(&buf, ExportResult{DryRun: true, OutputDir: "out"}))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, true, got["dry_run"])
		assert.Equal(t, []any{}, got["exported"])
		assert.NotContains(t, got, "failed")
	})
}
