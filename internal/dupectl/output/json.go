package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter outputs data in JSON format.
type JSONFormatter struct{}

func (f *JSONFormatter) WriteDupeDetail(w io.Writer, detail DupeDetail) error {
	return writeJSON(w, detail)
}

func (f *JSONFormatter) WriteValidationReport(w io.Writer, report ValidationReport) error {
	if report.Defects == nil {
		report.Defects = []string{}
	}
	return writeJSON(w, report)
}

func (f *JSONFormatter) WriteScanReport(w io.Writer, report ScanReport) error {
	if report.Files == nil {
		report.Files = []ScanEntry{}
	}
	return writeJSON(w, report)
}

func (f *JSONFormatter) WriteExportResult(w io.Writer, result ExportResult) error {
	if result.Exported == nil {
		result.Exported = []ExportedFile{}
	}
	return writeJSON(w, result)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
