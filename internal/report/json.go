package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/coinhunter/internal/model"
)

// JSONWriter outputs reports as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version, when set, wraps the report in a JSONReport.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps the output in a JSONReport carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the versioned envelope of a report.
type JSONReport struct {
	// Version is the coinhunter version that produced the report.
	Version string `json:"version"`

	// Report is the scan report.
	Report *model.ScanReport `json:"report"`
}

// Write outputs the report as JSON followed by a newline.
func (w *JSONWriter) Write(report *model.ScanReport) (int, error) {
	if w.version != "" {
		return w.writeJSON(&JSONReport{Version: w.version, Report: report})
	}
	return w.writeJSON(report)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
