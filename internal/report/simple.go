package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/coinhunter/internal/model"
)

// SimpleWriter outputs a human-readable text report.
type SimpleWriter struct {
	baseWriter

	// verbose adds the signature ranking and the page of every finding.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables additional detail in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeFindings(&sb, report)
	if w.verbose {
		w.writeSignatures(&sb, report)
	}
	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        COINHUNTER REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:         %s\n", report.Target)
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Max Depth:      %d\n", report.MaxDepth)
	fmt.Fprintf(sb, "Threads:        %d\n", report.Threads)
	fmt.Fprintf(sb, "Signatures:     %d domains\n", report.SignatureCount)
	fmt.Fprintf(sb, "Pages Visited:  %d\n", report.PagesVisited)
	fmt.Fprintf(sb, "Matches Found:  %d\n", report.MatchesFound)
	fmt.Fprintf(sb, "Status:         %s\n", status(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if !report.HasFindings() {
		sb.WriteString("  No cryptocurrency miners found\n\n")
		return
	}

	for _, kind := range []model.ScriptKind{model.ScriptRemote, model.ScriptInline} {
		findings := report.FindingsByKind(kind)
		if len(findings) == 0 {
			continue
		}

		fmt.Fprintf(sb, "[!] %s scripts (%d)\n", kindLabel(kind), len(findings))
		for _, f := range findings {
			fmt.Fprintf(sb, "  * %s\n", f.ScriptLocator)
			fmt.Fprintf(sb, "    Signatures: %s\n", strings.Join(f.Signatures, ", "))
			if w.verbose {
				fmt.Fprintf(sb, "    Found on:   %s (depth %d)\n", f.SourceURL, f.Depth)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeSignatures(sb *strings.Builder, report *model.ScanReport) {
	ranked := rankSignatures(report)
	if len(ranked) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SIGNATURE HITS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, hit := range ranked {
		fmt.Fprintf(sb, "  %-40s %d\n", hit.domain, hit.count)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Scans complete. Analyzed %d webpages, found %d cryptocurrency miners.\n",
		report.PagesVisited, report.MatchesFound)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
