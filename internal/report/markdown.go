package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/coinhunter/internal/model"
)

// MarkdownWriter outputs reports as GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeSignatures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Coinhunter Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.Target + "`"},
			{"Scan Date", report.StartedAt.Format(timeLayout)},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Max Depth", strconv.Itoa(report.MaxDepth)},
			{"Threads", strconv.Itoa(report.Threads)},
			{"Signature Domains", strconv.Itoa(report.SignatureCount)},
			{"Pages Visited", strconv.Itoa(report.PagesVisited)},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) statusText(report *model.ScanReport) string {
	if report.Interrupted {
		return "⚠️ " + status(report)
	}
	return "✅ " + status(report)
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Summary")
	md.PlainText("")

	remote := report.CountByKind(model.ScriptRemote)
	inline := report.CountByKind(model.ScriptInline)

	md.Table(markdown.TableSet{
		Header: []string{"Script Kind", "Matches"},
		Rows: [][]string{
			{kindLabel(model.ScriptRemote), strconv.Itoa(remote)},
			{kindLabel(model.ScriptInline), strconv.Itoa(inline)},
			{"**Total**", "**" + strconv.Itoa(len(report.Findings)) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Matches by Script Kind"),
			piechart.WithShowData(true),
		)
		if remote > 0 {
			chart.LabelAndIntValue(kindLabel(model.ScriptRemote), uint64(remote))
		}
		if inline > 0 {
			chart.LabelAndIntValue(kindLabel(model.ScriptInline), uint64(inline))
		}

		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")

		md.Cautionf("Cryptocurrency mining detected! %d script(s) reference known mining domains.", len(report.Findings))
	} else {
		md.Tip("No cryptocurrency miners found.")
	}
	md.PlainText("")

	if report.Interrupted {
		md.Warningf("The scan was interrupted after %d page(s). Results are partial.", report.PagesVisited)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Findings")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No cryptomining scripts detected.")
		md.PlainText("")
		return
	}

	for _, kind := range []model.ScriptKind{model.ScriptRemote, model.ScriptInline} {
		findings := report.FindingsByKind(kind)
		if len(findings) == 0 {
			continue
		}

		md.PlainText("### " + kindLabel(kind) + " Scripts")
		md.PlainText("")

		rows := make([][]string, len(findings))
		for i, f := range findings {
			rows[i] = []string{
				truncateString(f.ScriptLocator, 60),
				truncateString(f.SourceURL, 50),
				strconv.Itoa(f.Depth),
				strings.Join(f.Signatures, ", "),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Script", "Found On", "Depth", "Signatures"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSignatures(md *markdown.Markdown, report *model.ScanReport) {
	ranked := rankSignatures(report)
	if len(ranked) == 0 {
		return
	}

	md.H2("Signature Hits")
	md.PlainText("")

	rows := make([][]string, len(ranked))
	for i, hit := range ranked {
		rows[i] = []string{"`" + hit.domain + "`", strconv.Itoa(hit.count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Hits"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [coinhunter](https://github.com/nao1215/coinhunter)*")
}

// truncateString truncates s to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
