package report

import (
	"io"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/coinhunter/internal/model"
)

// Writer writes a scan report in some format.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.ScanReport) (int, error)
}

// MultiWriter writes to several Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer. It stops at the first error.
func (m *MultiWriter) Write(report *model.ScanReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var titleCaser = cases.Title(language.English)

// kindLabel returns "Remote" or "Inline".
func kindLabel(kind model.ScriptKind) string {
	return titleCaser.String(kind.String())
}

// signatureHit is one row of the signature ranking.
type signatureHit struct {
	domain string
	count  int
}

// rankSignatures orders signature hits by count, then by domain.
func rankSignatures(report *model.ScanReport) []signatureHit {
	hits := report.SignatureHits()
	ranked := make([]signatureHit, 0, len(hits))
	for domain, count := range hits {
		ranked = append(ranked, signatureHit{domain: domain, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].domain < ranked[j].domain
	})
	return ranked
}

// status describes how the run ended.
func status(report *model.ScanReport) string {
	if report.Interrupted {
		return "Interrupted (partial results)"
	}
	return "Complete"
}

const timeLayout = "2006-01-02 15:04:05 MST"
