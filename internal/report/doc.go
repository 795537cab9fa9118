// Package report writes the final scan report.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal (default)
//   - JSONWriter: structured JSON for other tools
//   - MarkdownWriter: GitHub Flavored Markdown with a mermaid pie chart
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report
