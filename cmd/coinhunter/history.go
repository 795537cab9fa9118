package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/coinhunter/internal/config"
	"github.com/nao1215/coinhunter/internal/database"
	"github.com/nao1215/coinhunter/internal/report"
)

// defaultHistoryLimit is the number of reports listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "List scan reports stored with --save",
		Long: `History lists the scan reports stored in the history database.

With a host argument only scans of that host are listed, followed by the
signature domains found on it across all stored scans. With --id the full
report is printed in the selected format.

Examples:
  # List the 20 most recent scans
  coinhunter history

  # List scans of one site
  coinhunter history example.com

  # Show a stored report as Markdown
  coinhunter history --id 3 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of reports to list (0 for all)")
	cmd.Flags().Int64("id", 0, "Print the stored report with this ID")
	cmd.Flags().BoolP("json", "j", false, "Print the report selected with --id as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Print the report selected with --id as Markdown")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()

	limit, err := f.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := f.GetInt64("id")
	if err != nil {
		return err
	}
	asJSON, err := f.GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := f.GetBool("markdown")
	if err != nil {
		return err
	}
	if asJSON && asMarkdown {
		return config.ErrConflictingReportFormats
	}
	dbDir, err := f.GetString("db-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "No scan history found in %s\n", filepath.Join(dbDir, database.FileName))
			return nil
		}
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	if id > 0 {
		scanReport, err := db.GetScanReport(ctx, id)
		if err != nil {
			return err
		}
		var w report.Writer
		switch {
		case asJSON:
			w = report.NewJSONWriter(out, report.WithPrettyPrint())
		case asMarkdown:
			w = report.NewMarkdownWriter(out)
		default:
			w = report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd)))
		}
		_, err = w.Write(scanReport)
		return err
	}

	var host string
	if len(args) == 1 {
		host = hostArg(args[0])
	}

	reports, err := db.ListScanReports(ctx, host, limit)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(out, "No scan reports found")
		return nil
	}
	writeHistoryTable(out, reports)

	if host == "" {
		return nil
	}

	hits, err := db.SignatureHistory(ctx, host)
	if err != nil {
		return err
	}
	writeSignatureHistory(out, host, hits)
	return nil
}

// hostArg accepts either a bare host or a URL.
func hostArg(arg string) string {
	cfg := config.Config{URL: arg}
	if h := cfg.Host(); h != "" {
		return h
	}
	return arg
}

func writeHistoryTable(out io.Writer, reports []database.ScanReportMetadata) {
	fmt.Fprintf(out, "%-6s %-20s %-8s %-8s %-12s %s\n", "ID", "STARTED", "PAGES", "MATCHES", "STATUS", "TARGET")
	for _, r := range reports {
		status := "complete"
		if r.Interrupted {
			status = "interrupted"
		}
		fmt.Fprintf(out, "%-6s %-20s %-8d %-8d %-12s %s\n",
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.PagesVisited,
			r.MatchesFound,
			status,
			r.Target,
		)
	}
}

func writeSignatureHistory(out io.Writer, host string, hits map[string]int) {
	fmt.Fprintf(out, "\nSignature domains found on %s:\n", host)
	if len(hits) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}

	domains := make([]string, 0, len(hits))
	for d := range hits {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if hits[domains[i]] != hits[domains[j]] {
			return hits[domains[i]] > hits[domains[j]]
		}
		return domains[i] < domains[j]
	})
	for _, d := range domains {
		fmt.Fprintf(out, "  %-40s %d\n", d, hits[d])
	}
}
