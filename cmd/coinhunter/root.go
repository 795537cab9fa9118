package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/coinhunter/internal/config"
)

// NewRootCmd creates the root command. Running it without a subcommand
// performs a scan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coinhunter",
		Short: "Find cryptocurrency mining scripts on a website",
		Long: `coinhunter crawls a website starting from a seed URL and classifies every
script it finds against a list of known cryptomining domains.

Remote scripts are matched by the host they are loaded from; inline scripts
and pages without scripts are matched by searching their text for any
signature domain. The signature list is the "Cryptomining" category of the
Disconnect tracking protection blacklist unless a local file is given.

Examples:
  # Scan a site to the default depth of 3
  coinhunter --url example.com

  # Crawl deeper with more workers and write a Markdown report
  coinhunter -u https://example.com -d 5 -t 20 -m -o report.md

  # Use a local signature file and a SOCKS5 proxy
  coinhunter -u example.com -s disconnect.json --proxy 127.0.0.1:9050

  # Store the report and list previous scans
  coinhunter -u example.com --save
  coinhunter history example.com`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		RunE:          runScanCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	addScanFlags(cmd)

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// addScanFlags registers the flags of a scan on cmd.
func addScanFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringP("url", "u", "", "Seed URL to crawl (required; http:// is added when no scheme is given)")
	f.IntP("depth", "d", config.DefaultDepth, "Maximum crawl depth; the seed URL is depth 1")
	f.IntP("threads", "t", config.DefaultThreads, "Number of concurrent workers")

	f.DurationP("quiescence", "q", config.DefaultQuiescence,
		"Finish the crawl after the queue stays empty for this long")
	f.Duration("timeout", config.DefaultTimeout, "Timeout for each request")
	f.Duration("connect-timeout", config.DefaultConnectTimeout, "Timeout for establishing a connection")
	f.Int64("max-body-size", config.DefaultMaxBodySize, "Maximum response body size in bytes")

	f.StringP("signatures", "s", "", "Local Disconnect-format signature file (skips the download)")
	f.String("signature-url", config.DefaultSignatureURL, "URL of the Disconnect blacklist")
	f.String("category", config.DefaultCategory, "Blacklist category that lists mining domains")

	f.String("proxy", "", "SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	f.String("user-agent", config.DefaultUserAgent, "User-Agent header sent with every request")

	f.StringP("config", "c", "",
		"Configuration file path (default: .coinhunter in current or home directory)")

	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")
	f.Bool("save", false, "Store the report in the history database")
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
