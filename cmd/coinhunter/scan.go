package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/coinhunter/internal/config"
	"github.com/nao1215/coinhunter/internal/crawler"
	"github.com/nao1215/coinhunter/internal/database"
	applog "github.com/nao1215/coinhunter/internal/log"
	"github.com/nao1215/coinhunter/internal/model"
	"github.com/nao1215/coinhunter/internal/proxy"
	"github.com/nao1215/coinhunter/internal/report"
	"github.com/nao1215/coinhunter/internal/signature"
)

// runScanCmd executes a scan with the flags of cmd.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go handleInterrupt(ctx, sigCh, func() { signal.Stop(sigCh) }, cancel, logger)

	_, err = runScan(ctx, cfg, logger, cmd.OutOrStdout())
	return err
}

// handleInterrupt cancels the scan on the first signal from sigCh. It calls
// stop as soon as it returns, so a second interrupt gets the default
// behavior and terminates the process.
func handleInterrupt(ctx context.Context, sigCh <-chan os.Signal, stop func(), cancel context.CancelFunc, logger *slog.Logger) {
	defer stop()
	select {
	case <-sigCh:
		logger.Info("received shutdown signal, finishing in-flight pages (interrupt again to exit)")
		cancel()
	case <-ctx.Done():
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags of cmd. Flags set on the command line win over the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()

	var err error
	if cfg.URL, err = f.GetString("url"); err != nil {
		return nil, err
	}
	cfg.URL = config.NormalizeURL(cfg.URL)
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.MaxDepth, err = f.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.Threads, err = f.GetInt("threads"); err != nil {
		return nil, err
	}
	if cfg.Quiescence, err = f.GetDuration("quiescence"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = f.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout, err = f.GetDuration("connect-timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = f.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.SignatureFile, err = f.GetString("signatures"); err != nil {
		return nil, err
	}
	if cfg.SignatureURL, err = f.GetString("signature-url"); err != nil {
		return nil, err
	}
	if cfg.Category, err = f.GetString("category"); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = f.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = f.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = f.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = f.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = f.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = f.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = f.GetBool("save"); err != nil {
		return nil, err
	}

	// An explicitly given file must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return cfg, nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	cfg.Apply(file.SettingsFor(cfg.Host()), f.Changed)

	return cfg, nil
}

// runScan loads the signatures, crawls cfg.URL and writes the report to
// out (or cfg.ReportFile). A cancelled ctx yields a partial report and no
// error.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*model.ScanReport, error) {
	seedURL := config.NormalizeURL(cfg.URL)
	root, err := crawler.SiteRoot(seedURL)
	if err != nil {
		return nil, err
	}

	var proxyClient *proxy.Client
	if cfg.Proxy != "" {
		proxyClient, err = connectProxy(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	set, err := loadSignatures(ctx, cfg, proxyClient)
	if err != nil {
		return nil, err
	}
	logger.Info("signatures loaded", "domains", set.Len(), "category", cfg.Category)

	fetcherOpts := []crawler.FetcherOption{
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithConnectTimeout(cfg.ConnectTimeout),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithFetcherLogger(logger),
	}
	if proxyClient != nil {
		fetcherOpts = append(fetcherOpts, crawler.WithDialer(proxyClient))
	}

	collector := crawler.NewCollectingSink()
	engine := crawler.NewEngine(
		crawler.NewFetcher(fetcherOpts...),
		crawler.NewClassifier(set, root),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithThreads(cfg.Threads),
		crawler.WithQuiescence(cfg.Quiescence),
		crawler.WithSink(crawler.MultiSink(crawler.NewLogSink(logger), collector)),
		crawler.WithLogger(logger),
	)

	logger.Info("starting scan",
		"url", seedURL,
		"depth", cfg.MaxDepth,
		"threads", cfg.Threads,
	)

	summary, err := engine.Run(ctx, seedURL)
	if err != nil {
		return nil, err
	}

	scanReport := model.NewScanReport(summary, set.Len(), collector.Findings())

	if err := outputReport(cfg, scanReport, out); err != nil {
		return scanReport, fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveScanReport(ctx, cfg.DBDir, scanReport, logger); err != nil {
			logger.Error("failed to save scan report", "error", err)
		}
	}

	logger.Info("scans complete",
		"pages", summary.PagesVisited,
		"matches", summary.MatchesFound,
		"interrupted", summary.Interrupted,
		"duration", summary.Duration(),
	)
	return scanReport, nil
}

// connectProxy creates a SOCKS5 client for cfg.Proxy and verifies it.
func connectProxy(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*proxy.Client, error) {
	client, err := proxy.NewClient(cfg.Proxy, cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy client: %w", err)
	}

	if status := client.CheckConnection(ctx); status != proxy.StatusOK {
		return nil, fmt.Errorf("proxy check failed for %s: %w", cfg.Proxy, status.Err())
	}

	logger.Info("proxy connection verified", "address", cfg.Proxy)
	return client, nil
}

// loadSignatures reads the signature set from cfg.SignatureFile, or
// downloads it from cfg.SignatureURL.
func loadSignatures(ctx context.Context, cfg *config.Config, proxyClient *proxy.Client) (*signature.Set, error) {
	if cfg.SignatureFile != "" {
		set, err := signature.LoadFile(cfg.SignatureFile, cfg.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to load signatures: %w", err)
		}
		return set, nil
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if proxyClient != nil {
		httpClient.Transport = proxyClient.Transport()
	}

	set, err := signature.NewFetcher(
		signature.WithHTTPClient(httpClient),
		signature.WithSourceURL(cfg.SignatureURL),
		signature.WithCategory(cfg.Category),
		signature.WithUserAgent(cfg.UserAgent),
	).Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load signatures: %w", err)
	}
	return set, nil
}

// outputReport writes the report in the requested format to out, or to
// cfg.ReportFile when set.
func outputReport(cfg *config.Config, scanReport *model.ScanReport, out io.Writer) error {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(scanReport)
	return err
}

// saveScanReport stores the report in the history database under dbDir.
func saveScanReport(ctx context.Context, dbDir string, scanReport *model.ScanReport, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The crawl context may already be cancelled after an interrupt.
	id, err := db.SaveScanReport(context.WithoutCancel(ctx), scanReport)
	if err != nil {
		return err
	}

	logger.Info("scan report saved to database", "id", id, "path", db.Path())
	return nil
}
