package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "coinhunter"

	// DefaultDepth is the deepest level crawled. The seed URL is level 1.
	DefaultDepth = 3

	// DefaultThreads is the number of concurrent fetch/classify workers.
	DefaultThreads = 5

	// DefaultQuiescence is how long the frontier must stay empty before
	// the crawl is over.
	DefaultQuiescence = 60 * time.Second

	// DefaultTimeout bounds a single request including the body read.
	DefaultTimeout = 30 * time.Second

	// DefaultConnectTimeout bounds establishing a TCP connection.
	DefaultConnectTimeout = 3 * time.Second

	// DefaultUserAgent identifies coinhunter in HTTP requests.
	DefaultUserAgent = "coinhunter/1.0 (+https://github.com/nao1215/coinhunter)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultSignatureURL is the Disconnect blacklist maintained by Mozilla.
	DefaultSignatureURL = "https://raw.githubusercontent.com/mozilla-services/shavar-prod-lists/master/disconnect-blacklist.json"

	// DefaultCategory is the blacklist category that lists mining domains.
	DefaultCategory = "Cryptomining"
)

// Config holds all options of one scan. It is filled from defaults, the
// configuration file and CLI flags, in that order of increasing precedence.
type Config struct {
	// URL is the seed URL. "http://" is prepended when it has no scheme.
	URL string

	// MaxDepth is the deepest level crawled; the seed is level 1.
	MaxDepth int

	// Threads is the size of the worker pool.
	Threads int

	// Verbose enables debug logging. It has no effect on crawl behavior.
	Verbose bool

	// Quiescence is how long an empty frontier is waited on before the
	// crawl finishes.
	Quiescence time.Duration

	// Timeout and ConnectTimeout bound every request.
	Timeout        time.Duration
	ConnectTimeout time.Duration

	// SignatureFile is a local Disconnect-format file. When set it replaces
	// the download from SignatureURL.
	SignatureFile string

	// SignatureURL is where the signature list is downloaded from.
	SignatureURL string

	// Category is the blacklist category holding the mining domains.
	Category string

	// Proxy is an optional SOCKS5 proxy address in "host:port" format.
	Proxy string

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize caps response bodies in bytes.
	MaxBodySize int64

	// ConfigFilePath is the configuration file given on the command line.
	// When empty, .coinhunter is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport and MarkdownReport select the report format. They are
	// mutually exclusive; the default is a plain text summary.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is where the report is written. Empty means stdout.
	ReportFile string

	// SaveToDB stores the final report in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	DBDir string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:       DefaultDepth,
		Threads:        DefaultThreads,
		Quiescence:     DefaultQuiescence,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		SignatureURL:   DefaultSignatureURL,
		Category:       DefaultCategory,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for coinhunter.
// On Linux: ~/.local/share/coinhunter
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for coinhunter.
// On Linux: ~/.config/coinhunter
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// NormalizeURL prepends "http://" to raw when it has no http or https
// scheme and trims surrounding whitespace.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "http://" + raw
	}
	return raw
}

// Host returns the host part of the configured URL, lower-cased, or an
// empty string if the URL does not parse.
func (c *Config) Host() string {
	u, err := url.Parse(NormalizeURL(c.URL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return ErrNoURL
	}

	u, err := url.Parse(NormalizeURL(c.URL))
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}

	if c.MaxDepth < 1 {
		return ErrInvalidDepth
	}

	if c.Threads < 1 {
		return ErrInvalidThreads
	}

	if c.Quiescence <= 0 {
		return ErrInvalidQuiescence
	}

	if c.Timeout <= 0 || c.ConnectTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	if c.SignatureFile == "" && c.SignatureURL == "" {
		return ErrNoSignatureSource
	}

	if c.Category == "" {
		return ErrNoCategory
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
