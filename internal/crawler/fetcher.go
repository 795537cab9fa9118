package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/nao1215/coinhunter/internal/model"
)

const (
	// DefaultConnectTimeout bounds establishing a TCP connection.
	DefaultConnectTimeout = 3 * time.Second

	// DefaultTimeout bounds a whole request including the body read.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "coinhunter/1.0 (+https://github.com/nao1215/coinhunter)"
)

// Dialer is the subset of net.Dialer the Fetcher needs. A SOCKS5 proxy client
// satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Fetcher performs single GET requests with bounded timeouts.
// It never touches the Frontier.
type Fetcher struct {
	client         *http.Client
	dialer         Dialer
	connectTimeout time.Duration
	timeout        time.Duration
	userAgent      string
	maxBodySize    int64
	logger         *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithConnectTimeout sets the TCP connect timeout.
func WithConnectTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.connectTimeout = d
		}
	}
}

// WithTimeout sets the total request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the response body cap in bytes.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithDialer routes connections through d, for example a SOCKS5 proxy.
// The connect timeout is then the responsibility of d.
func WithDialer(d Dialer) FetcherOption {
	return func(f *Fetcher) {
		f.dialer = d
	}
}

// WithHTTPClient replaces the HTTP client. Timeout and dialer options are
// ignored when a client is supplied.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithFetcherLogger sets the logger for per-request debug output.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		connectTimeout: DefaultConnectTimeout,
		timeout:        DefaultTimeout,
		userAgent:      DefaultUserAgent,
		maxBodySize:    DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.client == nil {
		f.client = f.newHTTPClient()
	}

	return f
}

func (f *Fetcher) newHTTPClient() *http.Client {
	dialer := f.dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: f.connectTimeout}
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   f.connectTimeout,
		ResponseHeaderTimeout: f.timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// Fetch retrieves target.URL. It returns a result only for an HTTP 200
// response; the body is capped at the configured maximum size. Every other
// outcome, including transport errors and timeouts, yields (nil, false).
func (f *Fetcher) Fetch(ctx context.Context, target model.CrawlTarget) (*model.FetchResult, bool) {
	result, err := f.fetch(ctx, target)
	if err != nil {
		f.logger.Debug("fetch failed", "url", target.URL, "depth", target.Depth, "error", err)
		return nil, false
	}
	return result, true
}

func (f *Fetcher) fetch(ctx context.Context, target model.CrawlTarget) (*model.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/javascript,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(raw)) > f.maxBodySize {
		raw = raw[:f.maxBodySize]
		f.logger.Debug("body truncated", "url", target.URL, "max_body_size", f.maxBodySize)
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := decodeBody(raw, contentType)
	if err != nil {
		return nil, err
	}

	return &model.FetchResult{
		URL:         target.URL,
		FinalURL:    resp.Request.URL.String(),
		Status:      resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		Depth:       target.Depth,
	}, nil
}

// decodeBody converts raw to UTF-8 using the charset from contentType or the
// document's own meta declaration. A guessed charset is ignored when raw is
// already valid UTF-8, since the guess only sees the first 1024 bytes.
func decodeBody(raw []byte, contentType string) (string, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || (!certain && validUTF8(raw)) {
		return string(raw), nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return string(decoded), nil
}

// validUTF8 reports whether b is valid UTF-8, allowing an incomplete rune at
// the end where a capped body was cut.
func validUTF8(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		tail := b[len(b)-i:]
		if utf8.RuneStart(tail[0]) {
			return !utf8.FullRune(tail) && utf8.Valid(b[:len(b)-i])
		}
	}
	return false
}
