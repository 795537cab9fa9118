package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces redacted values.
const MaskValue = "***"

// sensitiveKeys are attribute keys whose values are never logged.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"apikey":              true,
	"access_token":        true,
	"refresh_token":       true,
	"session_id":          true,
	"sessionid":           true,
}

// sensitiveKeywords mark a key as sensitive when contained in it.
var sensitiveKeywords = []string{"password", "passwd", "secret", "token", "credential"}

// sensitiveParams are query parameter names whose values are masked in URLs.
var sensitiveParams = map[string]bool{
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"id_token":      true,
	"api_key":       true,
	"apikey":        true,
	"key":           true,
	"secret":        true,
	"password":      true,
	"passwd":        true,
	"auth":          true,
	"sig":           true,
	"signature":     true,
	"session":       true,
	"sessionid":     true,
	"session_id":    true,
	"jsessionid":    true,
	"sid":           true,
}

var sensitivePatterns = []*regexp.Regexp{
	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Authorization header values
	regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+$`),
}

// RedactingHandler wraps a slog.Handler and scrubs credentials from
// attributes before they reach it.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps handler. A nil handler means the default
// logger's handler.
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, RedactString(a.Value.String()))
	case slog.KindAny:
		if ss, ok := a.Value.Any().([]string); ok {
			out := make([]string, len(ss))
			for i, s := range ss {
				out[i] = RedactString(s)
			}
			return slog.Any(a.Key, out)
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if sensitiveKeys[key] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// RedactString masks credentials in s. Whole values that look like tokens
// are replaced; URLs keep their shape with only the secret parts masked.
func RedactString(s string) string {
	for _, p := range sensitivePatterns {
		if p.MatchString(s) {
			return MaskValue
		}
	}
	if strings.Contains(s, "://") {
		return RedactURL(s)
	}
	return s
}

// RedactURL masks the userinfo password and sensitive query parameter values
// of rawURL. Strings that do not parse as URLs are returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	changed := false
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), MaskValue)
			changed = true
		}
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name, values := range q {
			if !sensitiveParams[strings.ToLower(name)] {
				continue
			}
			for i := range values {
				values[i] = MaskValue
			}
			changed = true
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}

	if !changed {
		return rawURL
	}
	// Keep the mask readable instead of percent-encoded.
	return strings.ReplaceAll(u.String(), url.QueryEscape(MaskValue), MaskValue)
}

// NewLogger returns a text logger writing to w. The level is INFO, or DEBUG
// when verbose is set.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewRedactingHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewJSONLogger is like NewLogger but writes JSON lines.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewRedactingHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
