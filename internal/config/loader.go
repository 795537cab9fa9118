package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".coinhunter"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Settings are the options that may be set in the configuration file.
// Zero values mean "not set".
type Settings struct {
	Depth          int           `yaml:"depth,omitempty"`
	Threads        int           `yaml:"threads,omitempty"`
	Quiescence     time.Duration `yaml:"quiescence,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	ConnectTimeout time.Duration `yaml:"connectTimeout,omitempty"`
	UserAgent      string        `yaml:"userAgent,omitempty"`
	Proxy          string        `yaml:"proxy,omitempty"`
	MaxBodySize    int64         `yaml:"maxBodySize,omitempty"`
	Signatures     string        `yaml:"signatures,omitempty"`
	SignatureURL   string        `yaml:"signatureURL,omitempty"`
	Category       string        `yaml:"category,omitempty"`
}

// File is the structure of the .coinhunter configuration file.
type File struct {
	// Defaults apply to every scan.
	Defaults Settings `yaml:"defaults,omitempty"`

	// Sites holds per-host overrides keyed by host name
	// (e.g. "example.com"), applied on top of Defaults.
	Sites map[string]Settings `yaml:"sites,omitempty"`
}

// LoadConfigFile reads a configuration file.
// It returns ErrConfigNotFound if the file does not exist.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if f.Sites == nil {
		f.Sites = make(map[string]Settings)
	}

	return &f, nil
}

// SettingsFor returns the defaults merged with the overrides for host.
func (f *File) SettingsFor(host string) Settings {
	result := f.Defaults

	site, ok := f.Sites[strings.ToLower(host)]
	if !ok {
		return result
	}

	if site.Depth != 0 {
		result.Depth = site.Depth
	}
	if site.Threads != 0 {
		result.Threads = site.Threads
	}
	if site.Quiescence != 0 {
		result.Quiescence = site.Quiescence
	}
	if site.Timeout != 0 {
		result.Timeout = site.Timeout
	}
	if site.ConnectTimeout != 0 {
		result.ConnectTimeout = site.ConnectTimeout
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Proxy != "" {
		result.Proxy = site.Proxy
	}
	if site.MaxBodySize != 0 {
		result.MaxBodySize = site.MaxBodySize
	}
	if site.Signatures != "" {
		result.Signatures = site.Signatures
	}
	if site.SignatureURL != "" {
		result.SignatureURL = site.SignatureURL
	}
	if site.Category != "" {
		result.Category = site.Category
	}

	return result
}

// Apply copies the set fields of s into c, skipping every option for which
// explicit reports true. explicit receives the CLI flag name, so values
// given on the command line win over the file.
func (c *Config) Apply(s Settings, explicit func(flag string) bool) {
	if explicit == nil {
		explicit = func(string) bool { return false }
	}

	if s.Depth != 0 && !explicit("depth") {
		c.MaxDepth = s.Depth
	}
	if s.Threads != 0 && !explicit("threads") {
		c.Threads = s.Threads
	}
	if s.Quiescence != 0 && !explicit("quiescence") {
		c.Quiescence = s.Quiescence
	}
	if s.Timeout != 0 && !explicit("timeout") {
		c.Timeout = s.Timeout
	}
	if s.ConnectTimeout != 0 && !explicit("connect-timeout") {
		c.ConnectTimeout = s.ConnectTimeout
	}
	if s.UserAgent != "" && !explicit("user-agent") {
		c.UserAgent = s.UserAgent
	}
	if s.Proxy != "" && !explicit("proxy") {
		c.Proxy = s.Proxy
	}
	if s.MaxBodySize != 0 && !explicit("max-body-size") {
		c.MaxBodySize = s.MaxBodySize
	}
	if s.Signatures != "" && !explicit("signatures") {
		c.SignatureFile = s.Signatures
	}
	if s.SignatureURL != "" && !explicit("signature-url") {
		c.SignatureURL = s.SignatureURL
	}
	if s.Category != "" && !explicit("category") {
		c.Category = s.Category
	}
}

// FindConfigFile searches for the configuration file in the following order:
//  1. configPath, if given
//  2. .coinhunter in the current directory
//  3. .coinhunter in the user's home directory
//  4. config.yaml in the XDG config directory
//
// It returns an empty string when no file is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
