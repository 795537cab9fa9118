// Package config provides the configuration of a coinhunter scan: the
// crawl limits, the signature source, the HTTP client settings and the
// report preferences, together with the optional YAML configuration file.
package config
