// Package main provides the entry point for the coinhunter CLI.
//
// coinhunter crawls a website from a seed URL and reports scripts that
// reference known cryptocurrency mining domains.
//
// Usage:
//
//	coinhunter --url example.com
//	coinhunter --url https://example.com --depth 2 --threads 10 --json
//
// See --help for all available options.
package main

func main() {
	Execute()
}
