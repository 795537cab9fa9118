// Package proxy routes crawler connections through a SOCKS5 proxy.
//
// The proxy is optional. When configured, every page and script request of a
// scan is dialed through it, and the CLI verifies with CheckConnection that
// the address speaks SOCKS5 before the crawl starts.
package proxy
