// Package database stores finished coinhunter scan reports in SQLite.
//
// The ReportDB keeps one row per scan in scan_reports, with the full report
// serialized as JSON, and one row per matched script in findings so that
// the history of a site can be queried without decoding every report.
//
// The driver is modernc.org/sqlite, a CGO-free implementation, so the
// database is a single file under the XDG data directory.
package database
