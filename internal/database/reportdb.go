package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/coinhunter/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "coinhunter.db"

// ErrReportNotFound is returned when no report has the requested ID.
var ErrReportNotFound = errors.New("scan report not found")

// ReportDB provides SQLite-based storage for scan reports.
type ReportDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ReportDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ReportDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

func (rdb *ReportDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		host TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		pages_visited INTEGER NOT NULL,
		matches_found INTEGER NOT NULL,
		interrupted INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_host ON scan_reports(host);
	CREATE INDEX IF NOT EXISTS idx_reports_started ON scan_reports(started_at);

	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id INTEGER NOT NULL REFERENCES scan_reports(id) ON DELETE CASCADE,
		source_url TEXT NOT NULL,
		script_locator TEXT NOT NULL,
		kind TEXT NOT NULL,
		signatures TEXT NOT NULL,
		depth INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_findings_report ON findings(report_id);
	`

	_, err := rdb.db.ExecContext(ctx, schema)
	return err
}

// SaveScanReport stores a report and its findings in one transaction and
// returns the new report ID.
func (rdb *ReportDB) SaveScanReport(ctx context.Context, report *model.ScanReport) (id int64, err error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO scan_reports (target, host, started_at, pages_visited, matches_found, interrupted, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		report.Target,
		hostOf(report.Target),
		report.StartedAt.UTC().Format(storeLayout),
		report.PagesVisited,
		report.MatchesFound,
		report.Interrupted,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan report: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}

	for _, f := range report.Findings {
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO findings (report_id, source_url, script_locator, kind, signatures, depth)
		VALUES (?, ?, ?, ?, ?, ?)
		`,
			id, f.SourceURL, f.ScriptLocator, f.Kind.String(), strings.Join(f.Signatures, ","), f.Depth,
		); err != nil {
			return 0, fmt.Errorf("failed to save finding: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan report: %w", err)
	}
	return id, nil
}

// ScanReportMetadata contains summary information about a stored report.
// It is used for listing history without loading the full report.
type ScanReportMetadata struct {
	ID           int64
	Target       string
	Host         string
	StartedAt    time.Time
	PagesVisited int
	MatchesFound int
	Interrupted  bool
}

// ListScanReports returns report metadata, newest first. An empty host
// lists every site; limit <= 0 means no limit.
func (rdb *ReportDB) ListScanReports(ctx context.Context, host string, limit int) ([]ScanReportMetadata, error) {
	query := `
	SELECT id, target, host, started_at, pages_visited, matches_found, interrupted
	FROM scan_reports
	`
	var args []any
	if host != "" {
		query += " WHERE host = ?"
		args = append(args, strings.ToLower(host))
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan reports: %w", err)
	}
	defer rows.Close()

	var results []ScanReportMetadata
	for rows.Next() {
		var (
			meta      ScanReportMetadata
			startedAt string
		)
		if err := rows.Scan(&meta.ID, &meta.Target, &meta.Host, &startedAt,
			&meta.PagesVisited, &meta.MatchesFound, &meta.Interrupted); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.StartedAt = parseTimestamp(startedAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetScanReport retrieves a report by its database ID.
func (rdb *ReportDB) GetScanReport(ctx context.Context, id int64) (*model.ScanReport, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx,
		"SELECT report_json FROM scan_reports WHERE id = ?", id,
	).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("id %d: %w", id, ErrReportNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// SignatureHistory counts how many stored findings for host referenced
// each signature domain.
func (rdb *ReportDB) SignatureHistory(ctx context.Context, host string) (map[string]int, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT f.signatures FROM findings f
	JOIN scan_reports r ON r.id = f.report_id
	WHERE r.host = ?
	`, strings.ToLower(host))
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	hits := make(map[string]int)
	for rows.Next() {
		var sigs string
		if err := rows.Scan(&sigs); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		for _, sig := range strings.Split(sigs, ",") {
			if sig != "" {
				hits[sig]++
			}
		}
	}
	return hits, rows.Err()
}

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return strings.ToLower(target)
	}
	return strings.ToLower(u.Hostname())
}

// storeLayout sorts lexically in chronological order.
const storeLayout = "2006-01-02 15:04:05.000"

// timestampFormats are the layouts SQLite may hand back for DATETIME columns.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
