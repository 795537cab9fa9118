package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/coinhunter/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *ReportDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newReport(target string, startedAt time.Time, findings ...model.ClassificationEvent) *model.ScanReport {
	return model.NewScanReport(model.Summary{
		Target:       target,
		MaxDepth:     3,
		Threads:      5,
		PagesVisited: 10,
		MatchesFound: len(findings),
		StartedAt:    startedAt,
		FinishedAt:   startedAt.Add(time.Second),
	}, 12, findings)
}

func finding(locator string, kind model.ScriptKind, sigs ...string) model.ClassificationEvent {
	return model.ClassificationEvent{
		SourceURL:     "http://site.example/",
		ScriptLocator: locator,
		Kind:          kind,
		Matched:       true,
		Signatures:    sigs,
		Depth:         1,
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if _, err := db.SaveScanReport(context.Background(), newReport("http://a.example", time.Now())); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		list, err := db.ListScanReports(context.Background(), "", 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("expected 1 stored report, got %d", len(list))
		}
	})
}

func TestSaveAndGetScanReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	report := newReport("http://Site.Example/", started,
		finding("https://coinhive.com/lib/coinhive.min.js", model.ScriptRemote, "coinhive.com"),
		finding("http://site.example/#script-1", model.ScriptInline, "authedmine.com", "coinhive.com"),
	)

	id, err := db.SaveScanReport(ctx, report)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, err := db.GetScanReport(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Target != report.Target || got.PagesVisited != 10 || got.SignatureCount != 12 {
		t.Errorf("unexpected report %+v", got.Summary)
	}
	if len(got.Findings) != 2 || got.Findings[1].Kind != model.ScriptInline {
		t.Errorf("unexpected findings %+v", got.Findings)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()

		_, err := db.GetScanReport(ctx, id+100)
		if !errors.Is(err, ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound, got %v", err)
		}
	})

	t.Run("signature history", func(t *testing.T) {
		t.Parallel()

		hits, err := db.SignatureHistory(ctx, "SITE.example")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if hits["coinhive.com"] != 2 || hits["authedmine.com"] != 1 {
			t.Errorf("unexpected hits %v", hits)
		}
	})
}

func TestListScanReports(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, target := range []string{"http://a.example", "http://b.example", "http://a.example/blog"} {
		r := newReport(target, base.Add(time.Duration(i)*time.Hour))
		if i == 2 {
			r.Interrupted = true
		}
		if _, err := db.SaveScanReport(ctx, r); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	tests := []struct {
		name      string
		host      string
		limit     int
		wantCount int
		wantFirst string
	}{
		{name: "all sites newest first", wantCount: 3, wantFirst: "http://a.example/blog"},
		{name: "filtered by host", host: "b.example", wantCount: 1, wantFirst: "http://b.example"},
		{name: "host match ignores case", host: "A.EXAMPLE", wantCount: 2, wantFirst: "http://a.example/blog"},
		{name: "limited", limit: 1, wantCount: 1, wantFirst: "http://a.example/blog"},
		{name: "unknown host", host: "c.example", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			list, err := db.ListScanReports(ctx, tt.host, tt.limit)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(list) != tt.wantCount {
				t.Fatalf("got %d reports, want %d", len(list), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			if list[0].Target != tt.wantFirst {
				t.Errorf("first target = %q, want %q", list[0].Target, tt.wantFirst)
			}
			if list[0].StartedAt.IsZero() {
				t.Error("StartedAt should be parsed")
			}
		})
	}

	t.Run("interrupted flag round-trips", func(t *testing.T) {
		t.Parallel()

		list, err := db.ListScanReports(ctx, "", 1)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !list[0].Interrupted {
			t.Error("expected newest report to be marked interrupted")
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		zero bool
	}{
		{in: "2025-01-02 03:04:05.000"},
		{in: "2025-01-02T03:04:05Z"},
		{in: "2025-01-02 03:04:05"},
		{in: "not a time", zero: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
			}
		})
	}
}
