package signature

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const disconnectFixture = `{
  "license": "test",
  "categories": {
    "Advertising": [
      {"AdCorp": {"https://adcorp.example/": ["ads.example"]}}
    ],
    "Cryptomining": [
      {"CoinHive": {"https://coinhive.com/": ["coinhive.com", "authedmine.com"]}},
      {"Crypto-Loot": {"https://crypto-loot.com/": ["crypto-loot.com"], "performance": "true"}},
      {"Tiny": {"https://tiny.example/": ["x", ""]}}
    ]
  }
}`

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("extracts domains of the category", func(t *testing.T) {
		t.Parallel()

		s, err := Parse(strings.NewReader(disconnectFixture), DefaultCategory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"authedmine.com", "coinhive.com", "crypto-loot.com"}
		if !slices.Equal(s.Domains(), want) {
			t.Errorf("expected %v, got %v", want, s.Domains())
		}
		if s.Contains("ads.example") {
			t.Error("domain from another category should not be included")
		}
	})

	t.Run("other category", func(t *testing.T) {
		t.Parallel()

		s, err := Parse(strings.NewReader(disconnectFixture), "Advertising")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Contains("ads.example") || s.Len() != 1 {
			t.Errorf("unexpected set: %v", s.Domains())
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			doc      string
			category string
			wantErr  error
		}{
			{
				name:     "missing category",
				doc:      disconnectFixture,
				category: "Fingerprinting",
				wantErr:  ErrCategoryMissing,
			},
			{
				name:     "missing categories object",
				doc:      `{"license": "x"}`,
				category: DefaultCategory,
				wantErr:  ErrCategoryMissing,
			},
			{
				name:     "empty category",
				doc:      `{"categories": {"Cryptomining": []}}`,
				category: DefaultCategory,
				wantErr:  ErrEmptySet,
			},
			{
				name:     "only short entries",
				doc:      `{"categories": {"Cryptomining": [{"o": {"s": ["a", "b"]}}]}}`,
				category: DefaultCategory,
				wantErr:  ErrEmptySet,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				_, err := Parse(strings.NewReader(tt.doc), tt.category)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()

		if _, err := Parse(strings.NewReader(`{"categories":`), DefaultCategory); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("reads local file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "disconnect.json")
		if err := os.WriteFile(path, []byte(disconnectFixture), 0o600); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		s, err := LoadFile(path, DefaultCategory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Len() != 3 {
			t.Errorf("expected 3 domains, got %d", s.Len())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"), DefaultCategory)
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})
}

func TestFetcher(t *testing.T) {
	t.Parallel()

	t.Run("downloads and parses list", func(t *testing.T) {
		t.Parallel()

		uaCh := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uaCh <- r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(disconnectFixture))
		}))
		defer server.Close()

		f := NewFetcher(
			WithHTTPClient(server.Client()),
			WithSourceURL(server.URL),
			WithUserAgent("coinhunter-test"),
		)
		if f.URL() != server.URL {
			t.Errorf("expected URL %s, got %s", server.URL, f.URL())
		}

		s, err := f.Fetch(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Contains("coinhive.com") {
			t.Error("expected coinhive.com in set")
		}
		if gotUA := <-uaCh; gotUA != "coinhunter-test" {
			t.Errorf("expected User-Agent coinhunter-test, got %q", gotUA)
		}
	})

	t.Run("non-200 is unavailable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewFetcher(WithSourceURL(server.URL)).Fetch(context.Background())
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("transport error is unavailable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewFetcher(WithSourceURL(url)).Fetch(context.Background())
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("custom category", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(disconnectFixture))
		}))
		defer server.Close()

		s, err := NewFetcher(WithSourceURL(server.URL), WithCategory("Advertising")).Fetch(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Contains("ads.example") {
			t.Error("expected ads.example in set")
		}
	})
}
