package signature

import (
	"slices"
	"testing"
)

func TestNewSet(t *testing.T) {
	t.Parallel()

	t.Run("normalizes and deduplicates domains", func(t *testing.T) {
		t.Parallel()

		s := NewSet("CoinHive.com", " coinhive.com ", "a", "", "miner.example")
		if s.Len() != 2 {
			t.Fatalf("expected 2 domains, got %d: %v", s.Len(), s.Domains())
		}
		want := []string{"coinhive.com", "miner.example"}
		if !slices.Equal(s.Domains(), want) {
			t.Errorf("expected %v, got %v", want, s.Domains())
		}
	})

	t.Run("domains returns a copy", func(t *testing.T) {
		t.Parallel()

		s := NewSet("coinhive.com")
		d := s.Domains()
		d[0] = "changed"
		if !s.Contains("coinhive.com") || s.Domains()[0] != "coinhive.com" {
			t.Error("mutating Domains() result changed the set")
		}
	})
}

func TestSetContains(t *testing.T) {
	t.Parallel()

	s := NewSet("coinhive.com", "cdn.miner.example")

	tests := []struct {
		name string
		host string
		want bool
	}{
		{name: "exact match", host: "coinhive.com", want: true},
		{name: "upper case", host: "COINHIVE.COM", want: true},
		{name: "trailing dot", host: "coinhive.com.", want: true},
		{name: "subdomain of signature is not exact", host: "www.coinhive.com", want: false},
		{name: "parent of signature", host: "miner.example", want: false},
		{name: "unrelated", host: "example.com", want: false},
		{name: "empty", host: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Contains(tt.host); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestSetMatchText(t *testing.T) {
	t.Parallel()

	s := NewSet("coinhive.com", "authedmine.com", "crypto-loot.com")

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single match",
			text: `var m = new CoinHive.Anonymous("key"); load("https://coinhive.com/lib.js")`,
			want: []string{"coinhive.com"},
		},
		{
			name: "case insensitive",
			text: `LOAD("HTTPS://AUTHEDMINE.COM/LIB/")`,
			want: []string{"authedmine.com"},
		},
		{
			name: "multiple matches are sorted",
			text: "crypto-loot.com coinhive.com authedmine.com",
			want: []string{"authedmine.com", "coinhive.com", "crypto-loot.com"},
		},
		{
			name: "no match",
			text: "console.log('hello')",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := s.MatchText(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("MatchText() = %v, want %v", got, tt.want)
			}
		})
	}
}
