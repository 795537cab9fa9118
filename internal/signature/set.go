package signature

import (
	"sort"
	"strings"
)

// Set is an immutable set of lower-cased domain names.
type Set struct {
	domains map[string]struct{}

	// sorted holds the same domains in lexical order so that text matching
	// reports signatures deterministically.
	sorted []string
}

// NewSet creates a Set from the given domains.
// Domains are trimmed and lower-cased; entries shorter than two characters
// are dropped.
func NewSet(domains ...string) *Set {
	s := &Set{
		domains: make(map[string]struct{}, len(domains)),
		sorted:  make([]string, 0, len(domains)),
	}

	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if len(d) <= 1 {
			continue
		}
		if _, ok := s.domains[d]; ok {
			continue
		}
		s.domains[d] = struct{}{}
		s.sorted = append(s.sorted, d)
	}
	sort.Strings(s.sorted)

	return s
}

// Len returns the number of domains in the set.
func (s *Set) Len() int {
	return len(s.sorted)
}

// Contains reports whether host is one of the signature domains.
// The comparison is exact and case-insensitive; a trailing dot is ignored.
func (s *Set) Contains(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	_, ok := s.domains[host]
	return ok
}

// MatchText returns every signature domain that occurs as a substring of
// text after lower-casing it. The result is sorted and nil when nothing
// matched.
func (s *Set) MatchText(text string) []string {
	lower := strings.ToLower(text)

	var matched []string
	for _, d := range s.sorted {
		if strings.Contains(lower, d) {
			matched = append(matched, d)
		}
	}
	return matched
}

// Domains returns a sorted copy of all domains.
func (s *Set) Domains() []string {
	out := make([]string, len(s.sorted))
	copy(out, s.sorted)
	return out
}
