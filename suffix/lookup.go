// Package suffix provides read-only public-suffix tables used to derive
// registrable domains (eTLD+1) for autofill matching.
package suffix

import "strings"

// Lookup reports the longest public suffix of a domain known to a table.
//
// Implementations receive lowercased ASCII domains without a trailing dot and
// must be safe for concurrent readers. A table is never modified once it has
// been handed to a matcher.
type Lookup interface {
	// PublicSuffix returns the longest label-aligned suffix of domain that the
	// table recognises as a public suffix. The boolean is false when no rule
	// applies.
	PublicSuffix(domain string) (string, bool)
}

// Set is a Lookup backed by an exact-match set of suffixes such as "tld" or
// "co.uk". It has no wildcard or exception rules.
type Set struct {
	entries map[string]struct{}
}

// NewSet builds a Set from the supplied suffixes. Entries are lowercased and
// stripped of surrounding dots; empty entries are ignored.
func NewSet(suffixes ...string) *Set {
	s := &Set{entries: make(map[string]struct{}, len(suffixes))}
	for _, raw := range suffixes {
		entry := strings.Trim(strings.ToLower(strings.TrimSpace(raw)), ".")
		if entry == "" {
			continue
		}
		s.entries[entry] = struct{}{}
	}
	return s
}

// Len returns the number of suffixes in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Contains reports whether suffix is a member of the set.
func (s *Set) Contains(suffix string) bool {
	if s == nil {
		return false
	}
	_, ok := s.entries[suffix]
	return ok
}

// PublicSuffix walks domain from its leftmost label towards the root, so the
// first member found is the longest one.
func (s *Set) PublicSuffix(domain string) (string, bool) {
	if s == nil || len(s.entries) == 0 {
		return "", false
	}
	candidate := domain
	for candidate != "" {
		if _, ok := s.entries[candidate]; ok {
			return candidate, true
		}
		dot := strings.IndexByte(candidate, '.')
		if dot == -1 {
			break
		}
		candidate = candidate[dot+1:]
	}
	return "", false
}
