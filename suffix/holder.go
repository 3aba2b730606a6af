package suffix

import (
	"strings"
	"sync/atomic"

	"golang.org/x/net/publicsuffix"
)

// Source hands out the table to use for one logical matching request.
// Callers take a single snapshot and use it for every parse in that request.
type Source interface {
	Snapshot() Lookup
}

var emptySet = NewSet()

type snapshot struct {
	lookup Lookup
}

// Holder publishes an immutable Lookup that can be swapped while readers are
// active. Readers never observe a partially built table.
type Holder struct {
	value atomic.Pointer[snapshot]
}

// NewHolder returns a Holder serving initial. A nil initial serves an empty Set.
func NewHolder(initial Lookup) *Holder {
	h := &Holder{}
	h.Store(initial)
	return h
}

// Snapshot returns the table currently published. A zero Holder serves an
// empty Set.
func (h *Holder) Snapshot() Lookup {
	snap := h.value.Load()
	if snap == nil {
		return emptySet
	}
	return snap.lookup
}

// Store publishes l. The caller must not modify l afterwards.
func (h *Holder) Store(l Lookup) {
	if l == nil {
		l = NewSet()
	}
	h.value.Store(&snapshot{lookup: l})
}

type staticSource struct {
	lookup Lookup
}

func (s staticSource) Snapshot() Lookup { return s.lookup }

// Static wraps a fixed table as a Source.
func Static(l Lookup) Source {
	if l == nil {
		l = NewSet()
	}
	return staticSource{lookup: l}
}

// Embedded is a Lookup over the list compiled into golang.org/x/net/publicsuffix.
// It includes both ICANN and private rules.
type Embedded struct{}

// PublicSuffix reports false when only the implicit "*" rule applied,
// i.e. the TLD is unknown to the compiled list.
func (Embedded) PublicSuffix(domain string) (string, bool) {
	if domain == "" {
		return "", false
	}
	ps, icann := publicsuffix.PublicSuffix(domain)
	if !icann && !strings.Contains(ps, ".") {
		return "", false
	}
	return ps, true
}
