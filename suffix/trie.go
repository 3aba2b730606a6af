package suffix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"
)

// ruleKind is a bit set because one key can carry several rules
// (e.g. "ck" as a wildcard parent and "www.ck" as an exception).
type ruleKind uint8

const (
	ruleNormal ruleKind = 1 << iota
	ruleWildcard
	ruleException
)

const (
	wildcardPrefix  = "*."
	exceptionPrefix = "!"
)

// ErrInvalidRule is returned when a rule cannot be added to a Trie.
var ErrInvalidRule = errors.New("invalid public suffix rule")

// Trie is a Lookup that understands the publicsuffix.org rule syntax:
// normal rules ("co.uk"), wildcard rules ("*.ck") and exception rules
// ("!www.ck").
//
// Rules are keyed by their labels in reverse order, each followed by a dot
// ("co.uk" is stored as "uk.co."), so a prefix walk over the reversed domain
// only ever stops on label boundaries.
type Trie struct {
	rules *patricia.Trie
	count int
}

// NewTrie returns an empty rule table.
func NewTrie() *Trie {
	return &Trie{rules: patricia.NewTrie()}
}

// Len returns the number of rules added to the table.
func (t *Trie) Len() int {
	if t == nil {
		return 0
	}
	return t.count
}

// AddRule parses a single rule line and merges it into the table.
// The rule must already be lowercased ASCII.
func (t *Trie) AddRule(rule string) error {
	kind := ruleNormal
	switch {
	case strings.HasPrefix(rule, exceptionPrefix):
		kind = ruleException
		rule = strings.TrimPrefix(rule, exceptionPrefix)
	case strings.HasPrefix(rule, wildcardPrefix):
		kind = ruleWildcard
		rule = strings.TrimPrefix(rule, wildcardPrefix)
	}
	if rule == "" || strings.Contains(rule, "*") || strings.Contains(rule, "..") ||
		strings.HasPrefix(rule, ".") || strings.HasSuffix(rule, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidRule, rule)
	}
	if kind == ruleException && !strings.Contains(rule, ".") {
		return fmt.Errorf("%w: exception %q needs at least two labels", ErrInvalidRule, rule)
	}

	key := reversedKey(rule)
	if existing, ok := t.rules.Get(key).(ruleKind); ok {
		if existing&kind != 0 {
			return nil
		}
		kind |= existing
	}
	t.rules.Set(key, kind)
	t.count++
	return nil
}

// PublicSuffix implements Lookup using the PSL algorithm: the longest
// matching rule wins, a wildcard extends its match by one label, and an
// exception rule overrides everything and drops its leftmost label.
func (t *Trie) PublicSuffix(domain string) (string, bool) {
	if t == nil || t.count == 0 || domain == "" {
		return "", false
	}
	labels := strings.Count(domain, ".") + 1

	var (
		longest   int
		exception int
	)
	_ = t.rules.VisitPrefixes(reversedKey(domain), func(prefix patricia.Prefix, item patricia.Item) error {
		kind, ok := item.(ruleKind)
		if !ok {
			return nil
		}
		depth := strings.Count(string(prefix), ".")
		if kind&ruleNormal != 0 {
			longest = max(longest, depth)
		}
		if kind&ruleWildcard != 0 && labels > depth {
			longest = max(longest, depth+1)
		}
		if kind&ruleException != 0 {
			exception = max(exception, depth-1)
		}
		return nil
	})

	if exception > 0 {
		longest = exception
	}
	if longest == 0 {
		return "", false
	}
	return lastLabels(domain, longest), true
}

// reversedKey turns "a.b.c" into "c.b.a.".
func reversedKey(name string) patricia.Prefix {
	var b strings.Builder
	b.Grow(len(name) + 1)
	end := len(name)
	for i := len(name) - 1; i >= -1; i-- {
		if i == -1 || name[i] == '.' {
			b.WriteString(name[i+1 : end])
			b.WriteByte('.')
			end = i
		}
	}
	return patricia.Prefix(b.String())
}

// lastLabels returns the rightmost n labels of name.
func lastLabels(name string, n int) string {
	end := len(name)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] != '.' {
			continue
		}
		n--
		if n == 0 {
			return name[i+1 : end]
		}
	}
	return name
}
