package suffix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/net/idna"
)

const (
	listTokenComment        = "//"
	listTokenPrivateDomains = "===BEGIN PRIVATE DOMAINS==="
)

// ErrEmptyList is returned when a list source contains no usable rules.
var ErrEmptyList = errors.New("public suffix list contains no rules")

// ListOptions controls how a publicsuffix.org list is parsed.
type ListOptions struct {
	// IncludePrivate keeps rules from the private-domains section
	// (e.g. "github.io"). ICANN rules are always kept.
	IncludePrivate bool
}

// ParseList reads a list in the publicsuffix.org ".dat" format.
//
// Args:
//
//	r: reader positioned at the start of the list.
//	opts: parsing options.
//
// Returns:
//
//	*Trie: populated rule table, ready to be published.
//	error: non-nil when reading fails or no rule could be parsed.
//
// Behavior:
//  1. Skips blank lines and "//" comments, switching to private mode at the section marker.
//  2. Keeps only the first whitespace-delimited token of each line, as the list format requires.
//  3. Converts rules to lowercase ASCII via IDNA and merges them into the trie; bad rules are logged and skipped.
func ParseList(r io.Reader, opts ListOptions) (*Trie, error) {
	trie := NewTrie()
	private := false
	skipped := 0

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Contains(line, listTokenPrivateDomains) {
			private = true
			continue
		}
		if strings.HasPrefix(line, listTokenComment) {
			continue
		}
		if private && !opts.IncludePrivate {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			line = fields[0]
		}

		rule, err := normalizeRule(line)
		if err == nil {
			err = trie.AddRule(rule)
		}
		if err != nil {
			skipped++
			log.Debug("skipping public suffix rule", "line", lineNo, "rule", line, "err", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read public suffix list: %w", err)
	}
	if trie.Len() == 0 {
		return nil, ErrEmptyList
	}
	if skipped > 0 {
		log.Warnf("Skipped %d malformed public suffix rules", skipped)
	}
	return trie, nil
}

// LoadFile opens path and parses it with ParseList.
func LoadFile(path string, opts ListOptions) (*Trie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open public suffix list: %w", err)
	}
	defer f.Close()

	trie, err := ParseList(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	log.Debugf("Loaded %d public suffix rules from %s", trie.Len(), path)
	return trie, nil
}

// normalizeRule lowercases a rule and encodes its labels as ASCII, keeping
// the wildcard/exception markers intact.
func normalizeRule(rule string) (string, error) {
	marker := ""
	switch {
	case strings.HasPrefix(rule, exceptionPrefix):
		marker = exceptionPrefix
	case strings.HasPrefix(rule, wildcardPrefix):
		marker = wildcardPrefix
	}
	body := strings.TrimPrefix(rule, marker)

	ascii, err := idna.ToASCII(body)
	if err != nil {
		return "", fmt.Errorf("idna: %w", err)
	}
	return marker + strings.ToLower(ascii), nil
}
